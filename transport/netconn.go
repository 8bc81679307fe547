package transport

import (
	"bufio"
	"net"
)

type upgradedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *upgradedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

// FromUpgraded は、HTTPアップグレード後のコネクションを Conn として返却します。
//
// アップグレード時に r へ読み込まれたバイト列がある場合は、それを先に読み出します。
// r が nil または空の場合は conn をそのまま返却します。
func FromUpgraded(conn net.Conn, r *bufio.Reader) Conn {
	if r == nil || r.Buffered() == 0 {
		return conn
	}
	return &upgradedConn{Conn: conn, r: r}
}
