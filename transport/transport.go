/*
Package transport は、 WebSocketセッションの下位にあるバイトストリームをまとめたパッケージです。

HTTPのアップグレードが完了したコネクション（net.Conn など）をそのまま Conn として扱えます。
*/
package transport

import (
	"io"

	"github.com/aptpod/wsproto-go/errors"
)

// Connは、順序が保証された信頼性のあるバイトストリームです。
//
//go:generate mockgen -destination ./${GOPACKAGE}mock/${GOFILE} -package ${GOPACKAGE}mock -source ./${GOFILE}
type Conn interface {
	// Read は、トランスポートからバイト列を読み出します。任意の位置で分割されることがあります。
	io.Reader
	// Write は、トランスポートへバイト列を書き込みます。
	io.Writer
	// Close は、トランスポートのコネクションを切断します。進行中の Read と Write は中断されます。
	io.Closer
}

// EOF は、リモート側がコネクションを切断した後の Read で返されます。
var EOF = io.EOF

// Copy は、 src から読み出したバイト列を dst へ書き込み続けます。
//
// src または dst が切断された場合は nil を返します。
func Copy(dst Conn, src Conn) error {
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				if errors.Is(werr, errors.ErrConnectionClosed) {
					return nil
				}
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, EOF) || errors.Is(err, errors.ErrConnectionClosed) {
				return nil
			}
			return err
		}
	}
}
