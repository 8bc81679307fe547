package transport

import (
	"fmt"
	"sync"

	"github.com/aptpod/wsproto-go/errors"
)

type pipe struct {
	rx      <-chan []byte
	rmu     sync.Mutex
	pending []byte

	tx chan<- []byte

	once           sync.Once
	closedCh       chan struct{}
	remoteClosedCh <-chan struct{}
}

func (p *pipe) Read(b []byte) (int, error) {
	p.rmu.Lock()
	defer p.rmu.Unlock()

	select {
	case <-p.closedCh:
		return 0, fmt.Errorf("read: %w", errors.ErrConnectionClosed)
	default:
	}
	if len(b) == 0 {
		return 0, nil
	}
	if len(p.pending) == 0 {
		select {
		case <-p.closedCh:
			return 0, fmt.Errorf("read: %w", errors.ErrConnectionClosed)
		case <-p.remoteClosedCh:
			return 0, EOF
		case p.pending = <-p.rx:
		}
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *pipe) Write(b []byte) (int, error) {
	select {
	case <-p.closedCh:
		return 0, fmt.Errorf("write: %w", errors.ErrConnectionClosed)
	case <-p.remoteClosedCh:
		return 0, fmt.Errorf("write: %w", errors.ErrConnectionClosed)
	default:
	}
	if len(b) == 0 {
		return 0, nil
	}
	chunk := append([]byte(nil), b...)
	select {
	case <-p.closedCh:
		return 0, fmt.Errorf("write: %w", errors.ErrConnectionClosed)
	case <-p.remoteClosedCh:
		return 0, fmt.Errorf("write: %w", errors.ErrConnectionClosed)
	case p.tx <- chunk:
		return len(b), nil
	}
}

func (p *pipe) Close() error {
	p.once.Do(func() {
		close(p.closedCh)
	})
	return nil
}

// Pipe は、メモリ上で接続された2つの Conn を返します。
//
// Write は相手側の Read がバイト列を受け取るまでブロックします。
// 1回の Write で書き込まれたバイト列は、複数回の Read に分割して読み出されることがあります。
func Pipe() (Conn, Conn) {
	ch1 := make(chan []byte)
	ch2 := make(chan []byte)

	chClosed1 := make(chan struct{})
	chClosed2 := make(chan struct{})

	return &pipe{
			rx: ch2,
			tx: ch1,

			closedCh:       chClosed1,
			remoteClosedCh: chClosed2,
		}, &pipe{
			rx: ch1,
			tx: ch2,

			closedCh:       chClosed2,
			remoteClosedCh: chClosed1,
		}
}
