package websocket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/stretchr/testify/require"

	"github.com/aptpod/wsproto-go/errors"
	"github.com/aptpod/wsproto-go/frame"
	"github.com/aptpod/wsproto-go/transport"
	. "github.com/aptpod/wsproto-go/websocket"
)

const testWait = 2 * time.Second

func receive(t *testing.T, c <-chan frame.Frame) frame.Frame {
	t.Helper()
	select {
	case f, ok := <-c:
		require.True(t, ok, "incoming closed")
		return f
	case <-time.After(testWait):
		t.Fatal("timed out waiting for a frame")
	}
	return frame.Frame{}
}

func requireClosed(t *testing.T, c <-chan frame.Frame) {
	t.Helper()
	select {
	case f, ok := <-c:
		require.False(t, ok, "unexpected frame %v", f)
	case <-time.After(testWait):
		t.Fatal("timed out waiting for incoming to close")
	}
}

func waitDone(t *testing.T, s Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(testWait):
		t.Fatal("timed out waiting for the session to finish")
	}
}

func newRawPair(t *testing.T, cliOpts, srvOpts []Option) (*RawSession, *RawSession) {
	t.Helper()
	c, s := transport.Pipe()
	cli := NewRawSession(c, append([]Option{WithClient(true)}, cliOpts...)...)
	srv := NewRawSession(s, srvOpts...)
	t.Cleanup(func() {
		cli.Terminate()
		srv.Terminate()
	})
	return cli, srv
}

func newDefaultPair(t *testing.T, cliOpts, srvOpts []Option) (*DefaultSession, *DefaultSession) {
	t.Helper()
	c, s := transport.Pipe()
	cli := New(c, append([]Option{WithClient(true)}, cliOpts...)...)
	srv := New(s, srvOpts...)
	t.Cleanup(func() {
		cli.Terminate()
		srv.Terminate()
	})
	return cli, srv
}

// xorExtension claims rsv1 and XORs the payload with key.
type xorExtension struct {
	key byte
}

func (e *xorExtension) Name() string { return "x-xor" }
func (e *xorExtension) Rsv1() bool   { return true }
func (e *xorExtension) Rsv2() bool   { return false }
func (e *xorExtension) Rsv3() bool   { return false }

func (e *xorExtension) ProcessOutgoing(f frame.Frame) (frame.Frame, error) {
	f.Rsv1 = true
	f.Data = e.xor(f.Data)
	return f, nil
}

func (e *xorExtension) ProcessIncoming(f frame.Frame) (frame.Frame, error) {
	if !f.Rsv1 {
		return f, nil
	}
	f.Rsv1 = false
	f.Data = e.xor(f.Data)
	return f, nil
}

func (e *xorExtension) xor(b []byte) []byte {
	res := make([]byte, len(b))
	for i := range b {
		res[i] = b[i] ^ e.key
	}
	return res
}

// startEchoServer serves DefaultSessions echoing every data frame back.
// The returned channel yields each session after it has finished.
func startEchoServer(t *testing.T, opts ...Option) (string, <-chan *DefaultSession) {
	t.Helper()
	sessions := make(chan *DefaultSession, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, rw, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}
		sess := New(transport.FromUpgraded(conn, rw.Reader), opts...)
		if err := sess.Start(); err != nil {
			conn.Close()
			return
		}
		go func() {
			for f := range sess.Incoming() {
				if err := sess.Send(context.Background(), f); err != nil {
					break
				}
			}
			<-sess.Done()
			sessions <- sess
		}()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), sessions
}

// failingExtension claims rsv1 and fails every transformation in the configured direction.
type failingExtension struct {
	outgoing bool
}

func (e *failingExtension) Name() string { return "x-failing" }
func (e *failingExtension) Rsv1() bool   { return true }
func (e *failingExtension) Rsv2() bool   { return false }
func (e *failingExtension) Rsv3() bool   { return false }

func (e *failingExtension) ProcessOutgoing(f frame.Frame) (frame.Frame, error) {
	if e.outgoing {
		return f, errors.New("deflate failed")
	}
	return f, nil
}

func (e *failingExtension) ProcessIncoming(f frame.Frame) (frame.Frame, error) {
	if !e.outgoing {
		return f, errors.New("inflate failed")
	}
	return f, nil
}
