/*
Package websocket provides WebSocket sessions running on top of an upgraded byte stream.

RawSession moves frames between the transport and two channels and does nothing else.
DefaultSession wraps a Session and adds the protocol housekeeping: automatic Pong replies,
keep-alive pings with a timeout, and the close handshake.

	sess := websocket.New(conn, websocket.WithPingInterval(10*time.Second))
	if err := sess.Start(); err != nil {
		return err
	}
	defer sess.Terminate()
	for f := range sess.Incoming() {
		// ...
	}
*/
package websocket

import (
	"context"

	"github.com/aptpod/wsproto-go/extension"
	"github.com/aptpod/wsproto-go/frame"
)

// Session is a frame-level WebSocket session.
type Session interface {
	// Start launches the session's goroutines with the negotiated extensions.
	// Frames sent before Start stay queued.
	Start(exts ...extension.Extension) error

	// Incoming delivers received frames in wire order. It is closed when the session ends.
	Incoming() <-chan frame.Frame

	// Send queues f for writing. It blocks while the outgoing queue is full.
	Send(ctx context.Context, f frame.Frame) error

	// Flush waits until every frame queued before it has been written to the transport.
	Flush(ctx context.Context) error

	// Terminate closes the session immediately without a close handshake.
	Terminate()

	// Done is closed once every goroutine of the session has stopped.
	Done() <-chan struct{}

	// Err returns the error that ended the session, or nil.
	Err() error

	MaxFrameSize() int64
	SetMaxFrameSize(n int64)

	// Extensions returns the extensions passed to Start.
	Extensions() []extension.Extension
}
