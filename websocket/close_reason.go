package websocket

import (
	"context"
	"sync"

	"github.com/aptpod/wsproto-go/frame"
)

// closeReasonFuture is assigned at most once.
type closeReasonFuture struct {
	once   sync.Once
	done   chan struct{}
	reason *frame.CloseReason
}

func newCloseReasonFuture() *closeReasonFuture {
	return &closeReasonFuture{done: make(chan struct{})}
}

// resolve reports whether r was stored. Later calls are ignored.
func (f *closeReasonFuture) resolve(r *frame.CloseReason) bool {
	var resolved bool
	f.once.Do(func() {
		f.reason = r
		resolved = true
		close(f.done)
	})
	return resolved
}

func (f *closeReasonFuture) Done() <-chan struct{} {
	return f.done
}

func (f *closeReasonFuture) Wait(ctx context.Context) (*frame.CloseReason, error) {
	select {
	case <-f.done:
		return f.reason, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
