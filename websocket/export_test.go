package websocket

import "github.com/aptpod/wsproto-go/frame"

var (
	NewSessionState      = newSessionState
	NewCloseReasonFuture = newCloseReasonFuture
	FailureCloseReason   = failureCloseReason
)

func (f *closeReasonFuture) Resolve(r *frame.CloseReason) bool {
	return f.resolve(r)
}
