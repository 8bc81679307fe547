package websocket

import (
	"context"
	"fmt"
	"sync"
)

// Status is the close handshake state of a DefaultSession.
type Status uint8

const (
	StatusActive Status = iota
	StatusCloseSent
	StatusCloseReceived
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusCloseSent:
		return "CLOSE_SENT"
	case StatusCloseReceived:
		return "CLOSE_RECEIVED"
	case StatusClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

type sessionState struct {
	*sync.RWMutex
	cond    *sync.Cond
	current Status
}

func newSessionState() *sessionState {
	var mu sync.RWMutex
	return &sessionState{
		RWMutex: &mu,
		cond:    sync.NewCond(&mu),
	}
}

func (e *sessionState) Current() Status {
	e.RLock()
	defer e.RUnlock()
	return e.current
}

func (e *sessionState) Swap(state Status) (old Status) {
	e.Lock()
	defer e.Unlock()
	return e.swapWithoutLock(state)
}

func (e *sessionState) CompareAndSwap(old, new Status) (swapped bool) {
	e.Lock()
	defer e.Unlock()
	if e.current != old {
		return false
	}
	e.swapWithoutLock(new)
	return true
}

func (e *sessionState) swapWithoutLock(state Status) (old Status) {
	old = e.current
	e.current = state
	e.cond.Broadcast()
	return
}

func (e *sessionState) Is(state Status) bool {
	e.RLock()
	defer e.RUnlock()
	return e.current == state
}

// WaitUntil blocks until the state becomes status or ctx is done.
func (e *sessionState) WaitUntil(ctx context.Context, status Status) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		e.Lock()
		e.cond.Broadcast()
		e.Unlock()
	}()

	e.Lock()
	defer e.Unlock()
	for status != e.current {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.cond.Wait()
	}
	return nil
}
