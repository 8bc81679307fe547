package ch

import "context"

// WriteOrDone sends v on c unless ctx is done first. It reports whether v was sent.
func WriteOrDone[T any](ctx context.Context, v T, c chan<- T) bool {
	select {
	case c <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

// IsClosed reports whether done has been closed, without blocking.
func IsClosed(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

// Drain discards everything currently buffered in c and returns the number of values dropped.
func Drain[T any](c <-chan T) int {
	var n int
	for {
		select {
		case _, ok := <-c:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}
