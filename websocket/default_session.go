package websocket

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aptpod/wsproto-go/errors"
	"github.com/aptpod/wsproto-go/extension"
	"github.com/aptpod/wsproto-go/frame"
	"github.com/aptpod/wsproto-go/internal/ch"
	"github.com/aptpod/wsproto-go/log"
	"github.com/aptpod/wsproto-go/transport"
)

var _ Session = (*DefaultSession)(nil)

// DefaultSession wraps a Session with keep-alive pings, automatic Pong replies and the close
// handshake. Ping and Pong frames are consumed unless PassControlFrames is set.
type DefaultSession struct {
	raw    Session
	config Config
	logger log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	incoming chan frame.Frame
	done     chan struct{}
	started  atomic.Bool

	state       *sessionState
	closeReason *closeReasonFuture

	pingInterval atomic.Int64
	timeout      atomic.Int64

	pingerMu      sync.Mutex
	pingerCancel  context.CancelFunc
	pingerStopped bool
	pingerWg      sync.WaitGroup
	pongCh        chan []byte

	errMu sync.Mutex
	err   error
}

// New returns a DefaultSession on conn.
func New(conn transport.Conn, opts ...Option) *DefaultSession {
	return NewDefaultSession(NewRawSession(conn, opts...), opts...)
}

// NewDefaultSession wraps raw. raw must not be started yet.
func NewDefaultSession(raw Session, opts ...Option) *DefaultSession {
	c := newConfig(opts...)
	ctx, cancel := context.WithCancel(log.WithTrackSessionID(context.Background()))
	s := &DefaultSession{
		raw:         raw,
		config:      c,
		logger:      c.Logger,
		ctx:         ctx,
		cancel:      cancel,
		incoming:    make(chan frame.Frame),
		done:        make(chan struct{}),
		state:       newSessionState(),
		closeReason: newCloseReasonFuture(),
		pongCh:      make(chan []byte, 1),
	}
	s.pingInterval.Store(int64(c.PingInterval))
	s.timeout.Store(int64(c.Timeout))
	return s
}

// Start implements Session.
func (s *DefaultSession) Start(exts ...extension.Extension) error {
	if s.started.Load() {
		return errors.ErrAlreadyStarted
	}
	if err := s.raw.Start(exts...); err != nil {
		return err
	}
	if !s.started.CompareAndSwap(false, true) {
		return errors.ErrAlreadyStarted
	}
	go s.dispatchLoop()
	s.runOrCancelPinger()
	return nil
}

func (s *DefaultSession) dispatchLoop() {
	defer func() {
		s.stopPinger()
		s.closeReason.resolve(nil)
		s.state.Swap(StatusClosed)
		s.raw.Terminate()
		<-s.raw.Done()
		s.pingerWg.Wait()
		close(s.incoming)
		s.cancel()
		close(s.done)
	}()

	for f := range s.raw.Incoming() {
		switch f.Type {
		case frame.TypePing:
			if err := s.raw.Send(s.ctx, frame.NewPong(f.Data)); err != nil {
				s.logger.Debugf(s.ctx, "Failed to send Pong: %v", err)
			}
		case frame.TypePong:
			select {
			case s.pongCh <- f.Data:
			default:
			}
		case frame.TypeClose:
			s.handleClose(f)
		}

		if f.Type.IsControl() && !s.config.PassControlFrames {
			continue
		}
		if !ch.WriteOrDone[frame.Frame](s.ctx, f, s.incoming) {
			return
		}
	}
}

func (s *DefaultSession) handleClose(f frame.Frame) {
	reason, ok := f.CloseReason()
	if !ok {
		reason = frame.CloseReason{Code: frame.CloseNoStatus}
	}
	s.logger.Infof(s.ctx, "Received %v", reason)

	if s.state.CompareAndSwap(StatusActive, StatusCloseReceived) {
		s.stopPinger()
		echo := frame.NewCloseEmpty()
		if ok {
			echo = frame.NewClose(reason)
		}
		if err := s.raw.Send(s.ctx, echo); err != nil {
			s.logger.Debugf(s.ctx, "Failed to reply Close: %v", err)
		} else if err := s.raw.Flush(s.ctx); err != nil {
			s.logger.Debugf(s.ctx, "Failed to flush Close: %v", err)
		}
		s.closeReason.resolve(&reason)
		s.state.Swap(StatusClosed)
		return
	}

	if s.state.Is(StatusCloseSent) {
		s.closeReason.resolve(&reason)
		s.state.Swap(StatusClosed)
	}
}

// Send implements Session. Sending a Close frame starts the close handshake: the session
// waits up to Timeout for the peer's Close and terminates otherwise.
func (s *DefaultSession) Send(ctx context.Context, f frame.Frame) error {
	if s.state.Is(StatusClosed) {
		return s.closedError()
	}
	if f.Type != frame.TypeClose {
		return s.raw.Send(ctx, f)
	}

	if !s.state.CompareAndSwap(StatusActive, StatusCloseSent) {
		return s.raw.Send(ctx, f)
	}
	s.stopPinger()
	if err := s.raw.Send(ctx, f); err != nil {
		s.Terminate()
		return err
	}
	go s.awaitCloseReply()
	return nil
}

func (s *DefaultSession) awaitCloseReply() {
	ctx, cancel := context.WithTimeout(s.ctx, s.Timeout())
	defer cancel()
	if err := s.state.WaitUntil(ctx, StatusClosed); err != nil {
		if s.ctx.Err() == nil {
			s.logger.Warnf(s.ctx, "No Close reply within %v, terminate session", s.Timeout())
		}
		s.Terminate()
	}
}

func (s *DefaultSession) closedError() error {
	select {
	case <-s.closeReason.Done():
		if r, _ := s.closeReason.Wait(context.Background()); r != nil {
			return fmt.Errorf("send: %w", errors.CloseError{Code: uint16(r.Code), Message: r.Message})
		}
	default:
	}
	return fmt.Errorf("send: %w", errors.ErrConnectionClosed)
}

// Close sends a Close frame with reason and waits until the session has ended.
func (s *DefaultSession) Close(ctx context.Context, reason frame.CloseReason) error {
	if err := s.Send(ctx, frame.NewClose(reason)); err != nil {
		return err
	}
	if err := s.raw.Flush(ctx); err != nil {
		return err
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Terminate implements Session. An unresolved close reason resolves to nil.
func (s *DefaultSession) Terminate() {
	s.closeReason.resolve(nil)
	s.state.Swap(StatusClosed)
	s.cancel()
	if s.started.CompareAndSwap(false, true) {
		s.raw.Terminate()
		close(s.incoming)
		close(s.done)
		return
	}
	s.raw.Terminate()
}

func (s *DefaultSession) runOrCancelPinger() {
	s.pingerMu.Lock()
	defer s.pingerMu.Unlock()

	if s.pingerCancel != nil {
		s.pingerCancel()
		s.pingerCancel = nil
	}
	if s.pingerStopped || !s.started.Load() || !s.state.Is(StatusActive) {
		return
	}
	interval := s.PingInterval()
	if interval < 0 {
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.pingerCancel = cancel
	s.pingerWg.Add(1)
	go func() {
		defer s.pingerWg.Done()
		s.pinger(ctx, interval)
	}()
}

func (s *DefaultSession) stopPinger() {
	s.pingerMu.Lock()
	defer s.pingerMu.Unlock()
	s.pingerStopped = true
	if s.pingerCancel != nil {
		s.pingerCancel()
		s.pingerCancel = nil
	}
}

func (s *DefaultSession) pinger(ctx context.Context, interval time.Duration) {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		payload := []byte(uuid.NewString())
		ch.Drain[[]byte](s.pongCh)
		if err := s.raw.Send(ctx, frame.NewPing(payload)); err != nil {
			return
		}
		s.logger.Debugf(s.ctx, "Sent Ping %s", payload)

		if !s.waitPong(ctx, payload) {
			if ctx.Err() != nil {
				return
			}
			reason := frame.CloseReason{Code: frame.CloseAbnormal, Message: "Ping timeout"}
			s.setErr(fmt.Errorf("no Pong within %v: %w", s.Timeout(), errors.ErrPingTimeout))
			s.closeReason.resolve(&reason)
			s.logger.Warnf(s.ctx, "Ping timeout, terminate session")
			s.Terminate()
			return
		}
		timer.Reset(interval)
	}
}

func (s *DefaultSession) waitPong(ctx context.Context, payload []byte) bool {
	timer := time.NewTimer(s.Timeout())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return false
		case data := <-s.pongCh:
			if !s.config.StrictPong || bytes.Equal(data, payload) {
				return true
			}
		}
	}
}

func (s *DefaultSession) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Incoming implements Session.
func (s *DefaultSession) Incoming() <-chan frame.Frame {
	return s.incoming
}

// Flush implements Session.
func (s *DefaultSession) Flush(ctx context.Context) error {
	return s.raw.Flush(ctx)
}

// Done implements Session.
func (s *DefaultSession) Done() <-chan struct{} {
	return s.done
}

// Err implements Session.
func (s *DefaultSession) Err() error {
	s.errMu.Lock()
	err := s.err
	s.errMu.Unlock()
	if err != nil {
		return err
	}
	return s.raw.Err()
}

// MaxFrameSize implements Session.
func (s *DefaultSession) MaxFrameSize() int64 {
	return s.raw.MaxFrameSize()
}

// SetMaxFrameSize implements Session.
func (s *DefaultSession) SetMaxFrameSize(n int64) {
	s.raw.SetMaxFrameSize(n)
}

// Extensions implements Session.
func (s *DefaultSession) Extensions() []extension.Extension {
	return s.raw.Extensions()
}

// Status returns the close handshake state.
func (s *DefaultSession) Status() Status {
	return s.state.Current()
}

// CloseReason waits for the close reason. It is nil when the session ended without one,
// e.g. after Terminate or a transport failure.
func (s *DefaultSession) CloseReason(ctx context.Context) (*frame.CloseReason, error) {
	return s.closeReason.Wait(ctx)
}

// CloseReasonDone is closed once the close reason is known.
func (s *DefaultSession) CloseReasonDone() <-chan struct{} {
	return s.closeReason.Done()
}

// PingInterval returns the keep-alive interval. A negative value means no pings are sent.
func (s *DefaultSession) PingInterval() time.Duration {
	return time.Duration(s.pingInterval.Load())
}

// SetPingInterval changes the keep-alive interval and restarts the pinger.
func (s *DefaultSession) SetPingInterval(d time.Duration) {
	s.pingInterval.Store(int64(d))
	s.runOrCancelPinger()
}

// Timeout returns how long the session waits for a Pong or a Close reply.
func (s *DefaultSession) Timeout() time.Duration {
	return time.Duration(s.timeout.Load())
}

// SetTimeout changes the timeout used by the next Ping or Close.
func (s *DefaultSession) SetTimeout(d time.Duration) {
	s.timeout.Store(int64(d))
}
