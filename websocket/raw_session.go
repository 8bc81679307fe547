package websocket

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aptpod/wsproto-go/errors"
	"github.com/aptpod/wsproto-go/extension"
	"github.com/aptpod/wsproto-go/frame"
	"github.com/aptpod/wsproto-go/internal/ch"
	"github.com/aptpod/wsproto-go/internal/xio"
	"github.com/aptpod/wsproto-go/log"
	"github.com/aptpod/wsproto-go/transport"
)

var _ Session = (*RawSession)(nil)

// writeReq is either a frame or, when flushed is non-nil, a flush marker.
type writeReq struct {
	frame   frame.Frame
	flushed chan struct{}
}

// RawSession is a Session without any protocol housekeeping. Ping, Pong and Close frames are
// delivered and sent like data frames.
type RawSession struct {
	conn   transport.Conn
	config Config
	logger log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	rx *xio.CountingReader
	tx *xio.CountingWriter

	maxFrameSize atomic.Int64
	pipeline     atomic.Pointer[extension.Pipeline]

	incoming chan frame.Frame
	outgoing chan writeReq

	started    atomic.Bool
	writerDone chan struct{}
	done       chan struct{}

	writeMu   sync.Mutex
	fw        *frame.Writer
	closeSent atomic.Bool

	closeOnce sync.Once

	errMu sync.Mutex
	err   error
}

// NewRawSession returns a RawSession on conn. Call Start to begin reading and writing.
func NewRawSession(conn transport.Conn, opts ...Option) *RawSession {
	c := newConfig(opts...)
	ctx, cancel := context.WithCancel(log.WithTrackSessionID(context.Background()))
	s := &RawSession{
		conn:       conn,
		config:     c,
		logger:     c.Logger,
		ctx:        ctx,
		cancel:     cancel,
		rx:         xio.NewCountingReader(conn),
		tx:         xio.NewCountingWriter(conn),
		incoming:   make(chan frame.Frame, c.OutgoingQueueSize),
		outgoing:   make(chan writeReq, c.OutgoingQueueSize),
		writerDone: make(chan struct{}),
		done:       make(chan struct{}),
	}
	s.maxFrameSize.Store(c.MaxFrameSize)
	s.fw = frame.NewWriter(s.tx, c.Client)
	if c.MaskKeySource != nil {
		s.fw.SetMaskKeySource(c.MaskKeySource)
	}
	return s
}

// Start implements Session.
func (s *RawSession) Start(exts ...extension.Extension) error {
	p, err := extension.NewPipeline(exts...)
	if err != nil {
		return err
	}
	if !s.started.CompareAndSwap(false, true) {
		return errors.ErrAlreadyStarted
	}
	s.pipeline.Store(p)
	s.logger.Infof(s.ctx, "Session started (client=%v, extensions=%d)", s.config.Client, len(exts))
	go s.run()
	return nil
}

func (s *RawSession) run() {
	defer close(s.done)

	eg, ctx := errgroup.WithContext(s.ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	eg.Go(func() error {
		defer wg.Done()
		return s.readLoop(ctx)
	})
	eg.Go(func() error {
		defer wg.Done()
		return s.writeLoop(ctx)
	})
	eg.Go(func() error {
		return s.watch(ctx)
	})
	go func() {
		wg.Wait()
		s.cancel()
	}()

	if err := eg.Wait(); err != nil {
		s.logger.Infof(s.ctx, "Session closed: %v", err)
		return
	}
	s.logger.Infof(s.ctx, "Session closed")
}

func (s *RawSession) readLoop(ctx context.Context) error {
	defer close(s.incoming)

	pipeline := s.pipeline.Load()
	rd := frame.NewReader(s.rx, s.config.ReadBufferSize)
	for {
		f, err := rd.ReadFrame(s.maxFrameSize.Load())
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return s.fail(fmt.Errorf("read frame: %w", errors.ErrConnectionClosed))
			}
			if errors.Is(err, errors.ErrProtocolViolation) || errors.Is(err, errors.ErrFrameTooLarge) {
				s.logger.Errorf(s.ctx, "Invalid frame received: %v", err)
			}
			return s.fail(fmt.Errorf("read frame: %w", err))
		}
		if err := pipeline.CheckRsv(f); err != nil {
			s.logger.Errorf(s.ctx, "Invalid frame received: %v", err)
			return s.fail(err)
		}
		if f, err = pipeline.Decode(f); err != nil {
			s.logger.Errorf(s.ctx, "Failed to decode frame: %v", err)
			return s.fail(err)
		}
		s.logger.Debugf(s.ctx, "Received %v", f)

		if !ch.WriteOrDone[frame.Frame](ctx, f, s.incoming) {
			return nil
		}
		if f.Type == frame.TypeClose {
			return nil
		}
	}
}

func (s *RawSession) writeLoop(ctx context.Context) error {
	defer close(s.writerDone)

	pipeline := s.pipeline.Load()
	for {
		var req writeReq
		select {
		case <-ctx.Done():
			return nil
		case req = <-s.outgoing:
		}

		if req.flushed != nil {
			if err := s.flush(ctx); err != nil {
				return s.fail(err)
			}
			close(req.flushed)
			continue
		}

		closed, err := s.write(ctx, pipeline, req.frame)
		if err != nil {
			return s.fail(err)
		}
		if closed {
			if n := ch.Drain[writeReq](s.outgoing); n > 0 {
				s.logger.Debugf(s.ctx, "Dropped %d queued frames after close", n)
			}
			return nil
		}
	}
}

// write reports whether f was a Close frame, after which nothing else may be written.
func (s *RawSession) write(ctx context.Context, pipeline *extension.Pipeline, f frame.Frame) (bool, error) {
	f, err := pipeline.Encode(f)
	if err != nil {
		return false, err
	}
	if max := s.maxFrameSize.Load(); max >= 0 && int64(len(f.Data)) > max {
		return false, fmt.Errorf("outgoing frame length %d exceeds %d: %w", len(f.Data), max, errors.ErrFrameTooLarge)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if ctx.Err() != nil {
		return true, nil
	}
	if err := s.fw.WriteFrame(f); err != nil {
		return false, fmt.Errorf("write frame: %w", err)
	}
	s.logger.Debugf(s.ctx, "Sent %v", f)

	if f.Type == frame.TypeClose {
		if err := s.fw.Flush(); err != nil {
			return false, fmt.Errorf("flush: %w", err)
		}
		s.closeSent.Store(true)
		return true, nil
	}
	if len(s.outgoing) == 0 {
		if err := s.fw.Flush(); err != nil {
			return false, fmt.Errorf("flush: %w", err)
		}
	}
	return false, nil
}

func (s *RawSession) flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if ctx.Err() != nil {
		return nil
	}
	if err := s.fw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// watch closes the transport once the session is shutting down. A session that failed
// because of the peer's frames tries to tell the peer why before closing.
func (s *RawSession) watch(ctx context.Context) error {
	<-ctx.Done()
	if reason, ok := failureCloseReason(s.Err()); ok && !s.closeSent.Load() {
		s.writeCloseBestEffort(reason)
	}
	s.closeTransport()
	return nil
}

func failureCloseReason(err error) (frame.CloseReason, bool) {
	switch {
	case err == nil:
		return frame.CloseReason{}, false
	case errors.Is(err, errors.ErrFrameTooLarge):
		return frame.CloseReason{Code: frame.CloseTooBig, Message: "Frame too large"}, true
	case errors.Is(err, errors.ErrProtocolViolation):
		return frame.CloseReason{Code: frame.CloseProtocolError, Message: "Protocol violation"}, true
	case errors.Is(err, errors.ErrExtensionFailed):
		return frame.CloseReason{Code: frame.CloseInternalError, Message: "Extension failure"}, true
	default:
		return frame.CloseReason{}, false
	}
}

func (s *RawSession) writeCloseBestEffort(reason frame.CloseReason) {
	t := time.AfterFunc(s.config.CloseTimeout, s.closeTransport)
	defer t.Stop()

	// the write loop has seen ctx.Done; a write stuck on the transport ends with closeTransport
	<-s.writerDone
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closeSent.Load() {
		return
	}

	if err := s.fw.WriteFrame(frame.NewClose(reason)); err != nil {
		s.logger.Debugf(s.ctx, "Failed to write %v: %v", reason, err)
		return
	}
	if err := s.fw.Flush(); err != nil {
		s.logger.Debugf(s.ctx, "Failed to write %v: %v", reason, err)
		return
	}
	s.closeSent.Store(true)
}

func (s *RawSession) closeTransport() {
	s.closeOnce.Do(func() {
		if err := s.conn.Close(); err != nil {
			s.logger.Debugf(s.ctx, "Failed to close transport: %v", err)
		}
	})
}

// fail records err as the session error unless one is already set, and returns err.
func (s *RawSession) fail(err error) error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
	return err
}

// Incoming implements Session.
func (s *RawSession) Incoming() <-chan frame.Frame {
	return s.incoming
}

// Send implements Session. Invalid control frames are rejected; a frame larger than
// MaxFrameSize ends the session.
func (s *RawSession) Send(ctx context.Context, f frame.Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if max := s.maxFrameSize.Load(); max >= 0 && int64(len(f.Data)) > max {
		err := s.fail(fmt.Errorf("outgoing frame length %d exceeds %d: %w", len(f.Data), max, errors.ErrFrameTooLarge))
		s.Terminate()
		return err
	}
	if ch.IsClosed(s.writerDone) {
		return fmt.Errorf("send: %w", errors.ErrConnectionClosed)
	}
	select {
	case <-s.writerDone:
		return fmt.Errorf("send: %w", errors.ErrConnectionClosed)
	case <-ctx.Done():
		return ctx.Err()
	case s.outgoing <- writeReq{frame: f}:
		return nil
	}
}

// Flush implements Session.
func (s *RawSession) Flush(ctx context.Context) error {
	if ch.IsClosed(s.writerDone) {
		return nil
	}
	req := writeReq{flushed: make(chan struct{})}
	select {
	case <-s.writerDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case s.outgoing <- req:
	}

	select {
	case <-req.flushed:
		return nil
	case <-s.writerDone:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Terminate implements Session.
func (s *RawSession) Terminate() {
	s.cancel()
	if s.started.CompareAndSwap(false, true) {
		s.closeTransport()
		close(s.writerDone)
		close(s.incoming)
		close(s.done)
	}
}

// Done implements Session.
func (s *RawSession) Done() <-chan struct{} {
	return s.done
}

// Err implements Session.
func (s *RawSession) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// MaxFrameSize implements Session.
func (s *RawSession) MaxFrameSize() int64 {
	return s.maxFrameSize.Load()
}

// SetMaxFrameSize implements Session. The new limit applies to the next frame in each direction.
func (s *RawSession) SetMaxFrameSize(n int64) {
	s.maxFrameSize.Store(n)
}

// Extensions implements Session.
func (s *RawSession) Extensions() []extension.Extension {
	p := s.pipeline.Load()
	if p == nil {
		return nil
	}
	return p.Extensions()
}

// RxBytesCounterValue は、トランスポートから読み込んだ総バイト数を返却します。
func (s *RawSession) RxBytesCounterValue() uint64 {
	return s.rx.Count()
}

// TxBytesCounterValue は、トランスポートへ書き込んだ総バイト数を返却します。
func (s *RawSession) TxBytesCounterValue() uint64 {
	return s.tx.Count()
}
