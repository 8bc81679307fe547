package websocket_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aptpod/wsproto-go/errors"
	"github.com/aptpod/wsproto-go/extension"
	"github.com/aptpod/wsproto-go/frame"
	"github.com/aptpod/wsproto-go/transport"
	"github.com/aptpod/wsproto-go/transport/transportmock"
	. "github.com/aptpod/wsproto-go/websocket"
)

func TestRawSession_SendReceive(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	cli, srv := newRawPair(t, []Option{WithMaskKeySource(func() uint32 { return 0x01020304 })}, nil)
	require.NoError(t, cli.Start())
	require.NoError(t, srv.Start())

	require.NoError(t, cli.Send(ctx, frame.NewText("hello")))
	require.NoError(t, cli.Flush(ctx))
	assert.Equal(t, frame.NewText("hello"), receive(t, srv.Incoming()))
	// 2 bytes header, 4 bytes mask key, 5 bytes payload
	assert.Equal(t, uint64(11), cli.TxBytesCounterValue())
	assert.Equal(t, uint64(11), srv.RxBytesCounterValue())

	require.NoError(t, cli.Send(ctx, frame.NewBinary(false, []byte("ab"))))
	require.NoError(t, cli.Send(ctx, frame.NewPing([]byte("p"))))
	require.NoError(t, cli.Send(ctx, frame.NewBinary(true, []byte("c"))))
	assert.Equal(t, frame.NewBinary(false, []byte("ab")), receive(t, srv.Incoming()))
	assert.Equal(t, frame.NewPing([]byte("p")), receive(t, srv.Incoming()))
	assert.Equal(t, frame.NewBinary(true, []byte("c")), receive(t, srv.Incoming()))

	require.NoError(t, srv.Send(ctx, frame.NewText("world")))
	assert.Equal(t, frame.NewText("world"), receive(t, cli.Incoming()))

	cli.Terminate()
	srv.Terminate()
	waitDone(t, cli)
	waitDone(t, srv)
	assert.NoError(t, cli.Err())
}

func TestRawSession_Backpressure(t *testing.T) {
	defer goleak.VerifyNone(t)
	const capacity = 3
	ctx := context.Background()
	cli, srv := newRawPair(t, []Option{WithOutgoingQueueSize(capacity)}, nil)

	for i := 0; i < capacity; i++ {
		require.NoError(t, cli.Send(ctx, frame.NewBinary(true, []byte{byte(i)})))
	}
	sent := make(chan error, 1)
	go func() {
		sent <- cli.Send(ctx, frame.NewBinary(true, []byte{capacity}))
	}()
	select {
	case err := <-sent:
		t.Fatalf("send must block while the queue is full: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, srv.Start())
	require.NoError(t, cli.Start())
	require.NoError(t, <-sent)
	for i := 0; i <= capacity; i++ {
		assert.Equal(t, []byte{byte(i)}, receive(t, srv.Incoming()).Data)
	}

	cli.Terminate()
	srv.Terminate()
	waitDone(t, cli)
	waitDone(t, srv)
}

func TestRawSession_SendHonorsContext(t *testing.T) {
	defer goleak.VerifyNone(t)
	cli, _ := newRawPair(t, []Option{WithOutgoingQueueSize(1)}, nil)
	require.NoError(t, cli.Send(context.Background(), frame.NewText("queued")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, cli.Send(ctx, frame.NewText("blocked")), context.DeadlineExceeded)

	cli.Terminate()
	waitDone(t, cli)
}

func TestRawSession_CloseIsLastIncoming(t *testing.T) {
	defer goleak.VerifyNone(t)
	c, s := transport.Pipe()
	defer c.Close()
	srv := NewRawSession(s)
	require.NoError(t, srv.Start())

	w := frame.NewWriter(c, true)
	require.NoError(t, w.WriteFrame(frame.NewClose(frame.CloseReason{Code: frame.CloseGoingAway, Message: "bye"})))
	require.NoError(t, w.WriteFrame(frame.NewText("after close")))
	require.NoError(t, w.Flush())

	f := receive(t, srv.Incoming())
	reason, ok := f.CloseReason()
	require.True(t, ok)
	assert.Equal(t, frame.CloseReason{Code: frame.CloseGoingAway, Message: "bye"}, reason)
	requireClosed(t, srv.Incoming())

	srv.Terminate()
	waitDone(t, srv)
	assert.NoError(t, srv.Err())
}

func TestRawSession_InvalidIncoming(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		wire     []byte
		wantErr  error
		wantCode frame.CloseCode
	}{
		{
			name:     "reserved opcode",
			wire:     []byte{0x83, 0x00},
			wantErr:  errors.ErrUnsupportedOpcode,
			wantCode: frame.CloseProtocolError,
		},
		{
			name:     "unnegotiated rsv1",
			wire:     []byte{0xc1, 0x00},
			wantErr:  errors.ErrReservedBits,
			wantCode: frame.CloseProtocolError,
		},
		{
			name:     "continuation first",
			wire:     []byte{0x80, 0x00},
			wantErr:  errors.ErrUnexpectedContinuation,
			wantCode: frame.CloseProtocolError,
		},
		{
			name:     "fragmented ping",
			wire:     []byte{0x09, 0x00},
			wantErr:  errors.ErrInvalidControlFrame,
			wantCode: frame.CloseProtocolError,
		},
		{
			name:     "too large",
			opts:     []Option{WithMaxFrameSize(4)},
			wire:     []byte{0x82, 0x05},
			wantErr:  errors.ErrFrameTooLarge,
			wantCode: frame.CloseTooBig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)
			c, s := transport.Pipe()
			defer c.Close()
			srv := NewRawSession(s, tt.opts...)
			require.NoError(t, srv.Start())

			_, err := c.Write(tt.wire)
			require.NoError(t, err)

			f, err := frame.NewReader(c, 0).ReadFrame(1 << 20)
			require.NoError(t, err)
			reason, ok := f.CloseReason()
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, reason.Code)

			waitDone(t, srv)
			assert.ErrorIs(t, srv.Err(), tt.wantErr)
			requireClosed(t, srv.Incoming())
		})
	}
}

func TestRawSession_SendTooLarge(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	cli, srv := newRawPair(t, []Option{WithMaxFrameSize(4)}, nil)
	require.NoError(t, cli.Start())
	require.NoError(t, srv.Start())

	assert.Equal(t, int64(4), cli.MaxFrameSize())
	require.NoError(t, cli.Send(ctx, frame.NewBinary(true, []byte{1, 2, 3, 4})))
	assert.Equal(t, []byte{1, 2, 3, 4}, receive(t, srv.Incoming()).Data)

	err := cli.Send(ctx, frame.NewBinary(true, []byte{1, 2, 3, 4, 5}))
	assert.ErrorIs(t, err, errors.ErrFrameTooLarge)
	waitDone(t, cli)
	assert.ErrorIs(t, cli.Err(), errors.ErrFrameTooLarge)

	reason, ok := receive(t, srv.Incoming()).CloseReason()
	require.True(t, ok)
	assert.Equal(t, frame.CloseTooBig, reason.Code)

	srv.Terminate()
	waitDone(t, srv)
}

func TestRawSession_SendTooLargeRightAfterData(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		c, s := transport.Pipe()
		cli := NewRawSession(c, WithClient(true), WithMaxFrameSize(4))
		srv := NewRawSession(s)
		require.NoError(t, cli.Start())
		require.NoError(t, srv.Start())

		require.NoError(t, cli.Send(ctx, frame.NewBinary(true, []byte{1})))
		// the writer may still hold its lock right after the peer got the bytes
		assert.Equal(t, []byte{1}, receive(t, srv.Incoming()).Data)
		assert.ErrorIs(t, cli.Send(ctx, frame.NewBinary(true, []byte{1, 2, 3, 4, 5})), errors.ErrFrameTooLarge)

		reason, ok := receive(t, srv.Incoming()).CloseReason()
		require.True(t, ok, "iteration %d", i)
		assert.Equal(t, frame.CloseTooBig, reason.Code)

		srv.Terminate()
		waitDone(t, cli)
		waitDone(t, srv)
	}
}

func TestRawSession_SetMaxFrameSize(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	cli, srv := newRawPair(t, nil, nil)
	require.NoError(t, cli.Start())
	require.NoError(t, srv.Start())

	srv.SetMaxFrameSize(2)
	assert.Equal(t, int64(2), srv.MaxFrameSize())
	// the pending read may still use the old limit
	require.NoError(t, cli.Send(ctx, frame.NewBinary(true, []byte{1})))
	assert.Equal(t, []byte{1}, receive(t, srv.Incoming()).Data)
	require.NoError(t, cli.Send(ctx, frame.NewBinary(true, []byte{1, 2, 3})))

	waitDone(t, srv)
	assert.ErrorIs(t, srv.Err(), errors.ErrFrameTooLarge)

	cli.Terminate()
	waitDone(t, cli)
}

func TestRawSession_InvalidControlFrameIsNotFatal(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	cli, srv := newRawPair(t, nil, nil)
	require.NoError(t, cli.Start())
	require.NoError(t, srv.Start())

	assert.ErrorIs(t, cli.Send(ctx, frame.NewPing(make([]byte, 126))), errors.ErrInvalidControlFrame)
	assert.ErrorIs(t, cli.Send(ctx, frame.Frame{Fin: false, Type: frame.TypePong}), errors.ErrInvalidControlFrame)

	require.NoError(t, cli.Send(ctx, frame.NewPing(make([]byte, 125))))
	assert.Len(t, receive(t, srv.Incoming()).Data, 125)
	assert.NoError(t, cli.Err())

	cli.Terminate()
	srv.Terminate()
	waitDone(t, cli)
	waitDone(t, srv)
}

func TestRawSession_FramesAfterCloseAreDropped(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	cli, srv := newRawPair(t, nil, nil)
	require.NoError(t, srv.Start())

	require.NoError(t, cli.Send(ctx, frame.NewClose(frame.CloseReason{Code: frame.CloseNormal})))
	require.NoError(t, cli.Send(ctx, frame.NewText("dropped")))
	require.NoError(t, cli.Start())
	require.NoError(t, cli.Flush(ctx))

	reason, ok := receive(t, srv.Incoming()).CloseReason()
	require.True(t, ok)
	assert.Equal(t, frame.CloseNormal, reason.Code)
	requireClosed(t, srv.Incoming())

	assert.ErrorIs(t, cli.Send(ctx, frame.NewText("late")), errors.ErrConnectionClosed)

	cli.Terminate()
	srv.Terminate()
	waitDone(t, cli)
	waitDone(t, srv)
}

func TestRawSession_Extensions(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("both sides", func(t *testing.T) {
		cli, srv := newRawPair(t, nil, nil)
		require.NoError(t, cli.Start(&xorExtension{key: 0x5a}))
		require.NoError(t, srv.Start(&xorExtension{key: 0x5a}))
		assert.Len(t, cli.Extensions(), 1)

		require.NoError(t, cli.Send(ctx, frame.NewText("hello")))
		assert.Equal(t, frame.NewText("hello"), receive(t, srv.Incoming()))

		cli.Terminate()
		srv.Terminate()
		waitDone(t, cli)
		waitDone(t, srv)
	})

	t.Run("peer without extension", func(t *testing.T) {
		cli, srv := newRawPair(t, nil, nil)
		require.NoError(t, cli.Start(&xorExtension{key: 0x5a}))
		require.NoError(t, srv.Start())
		assert.Empty(t, srv.Extensions())

		require.NoError(t, cli.Send(ctx, frame.NewText("hello")))
		waitDone(t, srv)
		assert.ErrorIs(t, srv.Err(), errors.ErrReservedBits)

		cli.Terminate()
		waitDone(t, cli)
	})
}

func TestRawSession_ExtensionFailure(t *testing.T) {
	tests := []struct {
		name     string
		cliExts  []extension.Extension
		srvExts  []extension.Extension
		cliFails bool
	}{
		{
			name:    "incoming",
			cliExts: []extension.Extension{&xorExtension{key: 1}},
			srvExts: []extension.Extension{&failingExtension{}},
		},
		{
			name:     "outgoing",
			cliExts:  []extension.Extension{&failingExtension{outgoing: true}},
			srvExts:  []extension.Extension{&xorExtension{key: 1}},
			cliFails: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)
			cli, srv := newRawPair(t, nil, nil)
			require.NoError(t, cli.Start(tt.cliExts...))
			require.NoError(t, srv.Start(tt.srvExts...))

			require.NoError(t, cli.Send(context.Background(), frame.NewText("hello")))

			// whichever side failed tells the other one with 1011
			failed, peer := Session(srv), Session(cli)
			if tt.cliFails {
				failed, peer = cli, srv
			}
			waitDone(t, failed)
			assert.ErrorIs(t, failed.Err(), errors.ErrExtensionFailed)

			reason, ok := receive(t, peer.Incoming()).CloseReason()
			require.True(t, ok)
			assert.Equal(t, frame.CloseInternalError, reason.Code)

			peer.Terminate()
			waitDone(t, peer)
		})
	}
}

func TestRawSession_Start(t *testing.T) {
	defer goleak.VerifyNone(t)
	c, s := transport.Pipe()
	defer c.Close()
	sess := NewRawSession(s)

	assert.ErrorIs(t, sess.Start(&xorExtension{}, &xorExtension{}), errors.ErrExtensionConflict)
	assert.Nil(t, sess.Extensions())
	require.NoError(t, sess.Start(&xorExtension{key: 1}))
	assert.ErrorIs(t, sess.Start(), errors.ErrAlreadyStarted)

	sess.Terminate()
	waitDone(t, sess)
}

func TestRawSession_TerminateBeforeStart(t *testing.T) {
	defer goleak.VerifyNone(t)
	c, s := transport.Pipe()
	defer c.Close()
	sess := NewRawSession(s)
	sess.Terminate()
	sess.Terminate()

	waitDone(t, sess)
	requireClosed(t, sess.Incoming())
	assert.ErrorIs(t, sess.Send(context.Background(), frame.NewText("x")), errors.ErrConnectionClosed)
	assert.NoError(t, sess.Flush(context.Background()))
	assert.ErrorIs(t, sess.Start(), errors.ErrAlreadyStarted)
}

func TestRawSession_TransportWriteFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	writeErr := errors.New("broken pipe")
	closed := make(chan struct{})
	conn := transportmock.NewMockConn(ctrl)
	conn.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		<-closed
		return 0, io.ErrClosedPipe
	}).AnyTimes()
	conn.EXPECT().Write(gomock.Any()).Return(0, writeErr)
	conn.EXPECT().Close().DoAndReturn(func() error {
		close(closed)
		return nil
	})

	sess := NewRawSession(conn)
	require.NoError(t, sess.Start())
	require.NoError(t, sess.Send(context.Background(), frame.NewText("hello")))

	waitDone(t, sess)
	assert.ErrorIs(t, sess.Err(), writeErr)
	assert.ErrorIs(t, sess.Send(context.Background(), frame.NewText("x")), errors.ErrConnectionClosed)
	assert.NoError(t, sess.Flush(context.Background()))
	requireClosed(t, sess.Incoming())
}

func TestFailureCloseReason(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   frame.CloseCode
		wantOK bool
	}{
		{name: "nil"},
		{name: "transport", err: io.ErrUnexpectedEOF},
		{name: "connection closed", err: errors.ErrConnectionClosed},
		{name: "protocol", err: errors.ErrUnsupportedOpcode, want: frame.CloseProtocolError, wantOK: true},
		{name: "too big", err: errors.ErrFrameTooLarge, want: frame.CloseTooBig, wantOK: true},
		{name: "extension", err: &errors.ExtensionError{Extension: "x", Err: io.ErrShortBuffer}, want: frame.CloseInternalError, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FailureCloseReason(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Code)
		})
	}
}
