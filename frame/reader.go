package frame

import (
	"fmt"
	"io"

	"github.com/aptpod/wsproto-go/errors"
)

// DefaultReadBufferSize is the chunk size used to read from the transport.
const DefaultReadBufferSize = 4096

// Reader reads frames from a byte stream delivered in chunks of any size.
type Reader struct {
	r      io.Reader
	buf    *Buffer
	chunk  []byte
	parser Parser
	err    error
}

// NewReader returns a Reader reading up to bufferSize bytes per transport read.
func NewReader(r io.Reader, bufferSize int) *Reader {
	if bufferSize <= 0 {
		bufferSize = DefaultReadBufferSize
	}
	return &Reader{
		r:     r,
		buf:   NewBuffer(make([]byte, 0, bufferSize)),
		chunk: make([]byte, bufferSize),
	}
}

// ReadFrame reads the next frame. A frame declaring more than maxFrameSize payload bytes
// fails with ErrFrameTooLarge before any of its payload is read.
//
// io.EOF is returned only at a frame boundary; a stream ending inside a frame yields
// io.ErrUnexpectedEOF.
func (r *Reader) ReadFrame(maxFrameSize int64) (Frame, error) {
	for {
		if err := r.parser.Frame(r.buf); err != nil {
			return Frame{}, err
		}
		if r.parser.BodyReady() {
			break
		}
		if err := r.fill(); err != nil {
			return Frame{}, err
		}
	}

	h := r.parser.Header()
	if maxFrameSize >= 0 && h.Length > uint64(maxFrameSize) {
		return Frame{}, fmt.Errorf("frame length %d exceeds %d: %w", h.Length, maxFrameSize, errors.ErrFrameTooLarge)
	}
	t := r.parser.Type()
	if t.IsControl() {
		if !h.Fin {
			return Frame{}, fmt.Errorf("fragmented %s frame: %w", t, errors.ErrInvalidControlFrame)
		}
		if h.Length > MaxControlPayload {
			return Frame{}, fmt.Errorf("%s frame payload %d bytes: %w", t, h.Length, errors.ErrInvalidControlFrame)
		}
	}

	for uint64(r.buf.Remaining()) < h.Length {
		if err := r.fill(); err != nil {
			return Frame{}, err
		}
	}
	data := make([]byte, h.Length)
	copy(data, r.buf.Next(int(h.Length)))
	if h.Masked {
		Mask(data, h.MaskKey, 0)
	}

	if err := r.parser.BodyComplete(); err != nil {
		return Frame{}, err
	}
	return Frame{
		Fin:  h.Fin,
		Rsv1: h.Rsv1,
		Rsv2: h.Rsv2,
		Rsv3: h.Rsv3,
		Type: t,
		Data: data,
	}, nil
}

func (r *Reader) fill() error {
	if r.err != nil {
		return r.eof(r.err)
	}
	n, err := r.r.Read(r.chunk)
	if n > 0 {
		r.buf.Write(r.chunk[:n])
	}
	if err != nil {
		r.err = err
		if n > 0 {
			return nil
		}
		return r.eof(err)
	}
	return nil
}

func (r *Reader) eof(err error) error {
	if err == io.EOF && (r.buf.Remaining() > 0 || r.parser.State() != StateHeader0) {
		return io.ErrUnexpectedEOF
	}
	return err
}
