package xio

import (
	"io"
	"sync/atomic"
)

// CountingReader counts the bytes read through it. Count is safe to call concurrently with Read.
type CountingReader struct {
	io.Reader
	n atomic.Uint64
}

func NewCountingReader(rd io.Reader) *CountingReader {
	return &CountingReader{
		Reader: rd,
	}
}

func (r *CountingReader) Read(bs []byte) (int, error) {
	n, err := r.Reader.Read(bs)
	r.n.Add(uint64(n))
	return n, err
}

func (r *CountingReader) Count() uint64 {
	return r.n.Load()
}

// CountingWriter counts the bytes written through it.
type CountingWriter struct {
	io.Writer
	n atomic.Uint64
}

func NewCountingWriter(wr io.Writer) *CountingWriter {
	return &CountingWriter{
		Writer: wr,
	}
}

func (w *CountingWriter) Write(bs []byte) (int, error) {
	n, err := w.Writer.Write(bs)
	w.n.Add(uint64(n))
	return n, err
}

func (w *CountingWriter) Count() uint64 {
	return w.n.Load()
}
