package frame

import "encoding/binary"

// Buffer is a growable byte cursor fed with transport chunks and consumed by the Parser.
type Buffer struct {
	buf   []byte
	off   int
	order binary.ByteOrder
}

// NewBuffer returns a big-endian Buffer holding b.
func NewBuffer(b []byte) *Buffer {
	return NewBufferWithOrder(b, binary.BigEndian)
}

// NewBufferWithOrder returns a Buffer reporting the given byte order.
// The Parser only accepts big-endian buffers.
func NewBufferWithOrder(b []byte, order binary.ByteOrder) *Buffer {
	return &Buffer{buf: b, order: order}
}

func (b *Buffer) Order() binary.ByteOrder {
	return b.order
}

// Remaining returns the number of unread bytes.
func (b *Buffer) Remaining() int {
	return len(b.buf) - b.off
}

// Write appends p. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.off == len(b.buf) {
		b.buf = b.buf[:0]
		b.off = 0
	} else if b.off > 0 && b.off >= cap(b.buf)/2 {
		n := copy(b.buf, b.buf[b.off:])
		b.buf = b.buf[:n]
		b.off = 0
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Next consumes n bytes and returns them. The slice is only valid until the next Write.
func (b *Buffer) Next(n int) []byte {
	if n > b.Remaining() {
		n = b.Remaining()
	}
	p := b.buf[b.off : b.off+n]
	b.off += n
	return p
}

// Bytes returns the unread bytes without consuming them.
func (b *Buffer) Bytes() []byte {
	return b.buf[b.off:]
}
