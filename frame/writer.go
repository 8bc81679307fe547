package frame

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"io"
)

// DefaultWriteBufferSize is the size of the Writer's output buffer.
const DefaultWriteBufferSize = 4096

// Writer serializes frames to a byte stream. Frames are buffered until Flush.
type Writer struct {
	w       *bufio.Writer
	masking bool
	maskKey func() uint32
	hdr     []byte

	// fragmented is set while a data message is open (last data frame had Fin=false).
	fragmented bool
}

// NewWriter returns a Writer. Clients must pass masking=true.
func NewWriter(w io.Writer, masking bool) *Writer {
	return &Writer{
		w:       bufio.NewWriterSize(w, DefaultWriteBufferSize),
		masking: masking,
		maskKey: RandomMaskKey,
		hdr:     make([]byte, 0, MaxHeaderSize),
	}
}

// SetMaskKeySource replaces the mask key generator.
func (w *Writer) SetMaskKeySource(f func() uint32) {
	w.maskKey = f
}

// WriteFrame writes f. Data frames following a non-final data frame go out with the
// continuation opcode; control frames may interleave without affecting that.
func (w *Writer) WriteFrame(f Frame) error {
	opcode := byte(f.Type)
	if !f.Type.IsControl() {
		if w.fragmented {
			opcode = byte(TypeContinuation)
		}
		w.fragmented = !f.Fin
	}

	h := Header{
		Fin:    f.Fin,
		Rsv1:   f.Rsv1,
		Rsv2:   f.Rsv2,
		Rsv3:   f.Rsv3,
		Opcode: opcode,
		Masked: w.masking,
		Length: uint64(len(f.Data)),
	}
	if w.masking {
		h.MaskKey = w.maskKey()
	}
	w.hdr = AppendHeader(w.hdr[:0], h)
	if _, err := w.w.Write(w.hdr); err != nil {
		return err
	}
	if !w.masking {
		_, err := w.w.Write(f.Data)
		return err
	}

	var chunk [512]byte
	pos := 0
	for pos < len(f.Data) {
		n := copy(chunk[:], f.Data[pos:])
		Mask(chunk[:n], h.MaskKey, pos)
		if _, err := w.w.Write(chunk[:n]); err != nil {
			return err
		}
		pos += n
	}
	return nil
}

// Flush writes buffered frames to the underlying stream.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Buffered returns the number of bytes waiting for Flush.
func (w *Writer) Buffered() int {
	return w.w.Buffered()
}

// RandomMaskKey returns a mask key from crypto/rand.
func RandomMaskKey() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return binary.BigEndian.Uint32(b[:])
}
