package frame

import (
	"fmt"

	"github.com/aptpod/wsproto-go/errors"
)

// Frame is one decoded WebSocket frame. Data is always the unmasked payload.
//
// Frames decoded from a continuation carry the type of the message they continue;
// Fin tells whether the message is complete.
type Frame struct {
	Fin  bool
	Rsv1 bool
	Rsv2 bool
	Rsv3 bool
	Type Type
	Data []byte
}

func NewText(s string) Frame {
	return Frame{Fin: true, Type: TypeText, Data: []byte(s)}
}

func NewBinary(fin bool, data []byte) Frame {
	return Frame{Fin: fin, Type: TypeBinary, Data: data}
}

func NewPing(data []byte) Frame {
	return Frame{Fin: true, Type: TypePing, Data: data}
}

func NewPong(data []byte) Frame {
	return Frame{Fin: true, Type: TypePong, Data: data}
}

// NewClose returns a Close frame carrying reason.
func NewClose(reason CloseReason) Frame {
	return Frame{Fin: true, Type: TypeClose, Data: reason.Bytes()}
}

// NewCloseEmpty returns a Close frame without status code.
func NewCloseEmpty() Frame {
	return Frame{Fin: true, Type: TypeClose}
}

// Validate checks the control frame invariants: not fragmented and at most 125 bytes.
func (f Frame) Validate() error {
	if !f.Type.IsControl() {
		return nil
	}
	if !f.Fin {
		return fmt.Errorf("fragmented %s frame: %w", f.Type, errors.ErrInvalidControlFrame)
	}
	if len(f.Data) > MaxControlPayload {
		return fmt.Errorf("%s frame payload %d bytes: %w", f.Type, len(f.Data), errors.ErrInvalidControlFrame)
	}
	return nil
}

// CloseReason parses the payload of a Close frame.
func (f Frame) CloseReason() (CloseReason, bool) {
	if f.Type != TypeClose {
		return CloseReason{}, false
	}
	return ParseCloseReason(f.Data)
}

func (f Frame) String() string {
	return fmt.Sprintf("Frame %s (fin=%v, rsv=%v%v%v, length=%d)", f.Type, f.Fin, b2i(f.Rsv1), b2i(f.Rsv2), b2i(f.Rsv3), len(f.Data))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
