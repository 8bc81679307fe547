package frame

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/aptpod/wsproto-go/errors"
)

// State is the position of the Parser inside a frame header.
type State int

const (
	// StateHeader0 waits for the 2-byte base header.
	StateHeader0 State = iota
	// StateLength waits for the 2 or 8 extended length bytes.
	StateLength
	// StateMaskKey waits for the 4-byte mask key.
	StateMaskKey
	// StateBody means the header is complete and the payload belongs to the caller.
	StateBody
)

func (s State) String() string {
	switch s {
	case StateHeader0:
		return "HEADER0"
	case StateLength:
		return "LENGTH"
	case StateMaskKey:
		return "MASK_KEY"
	case StateBody:
		return "BODY"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Parser decodes frame headers incrementally. Feed it a Buffer as bytes arrive; partially
// decoded header fields survive between calls.
//
// A Parser has a single writer: only the goroutine feeding it bytes may call its methods.
type Parser struct {
	state State

	fin  bool
	rsv1 bool
	rsv2 bool
	rsv3 bool
	mask bool

	opcode     byte
	lastOpcode byte

	lengthLength int
	length       uint64
	maskKey      uint32
	hasMaskKey   bool
}

// Frame applies Step until no further progress is possible with the bytes in b.
func (p *Parser) Frame(b *Buffer) error {
	if b.Order() != binary.BigEndian {
		return fmt.Errorf("got %v: %w", b.Order(), errors.ErrInvalidByteOrder)
	}
	for {
		progress, err := p.Step(b)
		if err != nil {
			return err
		}
		if !progress {
			return nil
		}
	}
}

// Step decodes at most one header field and reports whether it did.
func (p *Parser) Step(b *Buffer) (bool, error) {
	switch p.state {
	case StateHeader0:
		return p.parseHeader0(b)
	case StateLength:
		return p.parseLength(b)
	case StateMaskKey:
		return p.parseMaskKey(b)
	default:
		return false, nil
	}
}

// BodyReady reports whether the header is complete.
func (p *Parser) BodyReady() bool {
	return p.state == StateBody
}

// BodyComplete finishes the current frame and returns to StateHeader0. It fails with
// ErrIllegalState when called outside StateBody. The continuation opcode memory is kept.
func (p *Parser) BodyComplete() error {
	if p.state != StateBody {
		return fmt.Errorf("it should be state %s but it is %s: %w", StateBody, p.state, errors.ErrIllegalState)
	}
	p.state = StateHeader0

	p.opcode = 0
	p.length = 0
	p.lengthLength = 0
	p.maskKey = 0
	p.hasMaskKey = false
	return nil
}

func (p *Parser) State() State {
	return p.state
}

func (p *Parser) Fin() bool    { return p.fin }
func (p *Parser) Rsv1() bool   { return p.rsv1 }
func (p *Parser) Rsv2() bool   { return p.rsv2 }
func (p *Parser) Rsv3() bool   { return p.rsv3 }
func (p *Parser) Masked() bool { return p.mask }

// Length is the payload length. It is final once the state reached StateMaskKey or StateBody.
func (p *Parser) Length() uint64 {
	return p.length
}

// MaskKey returns the mask key; ok is false until one was decoded.
func (p *Parser) MaskKey() (key uint32, ok bool) {
	return p.maskKey, p.hasMaskKey
}

// Type returns the resolved frame type. Continuations resolve to the last data type.
func (p *Parser) Type() Type {
	return Type(p.opcode)
}

// Header returns the decoded header with the resolved opcode.
func (p *Parser) Header() Header {
	return Header{
		Fin:     p.fin,
		Rsv1:    p.rsv1,
		Rsv2:    p.rsv2,
		Rsv3:    p.rsv3,
		Opcode:  p.opcode,
		Masked:  p.mask,
		MaskKey: p.maskKey,
		Length:  p.length,
	}
}

func (p *Parser) parseHeader0(b *Buffer) (bool, error) {
	if b.Remaining() < 2 {
		return false, nil
	}
	hdr := b.Next(2)
	flagsAndOpcode, maskAndLength1 := hdr[0], hdr[1]

	raw := flagsAndOpcode & 0x0f
	opcode := raw
	if opcode == 0 {
		if p.lastOpcode == 0 {
			return false, errors.ErrUnexpectedContinuation
		}
		opcode = p.lastOpcode
	}
	t, ok := TypeOf(opcode)
	if !ok {
		return false, fmt.Errorf("opcode 0x%x: %w", raw, errors.ErrUnsupportedOpcode)
	}
	if !t.IsControl() {
		p.lastOpcode = opcode
	}

	p.fin = flagsAndOpcode&0x80 != 0
	p.rsv1 = flagsAndOpcode&0x40 != 0
	p.rsv2 = flagsAndOpcode&0x20 != 0
	p.rsv3 = flagsAndOpcode&0x10 != 0
	p.opcode = opcode

	p.mask = maskAndLength1&0x80 != 0
	length1 := maskAndLength1 & 0x7f

	switch length1 {
	case 126:
		p.lengthLength = 2
	case 127:
		p.lengthLength = 8
	default:
		p.lengthLength = 0
	}
	if p.lengthLength == 0 {
		p.length = uint64(length1)
	} else {
		p.length = 0
	}

	switch {
	case p.lengthLength > 0:
		p.state = StateLength
	case p.mask:
		p.state = StateMaskKey
	default:
		p.state = StateBody
	}
	return true, nil
}

func (p *Parser) parseLength(b *Buffer) (bool, error) {
	if b.Remaining() < p.lengthLength {
		return false, nil
	}
	switch p.lengthLength {
	case 2:
		p.length = uint64(binary.BigEndian.Uint16(b.Next(2))) & 0xffff
	case 8:
		p.length = binary.BigEndian.Uint64(b.Next(8))
		if p.length > math.MaxInt64 {
			return false, fmt.Errorf("payload length with most significant bit set: %w", errors.ErrProtocolViolation)
		}
	default:
		return false, fmt.Errorf("length length %d: %w", p.lengthLength, errors.ErrIllegalState)
	}

	if p.mask {
		p.state = StateMaskKey
	} else {
		p.state = StateBody
	}
	return true, nil
}

func (p *Parser) parseMaskKey(b *Buffer) (bool, error) {
	if b.Remaining() < 4 {
		return false, nil
	}
	p.maskKey = binary.BigEndian.Uint32(b.Next(4))
	p.hasMaskKey = true

	p.state = StateBody
	return true, nil
}
