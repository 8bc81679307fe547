/*
Package frame implements RFC 6455 framing: frame values, an incremental header parser that
survives arbitrary chunk boundaries, and a frame reader/writer pair over byte streams.
*/
package frame

import "fmt"

// Type is the frame type carried in the opcode bits.
type Type byte

const (
	TypeContinuation Type = 0x0
	TypeText         Type = 0x1
	TypeBinary       Type = 0x2
	TypeClose        Type = 0x8
	TypePing         Type = 0x9
	TypePong         Type = 0xA
)

// MaxControlPayload is the largest payload a control frame may carry.
const MaxControlPayload = 125

// TypeOf resolves a raw opcode. ok is false for reserved opcodes.
func TypeOf(opcode byte) (t Type, ok bool) {
	switch t := Type(opcode); t {
	case TypeContinuation, TypeText, TypeBinary, TypeClose, TypePing, TypePong:
		return t, true
	default:
		return 0, false
	}
}

// IsControl reports whether t is Close, Ping or Pong.
func (t Type) IsControl() bool {
	return t&0x8 != 0
}

func (t Type) String() string {
	switch t {
	case TypeContinuation:
		return "continuation"
	case TypeText:
		return "text"
	case TypeBinary:
		return "binary"
	case TypeClose:
		return "close"
	case TypePing:
		return "ping"
	case TypePong:
		return "pong"
	default:
		return fmt.Sprintf("opcode(0x%x)", byte(t))
	}
}
