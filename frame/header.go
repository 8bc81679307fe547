package frame

import "encoding/binary"

// Header is the decoded wire header of a frame.
type Header struct {
	Fin     bool
	Rsv1    bool
	Rsv2    bool
	Rsv3    bool
	Opcode  byte
	Masked  bool
	MaskKey uint32
	Length  uint64
}

// MaxHeaderSize is the size of the longest possible header: 2 + 8 length bytes + 4 mask bytes.
const MaxHeaderSize = 14

// AppendHeader encodes h to dst using the shortest length encoding.
func AppendHeader(dst []byte, h Header) []byte {
	var b0 byte
	if h.Fin {
		b0 |= 0x80
	}
	if h.Rsv1 {
		b0 |= 0x40
	}
	if h.Rsv2 {
		b0 |= 0x20
	}
	if h.Rsv3 {
		b0 |= 0x10
	}
	b0 |= h.Opcode & 0x0f

	var b1 byte
	if h.Masked {
		b1 = 0x80
	}

	switch {
	case h.Length <= 125:
		dst = append(dst, b0, b1|byte(h.Length))
	case h.Length <= 0xffff:
		dst = append(dst, b0, b1|126)
		dst = binary.BigEndian.AppendUint16(dst, uint16(h.Length))
	default:
		dst = append(dst, b0, b1|127)
		dst = binary.BigEndian.AppendUint64(dst, h.Length)
	}
	if h.Masked {
		dst = binary.BigEndian.AppendUint32(dst, h.MaskKey)
	}
	return dst
}
