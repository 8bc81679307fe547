package frame

import (
	"encoding/binary"
	"fmt"
)

// CloseCode is a Close frame status code.
type CloseCode uint16

const (
	CloseNormal         CloseCode = 1000
	CloseGoingAway      CloseCode = 1001
	CloseProtocolError  CloseCode = 1002
	CloseCannotAccept   CloseCode = 1003
	CloseNoStatus       CloseCode = 1005 // never sent on the wire
	CloseAbnormal       CloseCode = 1006 // never sent on the wire
	CloseNotConsistent  CloseCode = 1007
	CloseViolatedPolicy CloseCode = 1008
	CloseTooBig         CloseCode = 1009
	CloseNoExtension    CloseCode = 1010
	CloseInternalError  CloseCode = 1011
	CloseServiceRestart CloseCode = 1012
	CloseTryAgainLater  CloseCode = 1013
)

var closeCodeNames = map[CloseCode]string{
	CloseNormal:         "NORMAL",
	CloseGoingAway:      "GOING_AWAY",
	CloseProtocolError:  "PROTOCOL_ERROR",
	CloseCannotAccept:   "CANNOT_ACCEPT",
	CloseNoStatus:       "NO_STATUS",
	CloseAbnormal:       "CLOSED_ABNORMALLY",
	CloseNotConsistent:  "NOT_CONSISTENT",
	CloseViolatedPolicy: "VIOLATED_POLICY",
	CloseTooBig:         "TOO_BIG",
	CloseNoExtension:    "NO_EXTENSION",
	CloseInternalError:  "INTERNAL_ERROR",
	CloseServiceRestart: "SERVICE_RESTART",
	CloseTryAgainLater:  "TRY_AGAIN_LATER",
}

// Known reports whether c is one of the codes defined above.
func (c CloseCode) Known() bool {
	_, ok := closeCodeNames[c]
	return ok
}

func (c CloseCode) String() string {
	if s, ok := closeCodeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("%d", uint16(c))
}

// CloseReason is the status carried by a Close frame.
type CloseReason struct {
	Code    CloseCode
	Message string
}

// ParseCloseReason decodes a Close payload. Payloads shorter than two bytes carry no reason.
func ParseCloseReason(payload []byte) (CloseReason, bool) {
	if len(payload) < 2 {
		return CloseReason{}, false
	}
	return CloseReason{
		Code:    CloseCode(binary.BigEndian.Uint16(payload)),
		Message: string(payload[2:]),
	}, true
}

// Bytes encodes r as a Close payload.
func (r CloseReason) Bytes() []byte {
	b := make([]byte, 2, 2+len(r.Message))
	binary.BigEndian.PutUint16(b, uint16(r.Code))
	return append(b, r.Message...)
}

func (r CloseReason) String() string {
	return fmt.Sprintf("CloseReason(reason=%s, message=%s)", r.Code, r.Message)
}
