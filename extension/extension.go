/*
Package extension defines the hook points for negotiated WebSocket extensions.

Negotiation itself happens during the HTTP upgrade and is out of scope; a session receives
the already-negotiated extensions in negotiation order when it starts.
*/
package extension

import "github.com/aptpod/wsproto-go/frame"

// Extension transforms data frames on their way out and in.
//
//go:generate mockgen -destination ./${GOPACKAGE}mock/${GOFILE} -package ${GOPACKAGE}mock -source ./${GOFILE}
type Extension interface {
	// Name returns the extension token, e.g. "permessage-deflate".
	Name() string

	// Rsv1, Rsv2 and Rsv3 report which reserved bits the extension claims.
	Rsv1() bool
	Rsv2() bool
	Rsv3() bool

	// ProcessOutgoing transforms a data frame before it is written.
	ProcessOutgoing(f frame.Frame) (frame.Frame, error)

	// ProcessIncoming transforms a data frame after it is parsed.
	ProcessIncoming(f frame.Frame) (frame.Frame, error)
}
