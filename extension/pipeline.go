package extension

import (
	"fmt"

	"github.com/aptpod/wsproto-go/errors"
	"github.com/aptpod/wsproto-go/frame"
)

// Pipeline applies a fixed list of extensions: negotiation order for outgoing frames and
// reverse order for incoming frames. Control frames are never transformed.
type Pipeline struct {
	exts             []Extension
	rsv1, rsv2, rsv3 bool
}

// NewPipeline builds a Pipeline. Two extensions claiming the same reserved bit is an error.
func NewPipeline(exts ...Extension) (*Pipeline, error) {
	p := &Pipeline{exts: append([]Extension(nil), exts...)}
	for _, ext := range p.exts {
		if (ext.Rsv1() && p.rsv1) || (ext.Rsv2() && p.rsv2) || (ext.Rsv3() && p.rsv3) {
			return nil, fmt.Errorf("extension %q claims a reserved bit already in use: %w", ext.Name(), errors.ErrExtensionConflict)
		}
		p.rsv1 = p.rsv1 || ext.Rsv1()
		p.rsv2 = p.rsv2 || ext.Rsv2()
		p.rsv3 = p.rsv3 || ext.Rsv3()
	}
	return p, nil
}

// Extensions returns the extensions in negotiation order.
func (p *Pipeline) Extensions() []Extension {
	return append([]Extension(nil), p.exts...)
}

// Encode runs f through every extension in negotiation order.
func (p *Pipeline) Encode(f frame.Frame) (frame.Frame, error) {
	if f.Type.IsControl() {
		return f, nil
	}
	for _, ext := range p.exts {
		var err error
		if f, err = ext.ProcessOutgoing(f); err != nil {
			return f, &errors.ExtensionError{Extension: ext.Name(), Outgoing: true, Err: err}
		}
	}
	return f, nil
}

// Decode runs f through every extension in reverse negotiation order.
func (p *Pipeline) Decode(f frame.Frame) (frame.Frame, error) {
	if f.Type.IsControl() {
		return f, nil
	}
	for i := len(p.exts) - 1; i >= 0; i-- {
		var err error
		if f, err = p.exts[i].ProcessIncoming(f); err != nil {
			return f, &errors.ExtensionError{Extension: p.exts[i].Name(), Err: err}
		}
	}
	return f, nil
}

// CheckRsv rejects frames carrying a reserved bit that no extension claimed.
func (p *Pipeline) CheckRsv(f frame.Frame) error {
	if (f.Rsv1 && !p.rsv1) || (f.Rsv2 && !p.rsv2) || (f.Rsv3 && !p.rsv3) {
		return fmt.Errorf("%v: %w", f, errors.ErrReservedBits)
	}
	return nil
}
