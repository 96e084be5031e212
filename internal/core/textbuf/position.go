package textbuf

import "fmt"

// Bias decides which side of an insertion at the same offset a position
// ends up on.
type Bias int

const (
	// BiasBackward keeps the position before text inserted at its offset.
	BiasBackward Bias = iota
	// BiasForward moves the position past text inserted at its offset.
	BiasForward
)

// String returns the string representation of the bias.
func (b Bias) String() string {
	switch b {
	case BiasBackward:
		return "backward"
	case BiasForward:
		return "forward"
	default:
		return "unknown"
	}
}

// Position is a live offset into a Buffer. It is created by Buffer.Attach
// and stays valid until detached. The zero value is not usable.
type Position struct {
	buf  *Buffer
	off  int
	bias Bias
}

// Buffer returns the buffer p was attached to.
func (p *Position) Buffer() *Buffer {
	return p.buf
}

// Bias returns the position's bias.
func (p *Position) Bias() Bias {
	return p.bias
}

// Offset resolves the position against its buffer.
func (p *Position) Offset() (int, error) {
	if p == nil || p.buf == nil {
		return 0, ErrInvalidPosition
	}
	return p.buf.Resolve(p)
}

// MustOffset resolves the position and panics when it is no longer valid.
// Owners use it where a detached position means broken bookkeeping.
func (p *Position) MustOffset() int {
	off, err := p.Offset()
	if err != nil {
		panic(fmt.Sprintf("textbuf: resolve detached position: %v", err))
	}
	return off
}

// Attached reports whether p is still registered with its buffer.
func (p *Position) Attached() bool {
	_, err := p.Offset()
	return err == nil
}

// Detach releases the position from its buffer.
func (p *Position) Detach() {
	if p == nil || p.buf == nil {
		return
	}
	p.buf.Detach(p)
}
