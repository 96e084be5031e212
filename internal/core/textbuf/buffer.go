// Package textbuf provides a mutable text buffer whose attached positions
// follow the text as it is edited.
package textbuf

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"unicode/utf8"
)

// ErrInvalidPosition is returned when a position is detached, belongs to a
// different buffer, or an offset falls outside [0, Len()].
var ErrInvalidPosition = errors.New("invalid position")

// EditKind distinguishes insertions from deletions.
type EditKind int

const (
	EditInsert EditKind = iota
	EditDelete
)

// Edit describes a single buffer mutation. Offset and Length are in bytes.
type Edit struct {
	Kind   EditKind
	Offset int
	Length int
}

// Delta returns the change in buffer length caused by the edit.
func (e Edit) Delta() int {
	if e.Kind == EditDelete {
		return -e.Length
	}
	return e.Length
}

// Buffer is a UTF-8 text buffer with a registry of live positions.
//
// Mutation and position bookkeeping happen under one lock, so a Resolve
// never observes a half-applied edit. Callers that also need a stable view
// of the text across several calls must confine mutation to one goroutine.
type Buffer struct {
	mu        sync.RWMutex
	text      []byte
	positions map[*Position]struct{}
	listeners []*listener
}

type listener struct {
	fn func(Edit)
}

// New creates a buffer holding text.
func New(text string) *Buffer {
	return &Buffer{
		text:      []byte(text),
		positions: make(map[*Position]struct{}),
	}
}

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.text)
}

// String returns a copy of the full text.
func (b *Buffer) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.text)
}

// Slice returns the text in [start, end). Bounds are clamped to the buffer.
func (b *Buffer) Slice(start, end int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start = clamp(start, 0, len(b.text))
	end = clamp(end, start, len(b.text))
	return string(b.text[start:end])
}

// Positions returns the number of attached positions.
func (b *Buffer) Positions() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.positions)
}

// OnEdit registers fn to be called after every mutation and returns a
// function that removes it. Listeners run on the mutating goroutine after
// positions have been updated.
func (b *Buffer) OnEdit(fn func(Edit)) (cancel func()) {
	l := &listener{fn: fn}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.listeners = slices.DeleteFunc(b.listeners, func(x *listener) bool { return x == l })
	}
}

// Listeners returns the number of registered edit listeners.
func (b *Buffer) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Insert inserts s at offset.
func (b *Buffer) Insert(offset int, s string) error {
	if s == "" {
		return nil
	}

	b.mu.Lock()
	if offset < 0 || offset > len(b.text) {
		b.mu.Unlock()
		return fmt.Errorf("insert at %d (len %d): %w", offset, len(b.text), ErrInvalidPosition)
	}
	if !b.runeBoundary(offset) {
		b.mu.Unlock()
		return fmt.Errorf("insert at %d: inside a character: %w", offset, ErrInvalidPosition)
	}
	if !utf8.ValidString(s) {
		b.mu.Unlock()
		return fmt.Errorf("insert at %d: text is not valid UTF-8", offset)
	}

	n := len(s)
	grown := make([]byte, 0, len(b.text)+n)
	grown = append(grown, b.text[:offset]...)
	grown = append(grown, s...)
	grown = append(grown, b.text[offset:]...)
	b.text = grown

	for p := range b.positions {
		switch {
		case p.off > offset:
			p.off += n
		case p.off == offset && p.bias == BiasForward:
			p.off += n
		}
	}

	edit := Edit{Kind: EditInsert, Offset: offset, Length: n}
	listeners := b.snapshotListeners()
	b.mu.Unlock()

	notify(listeners, edit)
	return nil
}

// Delete removes n bytes starting at offset. A position inside the deleted
// range collapses to offset.
func (b *Buffer) Delete(offset, n int) error {
	if n == 0 {
		return nil
	}

	b.mu.Lock()
	if offset < 0 || n < 0 || offset+n > len(b.text) {
		b.mu.Unlock()
		return fmt.Errorf("delete [%d,%d) (len %d): %w", offset, offset+n, len(b.text), ErrInvalidPosition)
	}

	end := offset + n
	if !b.runeBoundary(offset) || !b.runeBoundary(end) {
		b.mu.Unlock()
		return fmt.Errorf("delete [%d,%d): splits a character: %w", offset, end, ErrInvalidPosition)
	}
	b.text = append(b.text[:offset], b.text[end:]...)

	for p := range b.positions {
		switch {
		case p.off >= end:
			p.off -= n
		case p.off > offset:
			p.off = offset
		}
	}

	edit := Edit{Kind: EditDelete, Offset: offset, Length: n}
	listeners := b.snapshotListeners()
	b.mu.Unlock()

	notify(listeners, edit)
	return nil
}

// runeBoundary reports whether i, in [0, len(text)], starts a character or
// ends the text. Callers hold the lock.
func (b *Buffer) runeBoundary(i int) bool {
	return i == len(b.text) || utf8.RuneStart(b.text[i])
}

// Replace swaps the whole text. Every attached position collapses to 0
// (deletion) and then follows its bias across the insertion.
func (b *Buffer) Replace(text string) error {
	if err := b.Delete(0, b.Len()); err != nil {
		return err
	}
	return b.Insert(0, text)
}

// Attach registers a new position at offset.
func (b *Buffer) Attach(offset int, bias Bias) (*Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 || offset > len(b.text) {
		return nil, fmt.Errorf("attach at %d (len %d): %w", offset, len(b.text), ErrInvalidPosition)
	}

	p := &Position{buf: b, off: offset, bias: bias}
	b.positions[p] = struct{}{}
	return p, nil
}

// Resolve returns the current offset of p.
func (b *Buffer) Resolve(p *Position) (int, error) {
	if p == nil {
		return 0, ErrInvalidPosition
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.positions[p]; !ok {
		return 0, ErrInvalidPosition
	}
	return p.off, nil
}

// Detach unregisters p. Detaching an already detached position is a no-op.
func (b *Buffer) Detach(p *Position) {
	if p == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.positions, p)
}

func (b *Buffer) snapshotListeners() []func(Edit) {
	if len(b.listeners) == 0 {
		return nil
	}
	out := make([]func(Edit), len(b.listeners))
	for i, l := range b.listeners {
		out[i] = l.fn
	}
	return out
}

func notify(listeners []func(Edit), e Edit) {
	for _, fn := range listeners {
		fn(e)
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
