// Package history implements browser-style navigation history over live
// document positions.
package history

import "github.com/hay-kot/quire/internal/core/textbuf"

// History is a linear list of positions with a cursor in [0, Len()].
// Entries before the cursor are reachable with Back, entries at and after
// it with Forward. History owns its positions and detaches them when they
// are discarded.
type History struct {
	entries []*textbuf.Position
	cursor  int
}

// New returns an empty history.
func New() *History {
	return &History{}
}

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// Cursor returns the cursor index.
func (h *History) Cursor() int { return h.cursor }

// HasBack reports whether Back would return an entry.
func (h *History) HasBack() bool { return h.cursor > 0 }

// HasForward reports whether Forward would return an entry.
func (h *History) HasForward() bool { return h.cursor < len(h.entries) }

// Push discards every entry after the cursor, appends pos and moves the
// cursor past it.
func (h *History) Push(pos *textbuf.Position) {
	h.truncate(h.cursor)
	h.entries = append(h.entries, pos)
	h.cursor = len(h.entries)
}

// Back moves the cursor back one entry and returns it, or nil at the start.
func (h *History) Back() *textbuf.Position {
	if !h.HasBack() {
		return nil
	}
	h.cursor--
	return h.entries[h.cursor]
}

// Forward returns the entry at the cursor and advances past it, or nil at
// the end.
func (h *History) Forward() *textbuf.Position {
	if !h.HasForward() {
		return nil
	}
	pos := h.entries[h.cursor]
	h.cursor++
	return pos
}

// Entries returns the current offsets of all entries. Detached entries
// report -1.
func (h *History) Entries() []int {
	out := make([]int, len(h.entries))
	for i, p := range h.entries {
		off, err := p.Offset()
		if err != nil {
			off = -1
		}
		out[i] = off
	}
	return out
}

// Clear detaches every entry and resets to the initial state.
func (h *History) Clear() {
	h.truncate(0)
	h.cursor = 0
}

func (h *History) truncate(n int) {
	for _, p := range h.entries[n:] {
		p.Detach()
	}
	clear(h.entries[n:])
	h.entries = h.entries[:n]
}
