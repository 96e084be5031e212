// Package marks stores bookmarks and annotations as live positions in a
// document so they survive re-layout and edits.
package marks

import (
	"errors"

	"github.com/google/uuid"

	"github.com/hay-kot/quire/internal/core/textbuf"
)

var (
	// ErrInvalidRange is returned for annotations whose start is after end.
	ErrInvalidRange = errors.New("annotation start is after end")
	// ErrForeignMark is returned when adding a mark owned by another store.
	ErrForeignMark = errors.New("mark belongs to another store")
)

// Bookmark is a named point in a document.
type Bookmark struct {
	ID   string
	Name string

	pos   *textbuf.Position
	want  int // offset used when (re)attaching
	seq   uint64
	store *Store
}

// NewBookmark returns a detached bookmark for offset. It is attached when
// added to a Store.
func NewBookmark(name string, offset int) *Bookmark {
	return &Bookmark{ID: uuid.NewString(), Name: name, want: offset}
}

// Offset returns the current offset, or the requested offset while the
// bookmark is detached.
func (b *Bookmark) Offset() int {
	if b.pos != nil {
		if off, err := b.pos.Offset(); err == nil {
			return off
		}
	}
	return b.want
}

// Attached reports whether the bookmark is tracking a live position.
func (b *Bookmark) Attached() bool {
	return b.pos != nil && b.pos.Attached()
}

// Label returns the name, or a placeholder for unnamed bookmarks.
func (b *Bookmark) Label() string {
	if b.Name != "" {
		return b.Name
	}
	return "(unnamed)"
}

// Annotation is a highlighted range of a document.
type Annotation struct {
	ID    string
	Color string
	Note  string

	start, end         *textbuf.Position
	wantStart, wantEnd int
	seq                uint64
	store              *Store
}

// NewAnnotation returns a detached annotation for [start, end).
func NewAnnotation(start, end int, color string) *Annotation {
	return &Annotation{ID: uuid.NewString(), Color: color, wantStart: start, wantEnd: end}
}

// Range returns the current [start, end) range. Edits can move the ends
// independently; when end falls before start the range collapses to an
// empty range at start.
func (a *Annotation) Range() (start, end int) {
	start, end = a.wantStart, a.wantEnd
	if a.start != nil {
		if off, err := a.start.Offset(); err == nil {
			start = off
		}
	}
	if a.end != nil {
		if off, err := a.end.Offset(); err == nil {
			end = off
		}
	}
	return start, max(start, end)
}

// Contains reports whether offset lies in the annotation. An empty range
// contains its start offset.
func (a *Annotation) Contains(offset int) bool {
	start, end := a.Range()
	if start == end {
		return offset == start
	}
	return offset >= start && offset < end
}

// Attached reports whether both ends track live positions.
func (a *Annotation) Attached() bool {
	return a.start != nil && a.start.Attached() && a.end != nil && a.end.Attached()
}
