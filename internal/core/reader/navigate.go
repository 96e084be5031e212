package reader

import (
	"github.com/hay-kot/quire/internal/core/marks"
)

// JumpTo records the current position in the history and shows offset.
func (r *Reader) JumpTo(offset int) error {
	pos := r.location()
	if err := r.view.GoToOffset(offset); err != nil {
		pos.Detach()
		return err
	}
	r.hist.Push(pos)
	return nil
}

// JumpToPage records the current position in the history and shows page i.
func (r *Reader) JumpToPage(i int) error {
	pos := r.location()
	if err := r.view.GoToPage(i); err != nil {
		pos.Detach()
		return err
	}
	r.hist.Push(pos)
	return nil
}

// JumpToBookmark shows the position of b.
func (r *Reader) JumpToBookmark(b *marks.Bookmark) error {
	return r.JumpTo(b.Offset())
}

// Back returns to the previous history entry that differs from the current
// position. It reports false when there is none.
func (r *Reader) Back() bool {
	cur := r.view.Offset()
	if !r.hist.HasForward() {
		// Remember where we are so Forward can come back here.
		if e := r.hist.Entries(); len(e) == 0 || e[len(e)-1] != cur {
			r.hist.Push(r.location())
		}
	}

	for pos := r.hist.Back(); pos != nil; pos = r.hist.Back() {
		if off, err := pos.Offset(); err == nil && off != cur {
			return r.view.GoToOffset(off) == nil
		}
	}
	return false
}

// Forward moves to the next history entry that differs from the current
// position. It reports false when there is none.
func (r *Reader) Forward() bool {
	cur := r.view.Offset()
	for pos := r.hist.Forward(); pos != nil; pos = r.hist.Forward() {
		if off, err := pos.Offset(); err == nil && off != cur {
			return r.view.GoToOffset(off) == nil
		}
	}
	return false
}

// ToggleBookmark removes the bookmark at the current position, or adds one
// named name when there is none. It returns the added bookmark, or nil when
// one was removed.
func (r *Reader) ToggleBookmark(name string) (*marks.Bookmark, error) {
	off := r.view.Offset()
	if b := r.marks.BookmarkAt(off); b != nil {
		r.marks.RemoveBookmark(b)
		return nil, nil
	}
	return r.marks.AddBookmark(name, off)
}

// NextBookmark jumps to the first bookmark after the current position.
func (r *Reader) NextBookmark() bool {
	b := r.marks.NextBookmark(r.view.Offset())
	return b != nil && r.JumpToBookmark(b) == nil
}

// PrevBookmark jumps to the last bookmark before the current position.
func (r *Reader) PrevBookmark() bool {
	b := r.marks.PrevBookmark(r.view.Offset())
	return b != nil && r.JumpToBookmark(b) == nil
}

// HighlightMatch turns the current search match into an annotation.
func (r *Reader) HighlightMatch(color string) (*marks.Annotation, bool, error) {
	m, ok := r.view.Highlight()
	if !ok {
		return nil, false, nil
	}
	a, err := r.marks.AddAnnotation(m.Offset, m.End(), color)
	return a, err == nil, err
}
