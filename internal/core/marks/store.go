package marks

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/hay-kot/quire/internal/core/textbuf"
)

// Host is the document a store attaches positions to.
type Host interface {
	Buffer() *textbuf.Buffer
	SetUserDataModified()
}

// ChangeKind identifies what happened to a store.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeRemoved
	ChangeCleared
	ChangeRestored
)

// String returns the string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeCleared:
		return "cleared"
	case ChangeRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// Change describes one store mutation. At most one of Bookmark and
// Annotation is set; aggregate changes set neither.
type Change struct {
	Kind       ChangeKind
	Bookmark   *Bookmark
	Annotation *Annotation
}

// Subscriber is a callback invoked after every store mutation.
type Subscriber func(Change)

// Store holds the bookmarks and annotations of one document. It is meant to
// be used from a single goroutine, the one that mutates the document.
type Store struct {
	host        Host
	bookmarks   []*Bookmark
	annotations []*Annotation
	seq         uint64
	subscribers []Subscriber
}

// NewStore creates an empty store for host.
func NewStore(host Host) *Store {
	return &Store{host: host}
}

// Subscribe registers fn for change notifications.
func (s *Store) Subscribe(fn Subscriber) {
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) publish(c Change) {
	for _, fn := range s.subscribers {
		fn(c)
	}
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// AddBookmark creates a bookmark at offset and adds it.
func (s *Store) AddBookmark(name string, offset int) (*Bookmark, error) {
	b := NewBookmark(name, offset)
	if err := s.Add(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Add attaches b to the document and adds it to the store. Adding a
// bookmark that is already a member is a no-op.
func (s *Store) Add(b *Bookmark) error {
	added, err := s.add(b)
	if err != nil || !added {
		return err
	}
	s.host.SetUserDataModified()
	s.publish(Change{Kind: ChangeAdded, Bookmark: b})
	return nil
}

// add reports whether b was newly attached.
func (s *Store) add(b *Bookmark) (bool, error) {
	if b.store == s {
		return false, nil
	}
	if b.store != nil {
		return false, ErrForeignMark
	}

	pos, err := s.host.Buffer().Attach(b.want, textbuf.BiasForward)
	if err != nil {
		return false, fmt.Errorf("attach bookmark %q: %w", b.Name, err)
	}

	b.pos = pos
	b.seq = s.nextSeq()
	b.store = s
	s.bookmarks = append(s.bookmarks, b)
	return true, nil
}

// RemoveBookmark detaches b and removes it. Removing a bookmark that is
// not a member is a no-op.
func (s *Store) RemoveBookmark(b *Bookmark) {
	if b == nil || b.store != s {
		return
	}

	s.bookmarks = slices.DeleteFunc(s.bookmarks, func(x *Bookmark) bool { return x == b })
	s.detachBookmark(b)
	s.host.SetUserDataModified()
	s.publish(Change{Kind: ChangeRemoved, Bookmark: b})
}

func (s *Store) detachBookmark(b *Bookmark) {
	b.want = b.Offset()
	b.pos.Detach()
	b.pos = nil
	b.store = nil
}

// Bookmarks returns the bookmarks ordered by current offset, ties broken by
// insertion order.
func (s *Store) Bookmarks() []*Bookmark {
	out := slices.Clone(s.bookmarks)
	slices.SortStableFunc(out, func(a, b *Bookmark) int {
		return cmp.Or(cmp.Compare(a.Offset(), b.Offset()), cmp.Compare(a.seq, b.seq))
	})
	return out
}

// BookmarkCount returns the number of bookmarks.
func (s *Store) BookmarkCount() int { return len(s.bookmarks) }

// BookmarkAt returns the last bookmark, in iteration order, located at
// offset.
func (s *Store) BookmarkAt(offset int) *Bookmark {
	var found *Bookmark
	for _, b := range s.Bookmarks() {
		if b.Offset() == offset {
			found = b
		}
	}
	return found
}

// BookmarkByID looks up a bookmark by ID.
func (s *Store) BookmarkByID(id string) *Bookmark {
	for _, b := range s.bookmarks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// NextBookmark returns the first bookmark after offset.
func (s *Store) NextBookmark(offset int) *Bookmark {
	for _, b := range s.Bookmarks() {
		if b.Offset() > offset {
			return b
		}
	}
	return nil
}

// PrevBookmark returns the last bookmark before offset.
func (s *Store) PrevBookmark(offset int) *Bookmark {
	var found *Bookmark
	for _, b := range s.Bookmarks() {
		if b.Offset() >= offset {
			break
		}
		found = b
	}
	return found
}

// ClearBookmarks detaches and removes every bookmark with a single
// notification.
func (s *Store) ClearBookmarks() {
	if len(s.bookmarks) == 0 {
		return
	}
	for _, b := range s.bookmarks {
		s.detachBookmark(b)
	}
	s.bookmarks = nil
	s.host.SetUserDataModified()
	s.publish(Change{Kind: ChangeCleared})
}

// AddAnnotation creates an annotation over [start, end) and adds it.
func (s *Store) AddAnnotation(start, end int, color string) (*Annotation, error) {
	a := NewAnnotation(start, end, color)
	if err := s.AddAnnotationValue(a); err != nil {
		return nil, err
	}
	return a, nil
}

// AddAnnotationValue attaches a and adds it. Adding an annotation that is
// already a member is a no-op.
func (s *Store) AddAnnotationValue(a *Annotation) error {
	added, err := s.addAnnotation(a)
	if err != nil || !added {
		return err
	}
	s.host.SetUserDataModified()
	s.publish(Change{Kind: ChangeAdded, Annotation: a})
	return nil
}

func (s *Store) addAnnotation(a *Annotation) (bool, error) {
	if a.store == s {
		return false, nil
	}
	if a.store != nil {
		return false, ErrForeignMark
	}
	if a.wantStart > a.wantEnd {
		return false, fmt.Errorf("annotation [%d,%d): %w", a.wantStart, a.wantEnd, ErrInvalidRange)
	}

	buf := s.host.Buffer()
	start, err := buf.Attach(a.wantStart, textbuf.BiasForward)
	if err != nil {
		return false, fmt.Errorf("attach annotation start: %w", err)
	}
	end, err := buf.Attach(a.wantEnd, textbuf.BiasBackward)
	if err != nil {
		start.Detach()
		return false, fmt.Errorf("attach annotation end: %w", err)
	}

	a.start, a.end = start, end
	a.seq = s.nextSeq()
	a.store = s
	s.annotations = append(s.annotations, a)
	return true, nil
}

// RemoveAnnotation detaches a and removes it. Removing a non-member is a
// no-op.
func (s *Store) RemoveAnnotation(a *Annotation) {
	if a == nil || a.store != s {
		return
	}

	s.annotations = slices.DeleteFunc(s.annotations, func(x *Annotation) bool { return x == a })
	s.detachAnnotation(a)
	s.host.SetUserDataModified()
	s.publish(Change{Kind: ChangeRemoved, Annotation: a})
}

func (s *Store) detachAnnotation(a *Annotation) {
	a.wantStart, a.wantEnd = a.Range()
	a.start.Detach()
	a.end.Detach()
	a.start, a.end = nil, nil
	a.store = nil
}

// Annotations returns the annotations ordered by start, then end, then
// insertion order.
func (s *Store) Annotations() []*Annotation {
	out := slices.Clone(s.annotations)
	slices.SortStableFunc(out, func(a, b *Annotation) int {
		as, ae := a.Range()
		bs, be := b.Range()
		return cmp.Or(cmp.Compare(as, bs), cmp.Compare(ae, be), cmp.Compare(a.seq, b.seq))
	})
	return out
}

// AnnotationCount returns the number of annotations.
func (s *Store) AnnotationCount() int { return len(s.annotations) }

// AnnotationAt returns the last annotation, in iteration order, whose range
// contains offset.
func (s *Store) AnnotationAt(offset int) *Annotation {
	var found *Annotation
	for _, a := range s.Annotations() {
		if a.Contains(offset) {
			found = a
		}
	}
	return found
}

// AnnotationsIn returns the annotations overlapping [start, end) in
// iteration order.
func (s *Store) AnnotationsIn(start, end int) []*Annotation {
	var out []*Annotation
	for _, a := range s.Annotations() {
		as, ae := a.Range()
		if as < end && (ae > start || (as == ae && as >= start)) {
			out = append(out, a)
		}
	}
	return out
}

// ClearAnnotations detaches and removes every annotation with a single
// notification.
func (s *Store) ClearAnnotations() {
	if len(s.annotations) == 0 {
		return
	}
	for _, a := range s.annotations {
		s.detachAnnotation(a)
	}
	s.annotations = nil
	s.host.SetUserDataModified()
	s.publish(Change{Kind: ChangeCleared})
}

// Close detaches every mark without notifying subscribers or touching the
// user-data flag. Used when the document is being replaced.
func (s *Store) Close() {
	for _, b := range s.bookmarks {
		s.detachBookmark(b)
	}
	for _, a := range s.annotations {
		s.detachAnnotation(a)
	}
	s.bookmarks, s.annotations = nil, nil
}
