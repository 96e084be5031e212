package marks

import (
	"github.com/hay-kot/quire/internal/core/logging"
)

// BookmarkRecord is the persisted form of a bookmark.
type BookmarkRecord struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Offset int    `json:"offset"`
}

// AnnotationRecord is the persisted form of an annotation.
type AnnotationRecord struct {
	ID    string `json:"id,omitempty"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Color string `json:"color,omitempty"`
	Note  string `json:"note,omitempty"`
}

// Snapshot is the persisted user data of one document.
type Snapshot struct {
	Bookmarks   []BookmarkRecord   `json:"bookmarks"`
	Annotations []AnnotationRecord `json:"annotations"`
}

// Empty reports whether the snapshot holds no marks.
func (s Snapshot) Empty() bool {
	return len(s.Bookmarks) == 0 && len(s.Annotations) == 0
}

// Snapshot captures the current offsets of every mark in iteration order.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Bookmarks:   make([]BookmarkRecord, 0, len(s.bookmarks)),
		Annotations: make([]AnnotationRecord, 0, len(s.annotations)),
	}

	for _, b := range s.Bookmarks() {
		snap.Bookmarks = append(snap.Bookmarks, BookmarkRecord{ID: b.ID, Name: b.Name, Offset: b.Offset()})
	}

	for _, a := range s.Annotations() {
		start, end := a.Range()
		snap.Annotations = append(snap.Annotations, AnnotationRecord{
			ID:    a.ID,
			Start: start,
			End:   end,
			Color: a.Color,
			Note:  a.Note,
		})
	}

	return snap
}

// ApplySnapshot replaces the store contents with snap, re-creating live positions
// from the recorded offsets. Records that no longer fit the document are
// skipped with a warning. Restoring does not mark user data as modified and
// publishes a single ChangeRestored. It returns the number of marks
// restored.
func (s *Store) ApplySnapshot(snap Snapshot) int {
	log := logging.Component("marks")

	for _, b := range s.bookmarks {
		s.detachBookmark(b)
	}
	for _, a := range s.annotations {
		s.detachAnnotation(a)
	}
	s.bookmarks, s.annotations = nil, nil

	restored := 0
	for _, rec := range snap.Bookmarks {
		b := NewBookmark(rec.Name, rec.Offset)
		if rec.ID != "" {
			b.ID = rec.ID
		}
		if _, err := s.add(b); err != nil {
			log.Warn().Err(err).Int("offset", rec.Offset).Msg("skipping bookmark")
			continue
		}
		restored++
	}

	for _, rec := range snap.Annotations {
		a := NewAnnotation(rec.Start, rec.End, rec.Color)
		a.Note = rec.Note
		if rec.ID != "" {
			a.ID = rec.ID
		}
		if _, err := s.addAnnotation(a); err != nil {
			log.Warn().Err(err).Int("start", rec.Start).Int("end", rec.End).Msg("skipping annotation")
			continue
		}
		restored++
	}

	s.publish(Change{Kind: ChangeRestored})
	return restored
}
