// Package reader ties a viewer to the per-document user state: bookmarks,
// annotations, navigation history, and the saved reading position.
package reader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/quire/internal/core/document"
	"github.com/hay-kot/quire/internal/core/history"
	"github.com/hay-kot/quire/internal/core/kv"
	"github.com/hay-kot/quire/internal/core/library"
	"github.com/hay-kot/quire/internal/core/loader"
	"github.com/hay-kot/quire/internal/core/logging"
	"github.com/hay-kot/quire/internal/core/marks"
	"github.com/hay-kot/quire/internal/core/textbuf"
	"github.com/hay-kot/quire/internal/core/viewer"
)

// QueryTTL is how long the last search query of a document is remembered.
const QueryTTL = 7 * 24 * time.Hour

// SavedPosition is the reading position persisted per document.
type SavedPosition struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// Reader owns the user state of the document shown by a viewer. Like the
// viewer it must only be used from the UI goroutine.
type Reader struct {
	view *viewer.Viewer
	hist *history.History
	lib  library.Store
	log  zerolog.Logger

	marks     *marks.Store
	observers []marks.Subscriber

	userdata  *kv.TypedKV[marks.Snapshot]
	positions *kv.TypedKV[SavedPosition]
	queries   *kv.TypedKV[string]
	lastQuery string
}

// New creates a reader around view. A nil store keeps user data in memory;
// a nil lib skips recording opened documents.
func New(view *viewer.Viewer, store kv.KV, lib library.Store) *Reader {
	if store == nil {
		store = kv.NewMemory()
	}

	r := &Reader{
		view:      view,
		hist:      history.New(),
		lib:       lib,
		log:       logging.Component("reader"),
		userdata:  kv.Scoped[marks.Snapshot](store, "userdata"),
		positions: kv.Scoped[SavedPosition](store, "position"),
		queries:   kv.Scoped[string](store, "search"),
	}
	r.marks = r.newMarks(view.Document())
	return r
}

// Viewer returns the viewer.
func (r *Reader) Viewer() *viewer.Viewer { return r.view }

// Marks returns the bookmark and annotation store of the current document.
// The store is replaced on every Install.
func (r *Reader) Marks() *marks.Store { return r.marks }

// History returns the navigation history.
func (r *Reader) History() *history.History { return r.hist }

// Document returns the current document.
func (r *Reader) Document() *document.Document { return r.view.Document() }

// LastQuery returns the remembered search query of the current document.
func (r *Reader) LastQuery() string { return r.lastQuery }

// OnMarksChange registers fn with the current and every future marks store.
func (r *Reader) OnMarksChange(fn marks.Subscriber) {
	r.observers = append(r.observers, fn)
	r.marks.Subscribe(fn)
}

func (r *Reader) newMarks(doc *document.Document) *marks.Store {
	s := marks.NewStore(doc)
	for _, fn := range r.observers {
		s.Subscribe(fn)
	}
	return s
}

// Install saves the state of the current document, hands doc to the viewer
// and restores doc's bookmarks, annotations and reading position. It reports
// false when the viewer rejects doc as stale.
func (r *Reader) Install(ctx context.Context, doc *document.Document, gen uint64) (bool, error) {
	if gen < r.view.Generation() {
		return false, nil
	}

	var errs []error
	if err := r.Save(ctx); err != nil {
		errs = append(errs, err)
	}

	if !r.view.Install(doc, gen) {
		return false, nil
	}

	r.hist.Clear()
	r.marks.Close()
	r.marks = r.newMarks(doc)
	r.lastQuery = ""

	if err := r.restore(ctx, doc); err != nil {
		errs = append(errs, err)
	}
	if err := r.record(ctx, doc); err != nil {
		errs = append(errs, err)
	}

	return true, errors.Join(errs...)
}

func (r *Reader) restore(ctx context.Context, doc *document.Document) error {
	id := doc.ID()
	if id == "" {
		return nil
	}

	snap, err := r.userdata.Get(ctx, id)
	switch {
	case kv.IsNotFound(err):
	case err != nil:
		return fmt.Errorf("restore user data: %w", err)
	default:
		n := r.marks.ApplySnapshot(snap)
		r.log.Debug().Str("doc_id", id).Int("restored", n).Msg("user data restored")
	}
	doc.ClearUserDataModified()

	pos, err := r.positions.Get(ctx, id)
	switch {
	case kv.IsNotFound(err):
	case err != nil:
		return fmt.Errorf("restore position: %w", err)
	default:
		if err := r.view.GoToOffset(min(pos.Offset, doc.Len())); err != nil {
			return fmt.Errorf("restore position: %w", err)
		}
	}

	q, err := r.queries.GetOr(ctx, id, "")
	if err != nil {
		return fmt.Errorf("restore query: %w", err)
	}
	r.lastQuery = q
	return nil
}

func (r *Reader) record(ctx context.Context, doc *document.Document) error {
	if r.lib == nil || doc.ID() == "" {
		return nil
	}
	return r.lib.RecordOpen(ctx, library.Entry{
		ID:          doc.ID(),
		Title:       doc.Title(),
		ContentType: doc.Metadata().ContentType,
		Bytes:       doc.Len(),
	}, time.Now())
}

// Save persists the reading position, the last search query and, when they
// changed, the bookmarks and annotations of the current document.
func (r *Reader) Save(ctx context.Context) error {
	doc := r.view.Document()
	id := doc.ID()
	if id == "" {
		return nil
	}

	if doc.UserDataModified() {
		snap := r.marks.Snapshot()
		var err error
		if snap.Empty() {
			err = r.userdata.Delete(ctx, id)
		} else {
			err = r.userdata.Set(ctx, id, snap)
		}
		if err != nil {
			return fmt.Errorf("save user data: %w", err)
		}
		doc.ClearUserDataModified()
	}

	if err := r.positions.Set(ctx, id, SavedPosition{Offset: r.view.Offset(), Length: doc.Len()}); err != nil {
		return fmt.Errorf("save position: %w", err)
	}

	if q := r.view.SearchQuery(); q != "" {
		r.lastQuery = q
		if err := r.queries.SetTTL(ctx, id, q, QueryTTL); err != nil {
			return fmt.Errorf("save query: %w", err)
		}
	}

	return nil
}

// Close saves and releases the per-document state.
func (r *Reader) Close(ctx context.Context) error {
	err := r.Save(ctx)
	r.hist.Clear()
	r.marks.Close()
	return err
}

// Open loads id through l, installs it and paginates it to completion in
// the calling goroutine.
func (r *Reader) Open(ctx context.Context, l *loader.Loader, id string) error {
	job := l.Start(ctx, id)
	doc, err := job.Run()
	if err != nil {
		return err
	}

	ok, err := r.Install(ctx, doc, job.Gen)
	if !ok {
		return fmt.Errorf("open %s: superseded by a newer load", id)
	}
	r.view.Finish()
	return err
}

// location attaches a history entry at the current reading position.
func (r *Reader) location() *textbuf.Position {
	pos, err := r.view.Document().Buffer().Attach(r.view.Offset(), textbuf.BiasBackward)
	if err != nil {
		panic(fmt.Sprintf("attach history entry: %v", err))
	}
	return pos
}
