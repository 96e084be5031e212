// Package viewer holds the paged view of the current document: which pages
// are visible, how they are laid out and where the reader is. A Viewer is
// owned by the UI goroutine; only the progress bus may be shared.
package viewer

import (
	"errors"
	"fmt"

	"github.com/hay-kot/quire/internal/core/document"
	"github.com/hay-kot/quire/internal/core/layout"
	"github.com/hay-kot/quire/internal/core/logging"
	"github.com/hay-kot/quire/internal/core/progress"
	"github.com/hay-kot/quire/internal/core/search"
	"github.com/hay-kot/quire/internal/core/textbuf"
)

// ErrInvalidDisplayCount is returned for display page counts outside
// [MinDisplayPages, MaxDisplayPages].
var ErrInvalidDisplayCount = errors.New("display page count out of range")

const (
	MinDisplayPages = 1
	MaxDisplayPages = 3

	// Gutter is the number of columns between pages shown side by side.
	Gutter = 2
)

// Cause says why the current page changed.
type Cause int

const (
	CauseNavigate Cause = iota
	CauseSearch
	CauseLayout
	CauseLoad
)

// String returns the string representation of the cause.
func (c Cause) String() string {
	switch c {
	case CauseNavigate:
		return "navigate"
	case CauseSearch:
		return "search"
	case CauseLayout:
		return "layout"
	case CauseLoad:
		return "load"
	default:
		return "unknown"
	}
}

// PageChange is delivered to OnPageChange listeners.
type PageChange struct {
	From  int
	To    int
	Cause Cause
}

// Options configure a Viewer.
type Options struct {
	DisplayPages int
	Zoom         float64
	TabWidth     int
	// Chunk is the number of hard lines laid out per StepPagination call.
	// Zero lays out the whole document in one step.
	Chunk int
}

// DefaultOptions returns the viewer defaults.
func DefaultOptions() Options {
	return Options{DisplayPages: 1, Zoom: 1.0, TabWidth: 4, Chunk: 500}
}

// Viewer shows a document as pages.
type Viewer struct {
	doc *document.Document
	gen uint64

	pag     *layout.Paginator
	bus     *progress.Bus
	cursor  *search.Cursor
	display int
	chunk   int
	width   int
	height  int

	page int
	// anchor tracks the reading position across re-layout; pending is set
	// while the pass has not reached it yet.
	anchor     *textbuf.Position
	pending    bool
	paginating bool
	unwatch    func()

	listeners []func(PageChange)
}

// New creates a viewer showing an empty document. A nil bus disables
// progress events.
func New(opts Options, bus *progress.Bus) *Viewer {
	if bus == nil {
		bus = progress.NewBus()
	}
	v := &Viewer{
		pag:     layout.New(layout.Options{Zoom: opts.Zoom, TabWidth: opts.TabWidth}),
		bus:     bus,
		cursor:  search.NewCursor(),
		display: clampDisplay(opts.DisplayPages),
		chunk:   opts.Chunk,
	}
	v.attach(document.Empty(), 0)
	return v
}

// Bus returns the progress bus.
func (v *Viewer) Bus() *progress.Bus { return v.bus }

// Document returns the installed document.
func (v *Viewer) Document() *document.Document { return v.doc }

// Generation returns the load generation of the installed document.
func (v *Viewer) Generation() uint64 { return v.gen }

// Layout returns the paginator for read-only queries.
func (v *Viewer) Layout() *layout.Paginator { return v.pag }

// OnPageChange registers fn for page change notifications.
func (v *Viewer) OnPageChange(fn func(PageChange)) {
	v.listeners = append(v.listeners, fn)
}

// Install replaces the document and starts paginating it. Results from a
// generation older than the installed one are ignored and Install reports
// false. Install publishes ConstructFinished; the caller then drives
// StepPagination until it reports done.
func (v *Viewer) Install(doc *document.Document, gen uint64) bool {
	if gen < v.gen {
		log := logging.Component("viewer")
		log.Debug().
			Uint64("gen", gen).
			Uint64("installed", v.gen).
			Msg("ignoring stale document")
		return false
	}

	from := v.page
	v.attach(doc, gen)
	v.bus.Publish(progress.Event{Kind: progress.ConstructFinished, DocID: doc.ID(), Gen: gen})
	v.relayout()
	v.notify(PageChange{From: from, To: 0, Cause: CauseLoad})
	return true
}

func (v *Viewer) attach(doc *document.Document, gen uint64) {
	if v.anchor != nil {
		v.anchor.Detach()
	}
	if v.unwatch != nil {
		v.unwatch()
	}

	v.doc = doc
	v.gen = gen
	v.page = 0
	v.cursor.Reset()

	anchor, err := doc.Buffer().Attach(0, textbuf.BiasBackward)
	if err != nil {
		panic(fmt.Sprintf("attach anchor to new document: %v", err))
	}
	v.anchor = anchor

	v.unwatch = doc.Buffer().OnEdit(func(textbuf.Edit) { v.relayout() })
}

// relayout restarts pagination, keeping the anchor.
func (v *Viewer) relayout() {
	v.pag.Begin(v.doc, v.pageViewport())
	v.paginating = true
	v.pending = true
}

// Paginating reports whether StepPagination has more work to do.
func (v *Viewer) Paginating() bool { return v.paginating }

// Progress returns the laid out and total byte counts of the current pass.
func (v *Viewer) Progress() (current, total int) { return v.pag.Progress() }

// StepPagination advances the pass of generation gen by one chunk and
// reports whether it is done. Steps for a stale generation do nothing and
// report done.
func (v *Viewer) StepPagination(gen uint64) bool {
	if gen != v.gen || !v.paginating {
		return true
	}

	done := v.pag.Step(v.chunk)
	v.resolveAnchor(done)

	cur, total := v.pag.Progress()
	if !done {
		v.bus.Publish(progress.Event{
			Kind:    progress.PaginateProgress,
			DocID:   v.doc.ID(),
			Gen:     v.gen,
			Current: cur,
			Max:     total,
		})
		return false
	}

	v.paginating = false
	v.bus.Publish(progress.Event{
		Kind:    progress.PaginateFinished,
		DocID:   v.doc.ID(),
		Gen:     v.gen,
		Current: total,
		Max:     total,
	})
	return true
}

// Finish runs the current pass to completion.
func (v *Viewer) Finish() {
	for !v.StepPagination(v.gen) {
	}
}

func (v *Viewer) resolveAnchor(done bool) {
	if !v.pending {
		return
	}

	i, err := v.pag.PageIndexOf(v.anchor.MustOffset())
	switch {
	case err == nil:
	case errors.Is(err, layout.ErrPaginationPending) && !done:
		return
	default:
		i = max(min(v.page, v.pag.PageCount()-1), 0)
	}

	v.pending = false
	if i != v.page {
		from := v.page
		v.page = i
		v.notify(PageChange{From: from, To: i, Cause: CauseLayout})
	}
}

func (v *Viewer) notify(c PageChange) {
	for _, fn := range v.listeners {
		fn(c)
	}
}

// PageCount returns the number of pages laid out so far.
func (v *Viewer) PageCount() int { return v.pag.PageCount() }

// Page returns the current logical page.
func (v *Viewer) Page() int { return v.page }

// Offset returns the reading position: the first offset of the current page
// as of the last navigation.
func (v *Viewer) Offset() int { return v.anchor.MustOffset() }

// PageStartOffset returns the first offset of the current page, falling
// back to the reading position while the page is not laid out.
func (v *Viewer) PageStartOffset() int {
	if off, err := v.pag.PageStartOffset(v.page); err == nil && !v.pending {
		return off
	}
	return v.Offset()
}

// DisplayPageCount returns the number of pages shown side by side.
func (v *Viewer) DisplayPageCount() int { return v.display }

// CurrentSet returns the display set holding the current page.
func (v *Viewer) CurrentSet() int {
	return v.pag.DisplaySetOf(v.page, v.display)
}

// VisiblePages returns the logical pages of the current display set.
func (v *Viewer) VisiblePages() []int {
	return v.pag.PagesInSet(v.CurrentSet(), v.display)
}

// IsPageVisible reports whether logical page i is on screen.
func (v *Viewer) IsPageVisible(i int) bool {
	return v.pag.IsPageVisible(i, v.CurrentSet(), v.display)
}

// PageText returns the lines of logical page i.
func (v *Viewer) PageText(i int) ([]string, error) { return v.pag.PageText(i) }

// PageRange returns the byte range of logical page i.
func (v *Viewer) PageRange(i int) (start, end int, err error) {
	pg, err := v.pag.Page(i)
	if err != nil {
		return 0, 0, err
	}
	return pg.Start, pg.End, nil
}

// Zoom returns the zoom factor.
func (v *Viewer) Zoom() float64 { return v.pag.Options().Zoom }

// Viewport returns the full viewport in cells.
func (v *Viewer) Viewport() layout.Viewport {
	return layout.Viewport{Width: v.width, Height: v.height}
}

// pageViewport splits the viewport between the displayed pages.
func (v *Viewer) pageViewport() layout.Viewport {
	w := (v.width - Gutter*(v.display-1)) / v.display
	return layout.Viewport{Width: max(w, 1), Height: max(v.height, 1)}
}

// PageViewport returns the cells available to one page.
func (v *Viewer) PageViewport() layout.Viewport { return v.pageViewport() }

// Resize sets the full viewport and re-paginates when it changed.
func (v *Viewer) Resize(width, height int) {
	if width == v.width && height == v.height {
		return
	}
	v.width, v.height = width, height
	v.relayout()
}

// SetZoom changes the zoom factor and re-paginates.
func (v *Viewer) SetZoom(zoom float64) {
	if zoom <= 0 || zoom == v.Zoom() {
		return
	}
	opts := v.pag.Options()
	opts.Zoom = zoom
	v.pag.SetOptions(opts)
	v.relayout()
}

// SetDisplayPageCount changes how many pages are shown side by side and
// re-paginates, since each page gets a share of the width.
func (v *Viewer) SetDisplayPageCount(n int) error {
	if n < MinDisplayPages || n > MaxDisplayPages {
		return fmt.Errorf("%d: %w", n, ErrInvalidDisplayCount)
	}
	if n == v.display {
		return nil
	}
	v.display = n
	v.relayout()
	return nil
}

func clampDisplay(n int) int {
	return min(max(n, MinDisplayPages), MaxDisplayPages)
}
