// Package layout divides document text into pages for a fixed viewport and
// maps between logical page indices and display slots.
package layout

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNoPages is returned by page queries on a document with no pages.
	ErrNoPages = errors.New("document has no pages")
	// ErrPaginationPending is returned while a pagination pass has not
	// reached the requested offset yet. Callers re-query after the pass.
	ErrPaginationPending = errors.New("pagination pending")
	// ErrPageOutOfRange is returned for page indices past the last page.
	ErrPageOutOfRange = errors.New("page index out of range")
)

// Viewport is the area available to one page, in terminal cells.
type Viewport struct {
	Width  int
	Height int
}

// Options control how text is laid out.
type Options struct {
	Zoom     float64 // cell scale; 2.0 halves the usable columns and rows
	TabWidth int
}

// DefaultOptions returns the layout defaults.
func DefaultOptions() Options {
	return Options{Zoom: 1.0, TabWidth: 4}
}

// Page is a laid out page. Pages tile the text: Start of page i+1 equals
// End of page i, and the last page ends at the text length.
type Page struct {
	Start int
	End   int
	Lines []Line
}

// Source is the text a Paginator lays out.
type Source interface {
	Text() string
}

// Paginator lays text out into pages. A pass is started with Begin and
// advanced with Step so large documents can be paginated in chunks between
// UI events; Paginate runs a whole pass at once.
type Paginator struct {
	opts     Options
	viewport Viewport

	text  string
	pages []Page

	running bool
	pos     int    // next unprocessed byte
	current []Line // lines of the page being filled
	wrap    *wrapper
	rows    int
}

// New creates a paginator with opts.
func New(opts Options) *Paginator {
	if opts.Zoom <= 0 {
		opts.Zoom = 1.0
	}
	if opts.TabWidth <= 0 {
		opts.TabWidth = DefaultOptions().TabWidth
	}
	return &Paginator{opts: opts}
}

// Options returns the current layout options.
func (p *Paginator) Options() Options { return p.opts }

// SetOptions replaces the layout options. The caller re-paginates.
func (p *Paginator) SetOptions(opts Options) {
	if opts.Zoom <= 0 {
		opts.Zoom = p.opts.Zoom
	}
	if opts.TabWidth <= 0 {
		opts.TabWidth = p.opts.TabWidth
	}
	p.opts = opts
}

// Viewport returns the viewport of the last pass.
func (p *Paginator) Viewport() Viewport { return p.viewport }

// Paginate lays out src for vp in one call and returns the page count.
func (p *Paginator) Paginate(src Source, vp Viewport) int {
	p.Begin(src, vp)
	for !p.Step(0) {
	}
	return len(p.pages)
}

// Begin starts a new pass over src, discarding previous pages.
func (p *Paginator) Begin(src Source, vp Viewport) {
	p.viewport = vp
	p.text = src.Text()
	p.pages = p.pages[:0]
	p.current = nil
	p.pos = 0

	cols := max(int(float64(vp.Width)/p.opts.Zoom), 1)
	p.rows = max(int(float64(vp.Height)/p.opts.Zoom), 1)
	p.wrap = newWrapper(cols, p.opts.TabWidth)

	p.running = p.text != ""
}

// Step lays out up to budget hard lines (all remaining when budget <= 0)
// and reports whether the pass is complete.
func (p *Paginator) Step(budget int) bool {
	if !p.running {
		return true
	}

	for n := 0; p.pos <= len(p.text) && (budget <= 0 || n < budget); n++ {
		if p.pos == len(p.text) && p.pos > 0 {
			// Text ending in a terminator has no line after it.
			p.pos++
			break
		}
		end := nextBreak(p.text, p.pos)
		p.current = p.wrap.wrap(p.current, p.text[p.pos:end], p.pos)

		for len(p.current) >= p.rows {
			p.flush(p.current[:p.rows])
			p.current = append([]Line(nil), p.current[p.rows:]...)
		}

		if end < len(p.text) && p.text[end] == '\f' && len(p.current) > 0 {
			p.flush(p.current)
			p.current = nil
		}

		p.pos = end + 1
	}

	if p.pos <= len(p.text) {
		return false
	}

	if len(p.current) > 0 {
		p.flush(p.current)
		p.current = nil
	}
	if n := len(p.pages); n > 0 {
		p.pages[n-1].End = len(p.text)
	}
	p.running = false
	return true
}

// flush closes a page made of lines.
func (p *Paginator) flush(lines []Line) {
	start := lines[0].Start
	if n := len(p.pages); n > 0 {
		p.pages[n-1].End = start
	} else {
		start = 0
	}
	end := lines[len(lines)-1].End
	p.pages = append(p.pages, Page{Start: start, End: end, Lines: lines})
}

// Paginating reports whether a pass is in progress.
func (p *Paginator) Paginating() bool { return p.running }

// Progress returns bytes laid out so far and the total to lay out.
func (p *Paginator) Progress() (current, total int) {
	return min(p.pos, len(p.text)), len(p.text)
}

// PageCount returns the number of complete pages.
func (p *Paginator) PageCount() int { return len(p.pages) }

// Page returns page i.
func (p *Paginator) Page(i int) (Page, error) {
	if err := p.checkIndex(i); err != nil {
		return Page{}, err
	}
	return p.pages[i], nil
}

// PageStartOffset returns the first offset on page i.
func (p *Paginator) PageStartOffset(i int) (int, error) {
	pg, err := p.Page(i)
	if err != nil {
		return 0, err
	}
	return pg.Start, nil
}

// PageEndOffset returns the offset just past page i.
func (p *Paginator) PageEndOffset(i int) (int, error) {
	pg, err := p.Page(i)
	if err != nil {
		return 0, err
	}
	return pg.End, nil
}

// PageIndexOf returns the page containing offset. The text length maps to
// the last page.
func (p *Paginator) PageIndexOf(offset int) (int, error) {
	if len(p.pages) == 0 {
		if p.running {
			return 0, ErrPaginationPending
		}
		return 0, ErrNoPages
	}

	if p.running && offset >= p.pages[len(p.pages)-1].End {
		return 0, ErrPaginationPending
	}

	if offset < 0 || offset > len(p.text) {
		return 0, fmt.Errorf("offset %d outside text of length %d: %w", offset, len(p.text), ErrPageOutOfRange)
	}

	i := sort.Search(len(p.pages), func(i int) bool { return p.pages[i].Start > offset })
	return max(i-1, 0), nil
}

// PageText returns the visual lines of page i as strings.
func (p *Paginator) PageText(i int) ([]string, error) {
	pg, err := p.Page(i)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(pg.Lines))
	for j, l := range pg.Lines {
		out[j] = p.text[l.Start:l.End]
	}
	return out, nil
}

func (p *Paginator) checkIndex(i int) error {
	if len(p.pages) == 0 {
		if p.running {
			return ErrPaginationPending
		}
		return ErrNoPages
	}
	if i < 0 || i >= len(p.pages) {
		return fmt.Errorf("page %d of %d: %w", i, len(p.pages), ErrPageOutOfRange)
	}
	return nil
}
