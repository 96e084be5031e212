package viewer

import (
	"errors"

	"github.com/hay-kot/quire/internal/core/layout"
	"github.com/hay-kot/quire/internal/core/search"
	"github.com/hay-kot/quire/internal/core/textbuf"
)

// GoToPage shows logical page i.
func (v *Viewer) GoToPage(i int) error {
	start, err := v.pag.PageStartOffset(i)
	if err != nil {
		return err
	}
	v.moveTo(i, start, CauseNavigate)
	return nil
}

// GoToOffset shows the page holding offset. While pagination has not
// reached offset the move is deferred until it does.
func (v *Viewer) GoToOffset(offset int) error {
	return v.goToOffset(offset, CauseNavigate)
}

func (v *Viewer) goToOffset(offset int, cause Cause) error {
	i, err := v.pag.PageIndexOf(offset)
	switch {
	case err == nil:
		v.moveTo(i, offset, cause)
		return nil
	case errors.Is(err, layout.ErrPaginationPending):
		if err := v.setAnchor(offset); err != nil {
			return err
		}
		v.pending = true
		if cause != CauseSearch {
			v.cursor.Reset()
		}
		return nil
	default:
		return err
	}
}

// moveTo makes i the current page with the reading position at offset.
func (v *Viewer) moveTo(i, offset int, cause Cause) {
	if err := v.setAnchor(offset); err != nil {
		panic(err)
	}
	v.pending = false

	if cause != CauseSearch {
		v.cursor.Reset()
	}
	if i == v.page {
		return
	}

	from := v.page
	v.page = i
	v.notify(PageChange{From: from, To: i, Cause: cause})
}

func (v *Viewer) setAnchor(offset int) error {
	pos, err := v.doc.Buffer().Attach(offset, textbuf.BiasBackward)
	if err != nil {
		return err
	}
	v.anchor.Detach()
	v.anchor = pos
	return nil
}

// NextSet advances to the next display set. It reports false at the end.
func (v *Viewer) NextSet() bool {
	return v.showSet(v.CurrentSet() + 1)
}

// PrevSet goes back one display set. It reports false at the start.
func (v *Viewer) PrevSet() bool {
	return v.showSet(v.CurrentSet() - 1)
}

// FirstSet shows the first display set.
func (v *Viewer) FirstSet() bool { return v.showSet(0) }

// LastSet shows the last display set laid out so far.
func (v *Viewer) LastSet() bool {
	return v.showSet(v.pag.SetCount(v.display) - 1)
}

// ScrollTo shows the display set holding slot abs of a continuous scroll
// control.
func (v *Viewer) ScrollTo(abs int) bool {
	return v.showSet(abs / v.display)
}

func (v *Viewer) showSet(set int) bool {
	if set < 0 {
		return false
	}
	pages := v.pag.PagesInSet(set, v.display)
	if len(pages) == 0 || (set == v.CurrentSet() && !v.pending) {
		return false
	}
	return v.GoToPage(pages[0]) == nil
}

// Search looks for query from the start of the current page and brings the
// match into view.
func (v *Viewer) Search(query string) (search.Match, bool) {
	m, ok := v.cursor.Search(v.doc.Text(), query, v.PageStartOffset())
	v.reveal(m, ok)
	return m, ok
}

// SearchNext continues the last search, or starts at the current page when
// there is no match to continue from. An empty query repeats the last one.
func (v *Viewer) SearchNext(query string) (search.Match, bool) {
	m, ok := v.cursor.SearchNext(v.doc.Text(), query, v.PageStartOffset())
	v.reveal(m, ok)
	return m, ok
}

func (v *Viewer) reveal(m search.Match, ok bool) {
	if !ok {
		return
	}
	i, err := v.pag.PageIndexOf(m.Offset)
	if err == nil && v.IsPageVisible(i) {
		return
	}
	_ = v.goToOffset(m.Offset, CauseSearch)
}

// Highlight returns the current search match, if any.
func (v *Viewer) Highlight() (search.Match, bool) { return v.cursor.Match() }

// SearchQuery returns the last search string.
func (v *Viewer) SearchQuery() string { return v.cursor.Query() }

// ClearSearch drops the current match.
func (v *Viewer) ClearSearch() { v.cursor.Reset() }
