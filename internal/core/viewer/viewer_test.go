package viewer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/quire/internal/core/document"
	"github.com/hay-kot/quire/internal/core/layout"
	"github.com/hay-kot/quire/internal/core/progress"
	"github.com/hay-kot/quire/internal/core/textbuf"
)

// tenThousand is 10000 bytes that lay out into 7 pages of 80x30.
func tenThousand() *document.Document {
	line := strings.Repeat("x", 50) + "\n"
	text := strings.Repeat(line, 196) + "xxxx"
	return document.New("ten-thousand", document.Metadata{}, textbuf.New(text), nil)
}

func newViewer(t *testing.T, opts Options) (*Viewer, *[]progress.Event) {
	t.Helper()
	bus := progress.NewBus()
	var events []progress.Event
	bus.Subscribe(func(e progress.Event) { events = append(events, e) })

	v := New(opts, bus)
	return v, &events
}

func kinds(events []progress.Event) []progress.Kind {
	out := make([]progress.Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestViewer_EndToEndSevenPages(t *testing.T) {
	// Two pages side by side at 80 columns each plus the gutter.
	v, _ := newViewer(t, Options{DisplayPages: 2, Zoom: 1, Chunk: 0})
	v.Resize(80*2+Gutter, 30)
	v.Finish()

	require.True(t, v.Install(tenThousand(), 1))
	v.Finish()

	assert.Equal(t, layout.Viewport{Width: 80, Height: 30}, v.PageViewport())
	require.Equal(t, 7, v.PageCount())
	assert.Equal(t, []int{0}, v.VisiblePages())
	assert.Equal(t, 7, v.Layout().AbsoluteIndex(6, 2))

	start, err := v.Layout().PageStartOffset(6)
	require.NoError(t, err)
	i, err := v.Layout().PageIndexOf(start)
	require.NoError(t, err)
	assert.Equal(t, 6, i)

	require.True(t, v.NextSet())
	assert.Equal(t, []int{1, 2}, v.VisiblePages())
	require.True(t, v.LastSet())
	assert.Equal(t, []int{5, 6}, v.VisiblePages())
	assert.False(t, v.NextSet())
}

func TestViewer_ProgressOrdering(t *testing.T) {
	v, events := newViewer(t, Options{DisplayPages: 1, Zoom: 1, Chunk: 40})
	v.Resize(80, 30)
	v.Finish()
	*events = nil

	require.True(t, v.Install(tenThousand(), 3))
	v.Finish()

	got := kinds(*events)
	require.GreaterOrEqual(t, len(got), 3)
	assert.Equal(t, progress.ConstructFinished, got[0])
	assert.Equal(t, progress.PaginateFinished, got[len(got)-1])
	for _, k := range got[1 : len(got)-1] {
		assert.Equal(t, progress.PaginateProgress, k)
	}

	last := 0
	for _, e := range (*events)[1:] {
		assert.Equal(t, uint64(3), e.Gen)
		assert.GreaterOrEqual(t, e.Current, last)
		last = e.Current
	}
	assert.Equal(t, 10000, last)
}

func TestViewer_StaleGenerationIgnored(t *testing.T) {
	v, events := newViewer(t, DefaultOptions())
	v.Resize(80, 30)

	require.True(t, v.Install(tenThousand(), 5))
	before := v.Document()
	*events = nil

	other := document.New("other", document.Metadata{}, textbuf.New("stale"), nil)
	assert.False(t, v.Install(other, 4))
	assert.Same(t, before, v.Document())
	assert.Empty(t, *events)

	assert.True(t, v.StepPagination(4), "stale steps report done")
	assert.True(t, v.Paginating())
}

func TestViewer_GoToOffsetWhilePaginating(t *testing.T) {
	v, _ := newViewer(t, Options{DisplayPages: 1, Zoom: 1, Chunk: 40})
	v.Resize(80, 30)
	require.True(t, v.Install(tenThousand(), 1))

	var changes []PageChange
	v.OnPageChange(func(c PageChange) { changes = append(changes, c) })

	require.NoError(t, v.GoToOffset(9500))
	assert.Equal(t, 0, v.Page(), "deferred until laid out")

	v.Finish()
	assert.Equal(t, 6, v.Page())
	require.NotEmpty(t, changes)
	assert.Equal(t, PageChange{From: 0, To: 6, Cause: CauseLayout}, changes[len(changes)-1])
}

func TestViewer_PositionSurvivesResize(t *testing.T) {
	v, _ := newViewer(t, Options{DisplayPages: 1, Zoom: 1})
	v.Resize(80, 30)
	require.True(t, v.Install(tenThousand(), 1))
	v.Finish()

	require.NoError(t, v.GoToPage(3))
	offset := v.Offset()

	v.Resize(80, 15)
	v.Finish()

	assert.Equal(t, offset, v.Offset())
	start, end, err := v.PageRange(v.Page())
	require.NoError(t, err)
	assert.True(t, offset >= start && offset < end)
	assert.Equal(t, 6, v.Page())
}

func TestViewer_DisplayCountChangeKeepsPosition(t *testing.T) {
	v, _ := newViewer(t, Options{DisplayPages: 1, Zoom: 1})
	v.Resize(160, 30)
	require.True(t, v.Install(tenThousand(), 1))
	v.Finish()

	require.NoError(t, v.GoToOffset(5100))
	offset := v.Offset()

	require.NoError(t, v.SetDisplayPageCount(2))
	assert.True(t, v.Paginating())
	v.Finish()

	assert.Equal(t, offset, v.Offset())
	assert.True(t, v.IsPageVisible(v.Page()))
	require.ErrorIs(t, v.SetDisplayPageCount(4), ErrInvalidDisplayCount)
}

func TestViewer_SearchRevealsAndResets(t *testing.T) {
	text := strings.Repeat("filler line\n", 100) + "the needle is here"
	doc := document.New("s", document.Metadata{}, textbuf.New(text), nil)

	v, _ := newViewer(t, Options{DisplayPages: 1, Zoom: 1})
	v.Resize(40, 10)
	require.True(t, v.Install(doc, 1))
	v.Finish()

	var causes []Cause
	v.OnPageChange(func(c PageChange) { causes = append(causes, c.Cause) })

	m, ok := v.Search("NEEDLE")
	require.True(t, ok)
	assert.Equal(t, strings.Index(text, "needle"), m.Offset)
	assert.True(t, v.IsPageVisible(v.Page()))
	assert.Equal(t, []Cause{CauseSearch}, causes)

	_, ok = v.Highlight()
	assert.True(t, ok, "search navigation keeps its own match")

	require.True(t, v.FirstSet())
	_, ok = v.Highlight()
	assert.False(t, ok, "other navigation clears the match")
	assert.Equal(t, "NEEDLE", v.SearchQuery())

	m, ok = v.SearchNext("")
	require.True(t, ok)
	assert.Equal(t, strings.Index(text, "needle"), m.Offset)
}

func TestViewer_SearchNotFoundKeepsPage(t *testing.T) {
	v, _ := newViewer(t, DefaultOptions())
	v.Resize(80, 30)
	require.True(t, v.Install(tenThousand(), 1))
	v.Finish()
	require.NoError(t, v.GoToPage(2))

	_, ok := v.Search("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, v.Page())
}

func TestViewer_EmptyDocument(t *testing.T) {
	v, events := newViewer(t, DefaultOptions())
	v.Resize(80, 30)
	v.Finish()
	*events = nil

	require.True(t, v.Install(document.Empty(), 1))
	v.Finish()

	assert.Equal(t, 0, v.PageCount())
	assert.Empty(t, v.VisiblePages())
	assert.Equal(t, []progress.Kind{progress.ConstructFinished, progress.PaginateFinished}, kinds(*events))
	require.ErrorIs(t, v.GoToPage(0), layout.ErrNoPages)
}

func TestViewer_EditTriggersRelayout(t *testing.T) {
	v, _ := newViewer(t, DefaultOptions())
	v.Resize(80, 30)
	doc := tenThousand()
	require.True(t, v.Install(doc, 1))
	v.Finish()

	require.NoError(t, v.GoToPage(6))
	offset := v.Offset()

	require.NoError(t, doc.Buffer().Insert(0, strings.Repeat("y\n", 30)))
	assert.True(t, v.Paginating())
	v.Finish()

	assert.Equal(t, offset+60, v.Offset())
	assert.Equal(t, 8, v.PageCount())
	assert.Equal(t, 7, v.Page())
}

func TestViewer_ReplacedDocumentReleasesEditListener(t *testing.T) {
	v, _ := newViewer(t, DefaultOptions())
	v.Resize(80, 30)

	old := tenThousand()
	before := old.Buffer().Listeners()
	require.True(t, v.Install(old, 1))
	v.Finish()
	require.Equal(t, before+1, old.Buffer().Listeners())

	require.True(t, v.Install(tenThousand(), 2))
	v.Finish()
	assert.Equal(t, before, old.Buffer().Listeners())

	require.NoError(t, old.Buffer().Insert(0, "stale edit\n"))
	assert.False(t, v.Paginating(), "edits to a replaced document are ignored")
}
