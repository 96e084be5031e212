package layout

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbsoluteIndex_RoundTrip(t *testing.T) {
	for _, d := range []int{1, 2, 3} {
		for pages := 1; pages <= 12; pages++ {
			t.Run(fmt.Sprintf("d=%d/pages=%d", d, pages), func(t *testing.T) {
				for i := range pages {
					abs := AbsoluteIndex(i, pages, d)
					assert.Less(t, abs, MaxAbsoluteIndex(pages, d))
					assert.Equal(t, i, LogicalIndex(abs, pages, d), "logical %d -> abs %d", i, abs)
				}
			})
		}
	}
}

func TestLogicalIndex_PaddingGaps(t *testing.T) {
	tests := []struct {
		pages   int
		display int
		gaps    []int
	}{
		{pages: 7, display: 2, gaps: []int{1}},
		{pages: 7, display: 3, gaps: []int{1, 2}},
		{pages: 6, display: 2, gaps: nil},
		{pages: 1, display: 2, gaps: []int{1}},
		{pages: 5, display: 1, gaps: nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d pages by %d", tt.pages, tt.display), func(t *testing.T) {
			assert.Equal(t, len(tt.gaps), Padding(tt.pages, tt.display))

			var gaps []int
			for abs := range MaxAbsoluteIndex(tt.pages, tt.display) {
				if LogicalIndex(abs, tt.pages, tt.display) == NotAvailable {
					gaps = append(gaps, abs)
				}
			}
			assert.Equal(t, tt.gaps, gaps)
		})
	}
}

func TestAbsoluteIndex_DisplayOfOneIsIdentity(t *testing.T) {
	for pages := 1; pages < 10; pages++ {
		assert.Equal(t, pages, MaxAbsoluteIndex(pages, 1))
		for i := range pages {
			assert.Equal(t, i, AbsoluteIndex(i, pages, 1))
			assert.Equal(t, i, LogicalIndex(i, pages, 1))
		}
	}
}

func TestAbsoluteIndex_SetsStayAligned(t *testing.T) {
	// After the first set every set is full, so the last page always
	// lands in the last slot.
	for _, d := range []int{2, 3} {
		for pages := 1; pages <= 12; pages++ {
			last := AbsoluteIndex(pages-1, pages, d)
			if pages > 1 {
				assert.Equal(t, MaxAbsoluteIndex(pages, d)-1, last, "d=%d pages=%d", d, pages)
			}
		}
	}
}

func TestLogicalIndex_OutOfRange(t *testing.T) {
	assert.Equal(t, NotAvailable, LogicalIndex(-1, 5, 2))
	assert.Equal(t, NotAvailable, LogicalIndex(6, 5, 2))
	assert.Equal(t, NotAvailable, LogicalIndex(0, 0, 2))
}

func TestPaginator_IsPageVisible(t *testing.T) {
	p := New(DefaultOptions())
	p.Paginate(tenThousand(), Viewport{Width: 80, Height: 30})

	assert.True(t, p.IsPageVisible(0, 0, 2))
	assert.False(t, p.IsPageVisible(1, 0, 2))
	assert.True(t, p.IsPageVisible(1, 1, 2))
	assert.True(t, p.IsPageVisible(2, 1, 2))
	assert.True(t, p.IsPageVisible(6, 3, 2))
	assert.False(t, p.IsPageVisible(7, 3, 2))
	assert.Equal(t, 3, p.DisplaySetOf(6, 2))
	assert.Equal(t, []int{5, 6}, p.PagesInSet(3, 2))
}
