package layout

// NotAvailable is returned by LogicalIndex for display slots that no page
// occupies.
const NotAvailable = -1

// Padding returns the number of empty slots in the first display set when
// pageCount pages are shown displayCount at a time. Page 0 keeps slot 0 and
// the empty slots follow it, so every later set is full.
func Padding(pageCount, displayCount int) int {
	if displayCount <= 1 || pageCount <= 0 {
		return 0
	}
	return (displayCount - pageCount%displayCount) % displayCount
}

// AbsoluteIndex maps a logical page to its display slot.
func AbsoluteIndex(logical, pageCount, displayCount int) int {
	if logical <= 0 {
		return 0
	}
	return logical + Padding(pageCount, displayCount)
}

// LogicalIndex maps a display slot back to its logical page, or
// NotAvailable when the slot is padding or past the last page.
func LogicalIndex(abs, pageCount, displayCount int) int {
	if pageCount <= 0 || abs < 0 {
		return NotAvailable
	}
	if abs == 0 {
		return 0
	}

	logical := abs - Padding(pageCount, displayCount)
	if logical <= 0 || logical >= pageCount {
		return NotAvailable
	}
	return logical
}

// SetCount returns the number of display sets spanning all pages.
func SetCount(pageCount, displayCount int) int {
	if pageCount <= 0 {
		return 0
	}
	d := max(displayCount, 1)
	last := AbsoluteIndex(pageCount-1, pageCount, d)
	return last/d + 1
}

// MaxAbsoluteIndex returns the slot count exposed to a continuous scroll
// control.
func MaxAbsoluteIndex(pageCount, displayCount int) int {
	return SetCount(pageCount, displayCount) * max(displayCount, 1)
}

// AbsoluteIndex maps a logical page of the current layout to its slot.
func (p *Paginator) AbsoluteIndex(logical, displayCount int) int {
	return AbsoluteIndex(logical, len(p.pages), displayCount)
}

// LogicalIndex maps a slot of the current layout to its logical page or
// NotAvailable.
func (p *Paginator) LogicalIndex(abs, displayCount int) int {
	return LogicalIndex(abs, len(p.pages), displayCount)
}

// SetCount returns the number of display sets in the current layout.
func (p *Paginator) SetCount(displayCount int) int {
	return SetCount(len(p.pages), displayCount)
}

// MaxAbsoluteIndex returns the slot count of the current layout.
func (p *Paginator) MaxAbsoluteIndex(displayCount int) int {
	return MaxAbsoluteIndex(len(p.pages), displayCount)
}

// DisplaySetOf returns the display set holding logical page i.
func (p *Paginator) DisplaySetOf(i, displayCount int) int {
	return p.AbsoluteIndex(i, displayCount) / max(displayCount, 1)
}

// PagesInSet returns the logical pages shown by display set set, in slot
// order, skipping padding slots.
func (p *Paginator) PagesInSet(set, displayCount int) []int {
	d := max(displayCount, 1)
	var out []int
	for abs := set * d; abs < (set+1)*d; abs++ {
		if i := p.LogicalIndex(abs, d); i != NotAvailable {
			out = append(out, i)
		}
	}
	return out
}

// IsPageVisible reports whether logical page i is part of display set set.
func (p *Paginator) IsPageVisible(i, set, displayCount int) bool {
	if i < 0 || i >= len(p.pages) {
		return false
	}
	return p.DisplaySetOf(i, displayCount) == set
}
