// Package search implements the case-insensitive search cursor used by the
// viewer.
//
// Matching uses Unicode collation with case ignored. Diacritics still
// count, so "resume" does not find "résumé". Compatibility forms fold
// together ("file" finds "ﬁle") and soft hyphens are ignored, so a match
// may differ in length from the query.
package search

import (
	"unicode/utf8"

	"golang.org/x/text/language"
	xsearch "golang.org/x/text/search"
)

// Match is a found occurrence as a byte range of the document text.
type Match struct {
	Offset int
	Length int
}

// End returns the offset just past the match.
func (m Match) End() int { return m.Offset + m.Length }

// Cursor keeps the last query and match between searches. The query
// survives a failed search so SearchNext can retry it.
type Cursor struct {
	matcher *xsearch.Matcher
	query   string
	match   Match
	found   bool
}

// NewCursor returns a cursor that compares case-insensitively.
func NewCursor() *Cursor {
	return &Cursor{matcher: xsearch.New(language.Und, xsearch.IgnoreCase)}
}

// Query returns the retained search string.
func (c *Cursor) Query() string { return c.query }

// Match returns the current match, if any.
func (c *Cursor) Match() (Match, bool) { return c.match, c.found }

// Reset clears the current match but keeps the query.
func (c *Cursor) Reset() {
	c.match = Match{}
	c.found = false
}

// Search looks for query in text starting at byte offset start. On failure
// the match is cleared and the query retained.
func (c *Cursor) Search(text, query string, start int) (Match, bool) {
	c.query = query
	c.Reset()

	if query == "" || start < 0 || start > len(text) {
		return Match{}, false
	}

	for start < len(text) && !utf8.RuneStart(text[start]) {
		start++
	}

	i, j := c.matcher.IndexString(text[start:], query)
	if i < 0 {
		return Match{}, false
	}

	c.match = Match{Offset: start + i, Length: j - i}
	c.found = true
	return c.match, true
}

// SearchNext continues after the current match. Without one it starts at
// fallback, usually the first offset of the visible page. An empty query
// reuses the retained one.
func (c *Cursor) SearchNext(text, query string, fallback int) (Match, bool) {
	if query == "" {
		query = c.query
	}
	start := fallback
	if c.found && query == c.query {
		start = c.match.Offset + 1
	}
	return c.Search(text, query, start)
}
