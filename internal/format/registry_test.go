package format

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/quire/internal/core/document"
)

type stubHandler string

func (s stubHandler) Name() string { return string(s) }

func (s stubHandler) Parse(context.Context, string, io.Reader) (*document.Document, error) {
	return document.Empty(), nil
}

func TestRegistry_DefaultLookup(t *testing.T) {
	r := Default()

	tests := []struct {
		id   string
		want string
	}{
		{id: "book.md", want: "markdown"},
		{id: "/home/me/Books/Moby.MARKDOWN", want: "markdown"},
		{id: "file:///tmp/chapter.xhtml", want: "html"},
		{id: "notes.txt", want: "text"},
		{id: "README", want: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			h, err := r.Lookup(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Name())
		})
	}
}

func TestRegistry_LongestLiteralWins(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("**/*.md", 0, stubHandler("generic"))
	r.MustRegister("**/*.notes.md", 0, stubHandler("notes"))

	h, err := r.Lookup("daily.notes.md")
	require.NoError(t, err)
	assert.Equal(t, "notes", h.Name())

	h, err = r.Lookup("book.md")
	require.NoError(t, err)
	assert.Equal(t, "generic", h.Name())
}

func TestRegistry_PriorityBreaksTies(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("**/*.md", 0, stubHandler("low"))
	r.MustRegister("**/*.md", 5, stubHandler("high"))

	h, err := r.Lookup("book.md")
	require.NoError(t, err)
	assert.Equal(t, "high", h.Name())
}

func TestRegistry_NoHandler(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("**/*.md", 0, stubHandler("md"))

	_, err := r.Lookup("book.pdf")
	require.ErrorIs(t, err, ErrNoHandler)
}

func TestRegistry_InvalidPattern(t *testing.T) {
	err := NewRegistry().Register("[", 0, stubHandler("bad"))
	require.Error(t, err)
}

func TestLiteralLen(t *testing.T) {
	tests := []struct {
		pattern string
		want    int
	}{
		{pattern: "**", want: 0},
		{pattern: "**/*.md", want: 4},
		{pattern: "**/*.{md,markdown}", want: 4},
		{pattern: "docs/[ab].txt", want: 10},
		{pattern: `a\*b`, want: 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, literalLen(tt.pattern), tt.pattern)
	}
}
