package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSample() *Document {
	b := NewBuilder()
	b.Open(KindHeading, 1, nil)
	b.Text("Chapter One")
	b.Close()
	b.Open(KindParagraph, 0, nil)
	b.Text("It was a ")
	b.Open(KindEmphasis, 0, nil)
	b.Text("dark")
	b.Close()
	b.Text(" night.")
	b.Close()
	b.PageBreak()
	b.Open(KindHeading, 2, nil)
	b.Text("Part Two")
	b.Close()
	return b.Build("sample.md", Metadata{ContentType: "text/markdown"})
}

func TestBuilder_Text(t *testing.T) {
	doc := buildSample()

	assert.Equal(t, "Chapter One\n\nIt was a dark night.\n\n\fPart Two", doc.Text())
	assert.Equal(t, "sample.md", doc.ID())
	assert.Equal(t, "Chapter One", doc.Title())
}

func TestDocument_Outline(t *testing.T) {
	doc := buildSample()

	outline := doc.Outline()
	require.Len(t, outline, 2)
	assert.Equal(t, OutlineEntry{Title: "Chapter One", Level: 1, Offset: 0}, outline[0])
	assert.Equal(t, "Part Two", outline[1].Title)
	assert.Equal(t, 2, outline[1].Level)
}

func TestDocument_NodeAt(t *testing.T) {
	doc := buildSample()

	n := doc.NodeAt(22)
	assert.Equal(t, KindEmphasis, n.Kind)
	assert.Equal(t, "dark", doc.Buffer().Slice(n.Start, n.End))

	assert.Equal(t, KindRoot, doc.NodeAt(12).Kind)
}

func TestDocument_NodesFollowEdits(t *testing.T) {
	doc := buildSample()

	require.NoError(t, doc.Buffer().Insert(0, "Prologue\n\n"))

	outline := doc.Outline()
	require.Len(t, outline, 2)
	assert.Equal(t, "Chapter One", outline[0].Title)
	assert.Equal(t, 10, outline[0].Offset)
	assert.Equal(t, doc.Len(), doc.Root().End)
	assert.Equal(t, 0, doc.Root().Start)
}

func TestDocument_UserDataModified(t *testing.T) {
	doc := Empty()
	assert.False(t, doc.UserDataModified())

	doc.SetUserDataModified()
	assert.True(t, doc.UserDataModified())

	doc.ClearUserDataModified()
	assert.False(t, doc.UserDataModified())
}

func TestNodeKind_String(t *testing.T) {
	assert.Equal(t, "heading", KindHeading.String())
	assert.Equal(t, "unknown", NodeKind(99).String())
	assert.False(t, KindLink.IsBlock())
	assert.True(t, KindQuote.IsBlock())
}

func TestBuilder_ListItemsOnConsecutiveLines(t *testing.T) {
	b := NewBuilder()
	b.Open(KindParagraph, 0, nil)
	b.Text("Intro")
	b.Close()
	b.Open(KindList, 0, nil)
	for _, item := range []string{"- a", "- b"} {
		b.Open(KindListItem, 0, nil)
		b.Text(item)
		b.Close()
	}
	b.Close()

	doc := b.Build("list", Metadata{})
	assert.Equal(t, "Intro\n\n- a\n- b", doc.Text())
}
