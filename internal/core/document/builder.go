package document

import (
	"strings"

	"github.com/hay-kot/quire/internal/core/textbuf"
)

// Builder accumulates text and structure while a parser walks its input.
// It is not safe for concurrent use.
type Builder struct {
	text  strings.Builder
	root  *Node
	stack []*Node
}

// NewBuilder returns a builder with an open root node.
func NewBuilder() *Builder {
	root := &Node{Kind: KindRoot}
	return &Builder{root: root, stack: []*Node{root}}
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int { return b.text.Len() }

// Open starts a child node of the current node at the current offset.
// Block nodes are separated from preceding text by a blank line, list items
// by a line break.
func (b *Builder) Open(kind NodeKind, level int, attrs map[string]string) *Node {
	switch {
	case kind == KindListItem:
		b.endLine()
	case kind.IsBlock():
		b.separateBlock()
	}

	parent := b.stack[len(b.stack)-1]
	n := &Node{
		Kind:   kind,
		Start:  b.text.Len(),
		Level:  level,
		Attrs:  attrs,
		Parent: parent,
	}
	parent.Children = append(parent.Children, n)
	b.stack = append(b.stack, n)
	return n
}

// Close ends the innermost open node. Closing the root is a no-op.
func (b *Builder) Close() {
	if len(b.stack) <= 1 {
		return
	}
	n := b.stack[len(b.stack)-1]
	n.End = b.text.Len()
	b.stack = b.stack[:len(b.stack)-1]
}

// Text appends s to the current node.
func (b *Builder) Text(s string) {
	b.text.WriteString(s)
}

// LineBreak appends a hard line break.
func (b *Builder) LineBreak() {
	b.text.WriteByte('\n')
}

// PageBreak forces a page boundary at the current offset.
func (b *Builder) PageBreak() {
	b.separateBlock()
	b.Open(KindPageBreak, 0, nil)
	b.text.WriteByte('\f')
	b.Close()
}

// Build closes any open nodes and returns the finished document.
func (b *Builder) Build(id string, meta Metadata) *Document {
	for len(b.stack) > 1 {
		b.Close()
	}
	text := strings.TrimRight(b.text.String(), "\n")
	b.root.Walk(func(n *Node) bool {
		n.Start = min(n.Start, len(text))
		n.End = min(n.End, len(text))
		return true
	})
	return New(id, meta, textbuf.New(text), b.root)
}

// endLine starts a new line unless the text is empty or already at the start
// of a line.
func (b *Builder) endLine() {
	s := b.text.String()
	if s == "" || strings.HasSuffix(s, "\n") || strings.HasSuffix(s, "\f") {
		return
	}
	b.text.WriteByte('\n')
}

// separateBlock ends the current line and leaves one blank line unless the
// text is empty or already ends with a separator.
func (b *Builder) separateBlock() {
	s := b.text.String()
	switch {
	case s == "":
		return
	case strings.HasSuffix(s, "\n\n"), strings.HasSuffix(s, "\f"):
		return
	case strings.HasSuffix(s, "\n"):
		b.text.WriteByte('\n')
	default:
		b.text.WriteString("\n\n")
	}
}
