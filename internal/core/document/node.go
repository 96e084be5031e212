package document

import "github.com/hay-kot/quire/internal/core/textbuf"

// NodeKind identifies the structural role of a node.
type NodeKind int

const (
	KindRoot NodeKind = iota
	KindHeading
	KindParagraph
	KindList
	KindListItem
	KindQuote
	KindCodeBlock
	KindRule
	KindLink
	KindEmphasis
	KindStrong
	KindCode
	KindImage
	KindPageBreak
)

var kindNames = map[NodeKind]string{
	KindRoot:      "root",
	KindHeading:   "heading",
	KindParagraph: "paragraph",
	KindList:      "list",
	KindListItem:  "list-item",
	KindQuote:     "quote",
	KindCodeBlock: "code-block",
	KindRule:      "rule",
	KindLink:      "link",
	KindEmphasis:  "emphasis",
	KindStrong:    "strong",
	KindCode:      "code",
	KindImage:     "image",
	KindPageBreak: "page-break",
}

// String returns the string representation of the node kind.
func (k NodeKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsBlock reports whether the kind starts a new block of text.
func (k NodeKind) IsBlock() bool {
	switch k {
	case KindLink, KindEmphasis, KindStrong, KindCode, KindImage:
		return false
	default:
		return true
	}
}

// Node is an element of the document tree addressing [Start, End) of the
// document text. Offsets are kept in step with buffer edits by the owning
// Document.
type Node struct {
	Kind     NodeKind
	Start    int
	End      int
	Level    int               // heading level or list depth
	Attrs    map[string]string // href, src, lang, ...
	Parent   *Node
	Children []*Node
}

// Attr returns the named attribute or "".
func (n *Node) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// Contains reports whether offset lies inside the node.
func (n *Node) Contains(offset int) bool {
	return offset >= n.Start && offset < n.End
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// shift applies a buffer edit to the node offsets using the same rules as
// textbuf positions: starts behave as forward-biased, ends as backward.
func (n *Node) shift(e textbuf.Edit) {
	n.Walk(func(c *Node) bool {
		c.Start = shiftOffset(c.Start, e, textbuf.BiasForward)
		c.End = max(c.Start, shiftOffset(c.End, e, textbuf.BiasBackward))
		return true
	})
}

func shiftOffset(off int, e textbuf.Edit, bias textbuf.Bias) int {
	switch e.Kind {
	case textbuf.EditInsert:
		if off > e.Offset || (off == e.Offset && bias == textbuf.BiasForward) {
			return off + e.Length
		}
	case textbuf.EditDelete:
		end := e.Offset + e.Length
		switch {
		case off >= end:
			return off - e.Length
		case off > e.Offset:
			return e.Offset
		}
	}
	return off
}
