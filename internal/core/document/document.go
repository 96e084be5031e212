// Package document defines the parsed document consumed by the reader core:
// a text buffer plus a structural tree addressed by offsets into it.
package document

import (
	"strings"
	"sync/atomic"

	"github.com/hay-kot/quire/internal/core/textbuf"
)

// Metadata holds descriptive fields supplied by the parser.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	Language    string `json:"language,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// OutlineEntry is a heading in the document outline.
type OutlineEntry struct {
	Title  string
	Level  int
	Offset int
}

// Document is a loaded, parsed document.
type Document struct {
	id       string
	meta     Metadata
	buf      *textbuf.Buffer
	root     *Node
	modified atomic.Bool
}

// New wraps a buffer and tree into a Document. A nil root is replaced with
// an empty root spanning the buffer.
func New(id string, meta Metadata, buf *textbuf.Buffer, root *Node) *Document {
	if buf == nil {
		buf = textbuf.New("")
	}
	if root == nil {
		root = &Node{Kind: KindRoot}
	}
	root.Start, root.End = 0, buf.Len()

	d := &Document{
		id:   id,
		meta: meta,
		buf:  buf,
		root: root,
	}

	buf.OnEdit(func(e textbuf.Edit) {
		d.root.shift(e)
		d.root.Start, d.root.End = 0, d.buf.Len()
	})

	return d
}

// Empty returns a document with no text. The viewer shows it before the
// first load.
func Empty() *Document {
	return New("", Metadata{}, textbuf.New(""), nil)
}

// ID returns the source identifier the document was loaded from.
func (d *Document) ID() string { return d.id }

// Metadata returns the parser supplied metadata.
func (d *Document) Metadata() Metadata { return d.meta }

// Title returns the metadata title, falling back to the first heading and
// then to the identifier.
func (d *Document) Title() string {
	if d.meta.Title != "" {
		return d.meta.Title
	}
	if outline := d.Outline(); len(outline) > 0 {
		return outline[0].Title
	}
	return d.id
}

// Buffer returns the document text buffer.
func (d *Document) Buffer() *textbuf.Buffer { return d.buf }

// Root returns the structural tree.
func (d *Document) Root() *Node { return d.root }

// Len returns the text length in bytes.
func (d *Document) Len() int { return d.buf.Len() }

// Text returns the full document text.
func (d *Document) Text() string { return d.buf.String() }

// UserDataModified reports whether bookmarks or annotations changed since
// the last call to ClearUserDataModified.
func (d *Document) UserDataModified() bool { return d.modified.Load() }

// SetUserDataModified marks the document's user data as changed.
func (d *Document) SetUserDataModified() { d.modified.Store(true) }

// ClearUserDataModified resets the user-data flag, typically after a save.
func (d *Document) ClearUserDataModified() { d.modified.Store(false) }

// Outline returns the document headings in text order.
func (d *Document) Outline() []OutlineEntry {
	var out []OutlineEntry
	d.root.Walk(func(n *Node) bool {
		if n.Kind != KindHeading {
			return true
		}
		title := strings.TrimSpace(d.buf.Slice(n.Start, n.End))
		out = append(out, OutlineEntry{Title: title, Level: n.Level, Offset: n.Start})
		return false
	})
	return out
}

// NodeAt returns the innermost node containing offset, or the root.
func (d *Document) NodeAt(offset int) *Node {
	found := d.root
	d.root.Walk(func(n *Node) bool {
		if !n.Contains(offset) {
			return false
		}
		found = n
		return true
	})
	return found
}
