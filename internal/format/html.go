package format

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hay-kot/quire/internal/core/document"
)

// HTML parses HTML and XHTML with golang.org/x/net/html.
type HTML struct{}

// Name returns "html".
func (HTML) Name() string { return "html" }

// Parse implements Handler.
func (HTML) Parse(ctx context.Context, id string, r io.Reader) (*document.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	w := &htmlWalker{
		b:          document.NewBuilder(),
		meta:       document.Metadata{ContentType: "text/html"},
		blockStart: true,
	}
	if err := w.walk(ctx, root); err != nil {
		return nil, err
	}

	return w.b.Build(id, w.meta), nil
}

var htmlBlocks = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Dd: true, atom.Figure: true,
	atom.Footer: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Li: true,
	atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Table: true, atom.Tr: true, atom.Ul: true,
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

type htmlWalker struct {
	b    *document.Builder
	meta document.Metadata

	// blockStart is set at the start of a block so leading whitespace is
	// dropped; pendingSpace records collapsed whitespace between words.
	blockStart   bool
	pendingSpace bool
}

func (w *htmlWalker) walk(ctx context.Context, n *html.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return nil
	case html.ElementNode:
		return w.element(ctx, n)
	default:
		return w.children(ctx, n)
	}
}

func (w *htmlWalker) children(ctx context.Context, n *html.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := w.walk(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (w *htmlWalker) element(ctx context.Context, n *html.Node) error {
	if breakBefore(n) {
		w.b.PageBreak()
		w.startBlock()
	}
	defer func() {
		if breakAfter(n) {
			w.b.PageBreak()
			w.startBlock()
		}
	}()

	switch n.DataAtom {
	case atom.Html:
		if lang := attr(n, "lang"); lang != "" {
			w.meta.Language = lang
		}
		return w.children(ctx, n)
	case atom.Head:
		w.head(n)
		return nil
	case atom.Script, atom.Style, atom.Template, atom.Noscript:
		return nil
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return w.block(ctx, n, document.KindHeading, headingLevels[n.DataAtom], nil)
	case atom.P:
		return w.block(ctx, n, document.KindParagraph, 0, nil)
	case atom.Ul, atom.Ol:
		return w.list(ctx, n)
	case atom.Blockquote:
		return w.block(ctx, n, document.KindQuote, 0, nil)
	case atom.Pre:
		w.b.Open(document.KindCodeBlock, 0, nil)
		w.b.Text(strings.Trim(textContent(n), "\n"))
		w.b.Close()
		w.startBlock()
		return nil
	case atom.Hr:
		w.b.Open(document.KindRule, 0, nil)
		w.b.Text("* * *")
		w.b.Close()
		w.startBlock()
		return nil
	case atom.Br:
		w.b.LineBreak()
		w.startBlock()
		return nil
	case atom.Em, atom.I, atom.Cite:
		return w.inline(ctx, n, document.KindEmphasis, nil)
	case atom.Strong, atom.B:
		return w.inline(ctx, n, document.KindStrong, nil)
	case atom.Code, atom.Kbd, atom.Samp:
		return w.inline(ctx, n, document.KindCode, nil)
	case atom.A:
		return w.inline(ctx, n, document.KindLink, map[string]string{"href": attr(n, "href")})
	case atom.Img:
		w.space()
		w.b.Open(document.KindImage, 0, map[string]string{"src": attr(n, "src")})
		w.b.Text("[image: " + attr(n, "alt") + "]")
		w.b.Close()
		return nil
	}

	if htmlBlocks[n.DataAtom] && !hasBlockChild(n) {
		return w.block(ctx, n, document.KindParagraph, 0, nil)
	}
	return w.children(ctx, n)
}

func (w *htmlWalker) block(ctx context.Context, n *html.Node, kind document.NodeKind, level int, attrs map[string]string) error {
	w.b.Open(kind, level, attrs)
	w.startBlock()
	err := w.children(ctx, n)
	w.b.Close()
	w.startBlock()
	return err
}

func (w *htmlWalker) inline(ctx context.Context, n *html.Node, kind document.NodeKind, attrs map[string]string) error {
	w.space()
	w.b.Open(kind, 0, attrs)
	err := w.children(ctx, n)
	w.b.Close()
	return err
}

func (w *htmlWalker) list(ctx context.Context, n *html.Node) error {
	w.b.Open(document.KindList, 0, nil)
	defer w.b.Close()

	ordinal := 1
	if start, err := strconv.Atoi(attr(n, "start")); err == nil {
		ordinal = start
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Li {
			continue
		}

		marker := "• "
		if n.DataAtom == atom.Ol {
			marker = strconv.Itoa(ordinal) + ". "
			ordinal++
		}

		w.b.Open(document.KindListItem, 0, nil)
		w.b.Text(marker)
		w.startBlock()
		if err := w.children(ctx, c); err != nil {
			return err
		}
		w.b.Close()
	}
	w.startBlock()
	return nil
}

func (w *htmlWalker) head(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Title:
			w.meta.Title = strings.Join(strings.Fields(textContent(c)), " ")
		case atom.Meta:
			switch strings.ToLower(attr(c, "name")) {
			case "author", "dc.creator":
				w.meta.Author = attr(c, "content")
			}
		}
	}
}

func (w *htmlWalker) startBlock() {
	w.blockStart = true
	w.pendingSpace = false
}

// space writes a collapsed separator before inline content if one is
// pending.
func (w *htmlWalker) space() {
	if w.pendingSpace && !w.blockStart {
		w.b.Text(" ")
	}
	w.pendingSpace = false
}

func (w *htmlWalker) text(s string) {
	if s == "" {
		return
	}
	if unicode.IsSpace(rune(s[0])) {
		w.pendingSpace = true
	}

	for i, word := range strings.Fields(s) {
		if i > 0 {
			w.pendingSpace = true
		}
		w.space()
		w.b.Text(word)
		w.blockStart = false
	}

	if unicode.IsSpace(rune(s[len(s)-1])) {
		w.pendingSpace = true
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && htmlBlocks[c.DataAtom] {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return sb.String()
}

func styleDeclares(n *html.Node, decls ...string) bool {
	style := strings.ToLower(strings.ReplaceAll(attr(n, "style"), " ", ""))
	for _, d := range decls {
		if strings.Contains(style, d) {
			return true
		}
	}
	return false
}

func breakBefore(n *html.Node) bool {
	return styleDeclares(n, "page-break-before:always", "break-before:page")
}

func breakAfter(n *html.Node) bool {
	return styleDeclares(n, "page-break-after:always", "break-after:page")
}
