package format

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/hay-kot/quire/internal/core/document"
)

// pageBreakComment is the raw HTML block that forces a page break in
// markdown sources.
const pageBreakComment = "<!-- pagebreak -->"

// Markdown parses CommonMark with goldmark.
type Markdown struct{}

// Name returns "markdown".
func (Markdown) Name() string { return "markdown" }

// Parse implements Handler.
func (Markdown) Parse(ctx context.Context, id string, r io.Reader) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	root := goldmark.New().Parser().Parse(text.NewReader(src))

	w := &mdWalker{src: src, b: document.NewBuilder()}
	if err := w.blocks(ctx, root); err != nil {
		return nil, err
	}

	return w.b.Build(id, document.Metadata{ContentType: "text/markdown"}), nil
}

type mdWalker struct {
	src []byte
	b   *document.Builder
}

func (w *mdWalker) blocks(ctx context.Context, parent ast.Node) error {
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.block(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

func (w *mdWalker) block(ctx context.Context, node ast.Node) error {
	switch n := node.(type) {
	case *ast.Heading:
		w.b.Open(document.KindHeading, n.Level, nil)
		w.inlines(n)
		w.b.Close()
	case *ast.Paragraph:
		w.b.Open(document.KindParagraph, 0, nil)
		w.inlines(n)
		w.b.Close()
	case *ast.TextBlock:
		w.inlines(n)
	case *ast.List:
		w.b.Open(document.KindList, 0, nil)
		defer w.b.Close()
		ordinal := n.Start
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			marker := "• "
			if n.IsOrdered() {
				marker = strconv.Itoa(ordinal) + ". "
				ordinal++
			}
			if err := w.listItem(ctx, item, marker); err != nil {
				return err
			}
		}
	case *ast.Blockquote:
		w.b.Open(document.KindQuote, 0, nil)
		defer w.b.Close()
		return w.blocks(ctx, n)
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		w.b.Open(document.KindCodeBlock, 0, codeAttrs(n, w.src))
		w.b.Text(strings.TrimRight(w.lines(n), "\n"))
		w.b.Close()
	case *ast.ThematicBreak:
		w.b.Open(document.KindRule, 0, nil)
		w.b.Text("* * *")
		w.b.Close()
	case *ast.HTMLBlock:
		if strings.Contains(w.lines(n), pageBreakComment) {
			w.b.PageBreak()
		}
	default:
		return w.blocks(ctx, n)
	}
	return nil
}

func (w *mdWalker) listItem(ctx context.Context, item ast.Node, marker string) error {
	w.b.Open(document.KindListItem, 0, nil)
	defer w.b.Close()
	w.b.Text(marker)

	for child := item.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			if child != item.FirstChild() {
				w.b.LineBreak()
			}
			w.inlines(c)
		default:
			if err := w.block(ctx, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *mdWalker) inlines(parent ast.Node) {
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		w.inline(child)
	}
}

func (w *mdWalker) inline(node ast.Node) {
	switch n := node.(type) {
	case *ast.Text:
		w.b.Text(string(n.Segment.Value(w.src)))
		switch {
		case n.HardLineBreak():
			w.b.LineBreak()
		case n.SoftLineBreak():
			w.b.Text(" ")
		}
	case *ast.String:
		w.b.Text(string(n.Value))
	case *ast.Emphasis:
		kind := document.KindEmphasis
		if n.Level >= 2 {
			kind = document.KindStrong
		}
		w.b.Open(kind, n.Level, nil)
		w.inlines(n)
		w.b.Close()
	case *ast.CodeSpan:
		w.b.Open(document.KindCode, 0, nil)
		w.inlines(n)
		w.b.Close()
	case *ast.Link:
		w.b.Open(document.KindLink, 0, map[string]string{"href": string(n.Destination)})
		w.inlines(n)
		w.b.Close()
	case *ast.AutoLink:
		url := string(n.URL(w.src))
		w.b.Open(document.KindLink, 0, map[string]string{"href": url})
		w.b.Text(string(n.Label(w.src)))
		w.b.Close()
	case *ast.Image:
		w.b.Open(document.KindImage, 0, map[string]string{"src": string(n.Destination)})
		w.b.Text("[image: " + plainText(n, w.src) + "]")
		w.b.Close()
	case *ast.RawHTML:
	default:
		w.inlines(n)
	}
}

func (w *mdWalker) lines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		sb.Write(seg.Value(w.src))
	}
	return sb.String()
}

func codeAttrs(n ast.Node, src []byte) map[string]string {
	if f, ok := n.(*ast.FencedCodeBlock); ok {
		if lang := f.Language(src); len(lang) > 0 {
			return map[string]string{"lang": string(lang)}
		}
	}
	return nil
}

// plainText concatenates the text segments below n.
func plainText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
