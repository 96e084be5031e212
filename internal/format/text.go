package format

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hay-kot/quire/internal/core/document"
)

// Text treats input as plain text. Blank lines separate paragraphs and form
// feeds force page breaks.
type Text struct{}

// Name returns "text".
func (Text) Name() string { return "text" }

// Parse implements Handler.
func (Text) Parse(ctx context.Context, id string, r io.Reader) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	s := strings.ToValidUTF8(string(data), "�")
	s = strings.ReplaceAll(s, "\r\n", "\n")

	b := document.NewBuilder()
	for i, page := range strings.Split(s, "\f") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			b.PageBreak()
		}
		for _, para := range strings.Split(page, "\n\n") {
			para = strings.Trim(para, "\n")
			if strings.TrimSpace(para) == "" {
				continue
			}
			b.Open(document.KindParagraph, 0, nil)
			b.Text(para)
			b.Close()
		}
	}

	return b.Build(id, document.Metadata{ContentType: "text/plain"}), nil
}
