package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/quire/internal/core/document"
	"github.com/hay-kot/quire/internal/core/layout"
	"github.com/hay-kot/quire/internal/core/library"
	"github.com/hay-kot/quire/internal/core/reader"
	"github.com/hay-kot/quire/internal/quire"
)

// viewportFlags are the page size flags shared by the commands that lay a
// document out.
type viewportFlags struct {
	width  int
	height int
}

func (f *viewportFlags) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "width",
			Usage:       "page width in cells (defaults to the terminal width)",
			Destination: &f.width,
		},
		&cli.IntFlag{
			Name:        "height",
			Usage:       "page height in cells (defaults to the terminal height)",
			Destination: &f.height,
		},
	}
}

const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

// Viewport returns the flag values, filling unset ones from the terminal
// size when stdout is a terminal and from 80x24 otherwise.
func (f *viewportFlags) Viewport() layout.Viewport {
	vp := layout.Viewport{Width: f.width, Height: f.height}
	if vp.Width > 0 && vp.Height > 0 {
		return vp
	}

	w, h := fallbackWidth, fallbackHeight
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if tw, th, err := term.GetSize(fd); err == nil {
			w, h = tw, th-1
		}
	}
	if vp.Width <= 0 {
		vp.Width = w
	}
	if vp.Height <= 0 {
		vp.Height = h
	}
	return vp
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// documentArg resolves the first positional argument to a document ID.
func documentArg(c *cli.Command) (string, error) {
	if c.Args().Len() < 1 {
		return "", fmt.Errorf("missing document argument")
	}
	return quire.DocumentID(c.Args().First())
}

// docTitle returns the document title, or its file name when the document
// has neither a title nor a heading.
func docTitle(doc *document.Document) string {
	title := doc.Title()
	if title == doc.ID() {
		title = ""
	}
	return library.Entry{ID: doc.ID(), Title: title}.DisplayName()
}

// closeWith persists r and returns the first of err and the close error.
func closeWith(ctx context.Context, r *reader.Reader, err error) error {
	if cerr := r.Close(ctx); err == nil {
		err = cerr
	}
	return err
}
