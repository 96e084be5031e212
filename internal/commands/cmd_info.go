package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/hay-kot/quire/internal/quire"
	"github.com/hay-kot/quire/pkg/iojson"
)

type InfoCmd struct {
	flags *Flags
	app   *quire.App

	// flags
	vp       viewportFlags
	jsonOut  bool
	parallel int
}

// NewInfoCmd creates a new info command
func NewInfoCmd(flags *Flags, app *quire.App) *InfoCmd {
	return &InfoCmd{flags: flags, app: app}
}

// Register adds the info command to the application
func (cmd *InfoCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "info",
		Usage:     "Show metadata and page counts of documents",
		UsageText: "quire info [options] <file>...",
		Description: `Loads each document and lays it out for the page size, then prints its
metadata. Documents are loaded in parallel on the loader worker pool.`,
		Flags: append(cmd.vp.Flags(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output one JSON object per document",
				Destination: &cmd.jsonOut,
			},
			&cli.IntFlag{
				Name:        "parallel",
				Usage:       "maximum documents loaded at once (defaults to loader.workers)",
				Destination: &cmd.parallel,
			},
		),
		ShellComplete: RecentDocumentCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

// DocumentInfo describes one laid out document.
type DocumentInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	ContentType string `json:"content_type"`
	Bytes       int    `json:"bytes"`
	Pages       int    `json:"pages"`
	Headings    int    `json:"headings"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

func (cmd *InfoCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("missing document argument")
	}

	ids := make([]string, c.Args().Len())
	for i, arg := range c.Args().Slice() {
		id, err := quire.DocumentID(arg)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	infos, err := cmd.collect(ctx, ids)
	if err != nil {
		return err
	}

	w := c.Root().Writer

	if cmd.jsonOut {
		for _, info := range infos {
			if err := iojson.WriteLine(w, info); err != nil {
				return err
			}
		}
		return nil
	}

	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "TITLE\tAUTHOR\tTYPE\tBYTES\tPAGES\tHEADINGS")
	for _, info := range infos {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
			info.Title, orDash(info.Author), info.ContentType, info.Bytes, info.Pages, info.Headings)
	}
	return tw.Flush()
}

// collect lays out every document, keeping the argument order.
func (cmd *InfoCmd) collect(ctx context.Context, ids []string) ([]DocumentInfo, error) {
	vp := cmd.vp.Viewport()
	opts := cmd.app.ViewerOptions()

	limit := cmd.parallel
	if limit <= 0 {
		limit = cmd.app.Pool.Size()
	}

	infos := make([]DocumentInfo, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, id := range ids {
		g.Go(func() error {
			view, err := cmd.app.Layout(ctx, id, vp, opts)
			if err != nil {
				return err
			}

			doc := view.Document()
			meta := doc.Metadata()
			infos[i] = DocumentInfo{
				ID:          id,
				Title:       docTitle(doc),
				Author:      meta.Author,
				ContentType: meta.ContentType,
				Bytes:       doc.Len(),
				Pages:       view.PageCount(),
				Headings:    len(doc.Outline()),
				Width:       vp.Width,
				Height:      vp.Height,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
