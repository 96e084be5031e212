package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quire/internal/quire"
	"github.com/hay-kot/quire/pkg/iojson"
)

type PagesCmd struct {
	flags *Flags
	app   *quire.App

	// flags
	vp      viewportFlags
	page    int
	jsonOut bool
}

// NewPagesCmd creates a new pages command
func NewPagesCmd(flags *Flags, app *quire.App) *PagesCmd {
	return &PagesCmd{flags: flags, app: app}
}

// Register adds the pages command to the application
func (cmd *PagesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "pages",
		Usage:     "List the pages of a document or print one page",
		UsageText: "quire pages [options] <file>",
		Description: `Lays the document out for the page size and lists each page with its
byte range and first line. With --page the text of that page is printed
instead.`,
		Flags: append(cmd.vp.Flags(),
			&cli.IntFlag{
				Name:        "page",
				Aliases:     []string{"p"},
				Usage:       "print the text of this page (1-based)",
				Destination: &cmd.page,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output one JSON object per page",
				Destination: &cmd.jsonOut,
			},
		),
		ShellComplete: RecentDocumentCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

// PageInfo describes one page of a layout.
type PageInfo struct {
	Page  int    `json:"page"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Lines int    `json:"lines"`
	First string `json:"first_line"`
}

const firstLineWidth = 48

func (cmd *PagesCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := documentArg(c)
	if err != nil {
		return err
	}

	view, err := cmd.app.Layout(ctx, id, cmd.vp.Viewport(), cmd.app.ViewerOptions())
	if err != nil {
		return err
	}

	w := c.Root().Writer
	count := view.PageCount()

	if cmd.page != 0 {
		if cmd.page < 1 || cmd.page > count {
			return fmt.Errorf("page %d out of range 1-%d", cmd.page, count)
		}
		lines, err := view.PageText(cmd.page - 1)
		if err != nil {
			return err
		}
		for _, l := range lines {
			_, _ = fmt.Fprintln(w, strings.TrimRight(l, "\r\n"))
		}
		return nil
	}

	pages := make([]PageInfo, 0, count)
	for i := range count {
		pg, err := view.Layout().Page(i)
		if err != nil {
			return err
		}
		info := PageInfo{Page: i + 1, Start: pg.Start, End: pg.End, Lines: len(pg.Lines)}
		if text, err := view.PageText(i); err == nil {
			for _, l := range text {
				if l = strings.TrimSpace(l); l != "" {
					info.First = l
					break
				}
			}
		}
		pages = append(pages, info)
	}

	if cmd.jsonOut {
		for _, p := range pages {
			if err := iojson.WriteLine(w, p); err != nil {
				return err
			}
		}
		return nil
	}

	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "PAGE\tSTART\tEND\tLINES\tFIRST LINE")
	for _, p := range pages {
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\n", p.Page, p.Start, p.End, p.Lines, runewidth.Truncate(p.First, firstLineWidth, "…"))
	}
	return tw.Flush()
}
