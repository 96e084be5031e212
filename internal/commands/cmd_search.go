package commands

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quire/internal/quire"
	"github.com/hay-kot/quire/pkg/iojson"
)

type SearchCmd struct {
	flags *Flags
	app   *quire.App

	// flags
	vp      viewportFlags
	limit   int
	jsonOut bool
}

// NewSearchCmd creates a new search command
func NewSearchCmd(flags *Flags, app *quire.App) *SearchCmd {
	return &SearchCmd{flags: flags, app: app}
}

// Register adds the search command to the application
func (cmd *SearchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "search",
		Usage:     "Find text in a document",
		UsageText: "quire search [options] <file> <query>",
		Description: `Prints every match of the query with the page it falls on. Matching
ignores case but not accents, like search in the reader.`,
		Flags: append(cmd.vp.Flags(),
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "stop after this many matches (0 for all)",
				Destination: &cmd.limit,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output one JSON object per match",
				Destination: &cmd.jsonOut,
			},
		),
		ShellComplete: RecentDocumentCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

// SearchResult is one match.
type SearchResult struct {
	Page    int    `json:"page"`
	Offset  int    `json:"offset"`
	Length  int    `json:"length"`
	Snippet string `json:"snippet"`
}

const snippetContext = 24

func (cmd *SearchCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: quire search <file> <query>")
	}
	id, err := documentArg(c)
	if err != nil {
		return err
	}
	query := strings.Join(c.Args().Tail(), " ")

	view, err := cmd.app.Layout(ctx, id, cmd.vp.Viewport(), cmd.app.ViewerOptions())
	if err != nil {
		return err
	}

	text := view.Document().Text()
	var results []SearchResult
	for m, ok := view.SearchNext(query); ok; m, ok = view.SearchNext(query) {
		page, err := view.Layout().PageIndexOf(m.Offset)
		if err != nil {
			return err
		}
		results = append(results, SearchResult{
			Page:    page + 1,
			Offset:  m.Offset,
			Length:  m.Length,
			Snippet: snippet(text, m.Offset, m.End()),
		})
		if cmd.limit > 0 && len(results) >= cmd.limit {
			break
		}
	}

	w := c.Root().Writer
	if cmd.jsonOut {
		for _, r := range results {
			if err := iojson.WriteLine(w, r); err != nil {
				return err
			}
		}
		return nil
	}

	if len(results) == 0 {
		return fmt.Errorf("no match for %q", query)
	}

	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "PAGE\tOFFSET\tMATCH")
	for _, r := range results {
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\n", r.Page, r.Offset, r.Snippet)
	}
	return tw.Flush()
}

// snippet returns the text around [start, end) on one line.
func snippet(text string, start, end int) string {
	from := max(start-snippetContext, 0)
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	to := min(end+snippetContext, len(text))
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}

	s := strings.Join(strings.Fields(text[from:to]), " ")
	if from > 0 {
		s = "…" + s
	}
	if to < len(text) {
		s += "…"
	}
	return s
}
