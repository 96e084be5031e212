package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quire/internal/core/library"
	"github.com/hay-kot/quire/internal/quire"
	"github.com/hay-kot/quire/pkg/iojson"
)

type RecentCmd struct {
	flags *Flags
	app   *quire.App

	// flags
	limit   int
	jsonOut bool
}

// NewRecentCmd creates a new recent command
func NewRecentCmd(flags *Flags, app *quire.App) *RecentCmd {
	return &RecentCmd{flags: flags, app: app}
}

// Register adds the recent command to the application
func (cmd *RecentCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "recent",
		Usage:     "List recently opened documents",
		UsageText: "quire recent [options]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "maximum number of documents",
				Value:       20,
				Destination: &cmd.limit,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output one JSON object per document",
				Destination: &cmd.jsonOut,
			},
		},
		Action: cmd.run,
		Commands: []*cli.Command{
			{
				Name:          "forget",
				Usage:         "Remove documents from the recent list",
				UsageText:     "quire recent forget <file>...",
				ShellComplete: RecentDocumentCompleter(cmd.app),
				Action:        cmd.runForget,
			},
		},
	})

	return app
}

func (cmd *RecentCmd) run(ctx context.Context, c *cli.Command) error {
	entries, err := cmd.app.Library.Recent(ctx, cmd.limit)
	if err != nil {
		return fmt.Errorf("list recent documents: %w", err)
	}

	w := c.Root().Writer
	if cmd.jsonOut {
		for _, e := range entries {
			if err := iojson.WriteLine(w, e); err != nil {
				return err
			}
		}
		return nil
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No documents opened yet.")
		return nil
	}

	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "TITLE\tOPENED\tCOUNT\tPATH")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.DisplayName(), e.LastOpened.Local().Format(time.DateTime), e.OpenCount, e.ID)
	}
	return tw.Flush()
}

func (cmd *RecentCmd) runForget(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("missing document argument")
	}

	w := c.Root().Writer
	for _, arg := range c.Args().Slice() {
		id, err := quire.DocumentID(arg)
		if err != nil {
			return err
		}
		// Entries may have been recorded under a URI.
		if _, err := cmd.app.Library.Get(ctx, id); errors.Is(err, library.ErrNotFound) {
			id = arg
		}
		if err := cmd.app.Library.Forget(ctx, id); err != nil {
			return fmt.Errorf("forget %s: %w", arg, err)
		}
		_, _ = fmt.Fprintf(w, "Forgot %s\n", id)
	}
	return nil
}
