package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quire/internal/quire"
)

const completionLimit = 20

// RecentDocumentCompleter returns a ShellCompleteFunc that suggests recently
// opened documents as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func RecentDocumentCompleter(app *quire.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if app.Library == nil {
			return
		}
		entries, err := app.Library.Recent(ctx, completionLimit)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, e := range entries {
			_, _ = fmt.Fprintln(w, e.ID)
		}
	}
}
