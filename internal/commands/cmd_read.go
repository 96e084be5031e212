package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quire/internal/core/progress"
	"github.com/hay-kot/quire/internal/core/watch"
	"github.com/hay-kot/quire/internal/quire"
	"github.com/hay-kot/quire/internal/tui"
)

type ReadCmd struct {
	flags *Flags
	app   *quire.App

	// flags
	noWatch bool
}

// NewReadCmd creates a new read command
func NewReadCmd(flags *Flags, app *quire.App) *ReadCmd {
	return &ReadCmd{flags: flags, app: app}
}

// Flags returns the reader flags for registration on the root command
func (cmd *ReadCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "no-watch",
			Usage:       "do not reload the document when its file changes",
			Sources:     cli.EnvVars("QUIRE_NO_WATCH"),
			Destination: &cmd.noWatch,
		},
	}
}

// Register adds the read command to the application
func (cmd *ReadCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "read",
		Usage:     "Open a document in the reader",
		UsageText: "quire read <file>",
		Description: `Opens the document in the interactive reader. The reading position,
bookmarks and annotations are restored from the last session.

Running 'quire <file>' is the same as 'quire read <file>'.`,
		Flags:         cmd.Flags(),
		ShellComplete: RecentDocumentCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

// Run executes the reader. Exported for use as default command.
func (cmd *ReadCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *ReadCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := documentArg(c)
	if err != nil {
		return err
	}

	bus := progress.NewBus()
	progress.RegisterDebugLogger(bus, log.Logger)

	opts := tui.Options{
		Config:  cmd.app.Config,
		Loader:  cmd.app.NewLoader(bus),
		Bus:     bus,
		KV:      cmd.app.KV,
		Library: cmd.app.Library,
	}

	if cmd.app.Config.Reader.Watch && !cmd.noWatch {
		if path := cmd.app.LocalPath(id); path != "" {
			w, err := watch.New(watch.DefaultDebounce)
			if err != nil {
				log.Warn().Err(err).Msg("file watching unavailable")
			} else {
				defer func() { _ = w.Close() }()
				opts.Watcher = w
				opts.WatchPath = path
			}
		}
	}

	m, err := tui.New(ctx, id, opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
