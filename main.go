package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quire/internal/commands"
	"github.com/hay-kot/quire/internal/core/config"
	"github.com/hay-kot/quire/internal/core/logging"
	"github.com/hay-kot/quire/internal/data/db"
	"github.com/hay-kot/quire/internal/data/stores"
	"github.com/hay-kot/quire/internal/quire"
	"github.com/hay-kot/quire/internal/quire/sweep"
	"github.com/hay-kot/quire/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

const sweepInterval = 5 * time.Minute

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser   func()
		quireApp    = &quire.App{}
		database    *db.DB
		sweepCancel context.CancelFunc
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "quire",
		Usage:     "Read documents in the terminal",
		UsageText: "quire [global options] [command [command options]] [file]",
		Description: `Quire lays documents out into pages that fit the terminal and keeps your
place in them. Bookmarks and annotations follow the text they were made on
when the layout changes.

Run 'quire <file>' to open a document in the reader.
Run 'quire recent' to list the documents you have opened.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("QUIRE_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/quire.log)",
				Sources:     cli.EnvVars("QUIRE_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("QUIRE_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("QUIRE_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; the reader owns the terminal.
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "quire.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			database, err = stores.Open(cfg.DataDir, db.OpenOptions{
				BusyTimeout: cfg.Database.BusyTimeout,
			})
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*quireApp = *quire.NewApp(cfg, database)

			// Expired search queries are swept in the background
			sweepCtx, cancel := context.WithCancel(context.Background())
			sweepCancel = cancel
			go sweep.Start(sweepCtx, stores.NewKVStore(database), sweepInterval)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if sweepCancel != nil {
				sweepCancel()
			}

			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	readCmd := commands.NewReadCmd(flags, quireApp)

	app = readCmd.Register(app)
	app = commands.NewInfoCmd(flags, quireApp).Register(app)
	app = commands.NewPagesCmd(flags, quireApp).Register(app)
	app = commands.NewSearchCmd(flags, quireApp).Register(app)
	app = commands.NewBookmarksCmd(flags, quireApp).Register(app)
	app = commands.NewAnnotationsCmd(flags, quireApp).Register(app)
	app = commands.NewRecentCmd(flags, quireApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	// Register reader flags on root command
	app.Flags = append(app.Flags, readCmd.Flags()...)

	// Open the reader when a file is given without a command
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() == 0 {
			return cli.ShowAppHelp(c)
		}
		return readCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
