// Package quire wires the reader core to its stores for the commands.
package quire

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/hay-kot/quire/internal/core/config"
	"github.com/hay-kot/quire/internal/core/kv"
	"github.com/hay-kot/quire/internal/core/layout"
	"github.com/hay-kot/quire/internal/core/library"
	"github.com/hay-kot/quire/internal/core/loader"
	"github.com/hay-kot/quire/internal/core/progress"
	"github.com/hay-kot/quire/internal/core/reader"
	"github.com/hay-kot/quire/internal/core/source"
	"github.com/hay-kot/quire/internal/core/viewer"
	"github.com/hay-kot/quire/internal/data/db"
	"github.com/hay-kot/quire/internal/data/stores"
	"github.com/hay-kot/quire/internal/format"
)

// App is the central entry point for quire operations.
// Commands and the TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Config  *config.Config
	DB      *db.DB
	KV      kv.KV
	Library library.Store
	Formats *format.Registry
	Source  source.FileSource
	Pool    *loader.WorkerPool
}

// NewApp constructs an App over an open database.
func NewApp(cfg *config.Config, database *db.DB) *App {
	return &App{
		Config:  cfg,
		DB:      database,
		KV:      stores.NewKVStore(database),
		Library: stores.NewDocumentStore(database),
		Formats: format.Default(),
		Pool:    loader.NewWorkerPool(cfg.Loader.Workers),
	}
}

// NewLoader returns a loader sharing the app's worker pool. A loader runs
// one load at a time, so concurrent loads need a loader each.
func (a *App) NewLoader(bus *progress.Bus) *loader.Loader {
	return loader.New(a.Source, a.Formats, a.Pool, bus)
}

// ViewerOptions returns the configured viewer options.
func (a *App) ViewerOptions() viewer.Options {
	return viewer.Options{
		DisplayPages: a.Config.Reader.DisplayPages,
		Zoom:         a.Config.Reader.Zoom,
		TabWidth:     a.Config.Reader.TabWidth,
		Chunk:        a.Config.Reader.PaginateChunk,
	}
}

// OpenReader loads id, lays it out for vp and restores its user data. The
// caller must Close the reader to persist changes.
func (a *App) OpenReader(ctx context.Context, id string, vp layout.Viewport, opts viewer.Options) (*reader.Reader, error) {
	view := viewer.New(opts, nil)
	view.Resize(vp.Width, vp.Height)

	r := reader.New(view, a.KV, a.Library)
	if err := r.Open(ctx, a.NewLoader(nil), id); err != nil {
		return nil, err
	}
	return r, nil
}

// Layout loads id with its own loader and lays it out for vp without
// touching user data. Loads of different documents may run concurrently.
func (a *App) Layout(ctx context.Context, id string, vp layout.Viewport, opts viewer.Options) (*viewer.Viewer, error) {
	job := a.NewLoader(nil).Start(ctx, id)
	doc, err := job.Run()
	if err != nil {
		return nil, err
	}

	view := viewer.New(opts, nil)
	view.Resize(vp.Width, vp.Height)
	view.Install(doc, job.Gen)
	view.Finish()
	return view, nil
}

// DocumentID turns a command line argument into a stable document ID.
// Paths are made absolute so user data follows the file, not the working
// directory; URIs are kept as given.
func DocumentID(arg string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("no document given")
	}
	if strings.Contains(arg, "://") {
		if _, err := url.Parse(arg); err != nil {
			return "", fmt.Errorf("parse %q: %w", arg, err)
		}
		return arg, nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", arg, err)
	}
	return abs, nil
}

// LocalPath returns the file behind id, or "" when id is not a local file.
func (a *App) LocalPath(id string) string {
	p, err := a.Source.Path(id)
	if err != nil {
		return ""
	}
	return p
}
