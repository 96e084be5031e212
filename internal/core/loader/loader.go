// Package loader reads and parses documents off the UI goroutine.
package loader

import (
	"context"
	"sync"
	"time"

	"github.com/hay-kot/quire/internal/core/document"
	"github.com/hay-kot/quire/internal/core/logging"
	"github.com/hay-kot/quire/internal/core/progress"
	"github.com/hay-kot/quire/internal/core/source"
	"github.com/hay-kot/quire/internal/format"
)

// Loader opens documents from a source and parses them with the handler
// the format registry picks. Starting a load cancels the one in flight;
// every load carries a generation so callers can drop stale results.
type Loader struct {
	src     source.Source
	formats *format.Registry
	pool    *WorkerPool
	bus     *progress.Bus

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// New creates a loader. A nil bus disables progress events.
func New(src source.Source, formats *format.Registry, pool *WorkerPool, bus *progress.Bus) *Loader {
	if pool == nil {
		pool = NewWorkerPool(0)
	}
	return &Loader{src: src, formats: formats, pool: pool, bus: bus}
}

// Job is one scheduled load.
type Job struct {
	ID  string
	Gen uint64

	ctx    context.Context
	cancel context.CancelFunc
	l      *Loader
}

// Start reserves the next generation for id and cancels the previous load.
// Call it on the UI goroutine and Run the job in the background.
func (l *Loader) Start(ctx context.Context, id string) *Job {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}

	l.gen++
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	ctx = logging.WithDocumentID(ctx, id)
	ctx = logging.WithGeneration(ctx, l.gen)

	return &Job{ID: id, Gen: l.gen, ctx: ctx, cancel: cancel, l: l}
}

// Load starts and runs a load in the calling goroutine.
func (l *Loader) Load(ctx context.Context, id string) (*document.Document, error) {
	return l.Start(ctx, id).Run()
}

// Current returns the newest generation handed out.
func (l *Loader) Current() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// IsCurrent reports whether gen is the newest generation.
func (l *Loader) IsCurrent(gen uint64) bool {
	return l.Current() == gen
}

// Cancel stops the load in flight, if any.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Run waits for a worker slot, then reads and parses the document. It
// publishes ConstructStarted once parsing begins. Nothing is installed; the
// caller hands the document to the viewer on the UI goroutine.
func (j *Job) Run() (*document.Document, error) {
	defer j.cancel()

	log := logging.Component("loader")
	var (
		doc *document.Document
		err error
	)

	started := time.Now()
	if perr := j.l.pool.RunContext(j.ctx, func() { doc, err = j.parse() }); perr != nil {
		err = &LoadError{ID: j.ID, Op: "queue", Err: perr}
	}

	if err != nil {
		log.Warn().Ctx(j.ctx).Err(err).Msg("load failed")
		return nil, err
	}

	log.Debug().Ctx(j.ctx).
		Int("bytes", doc.Len()).
		Dur("elapsed", time.Since(started)).
		Msg("document parsed")
	return doc, nil
}

func (j *Job) parse() (*document.Document, error) {
	handler, err := j.l.formats.Lookup(j.ID)
	if err != nil {
		return nil, &LoadError{ID: j.ID, Op: "lookup", Err: err}
	}

	r, err := j.l.src.OpenReader(j.ctx, j.ID)
	if err != nil {
		return nil, &LoadError{ID: j.ID, Op: "open", Err: err}
	}
	defer func() { _ = r.Close() }()

	if j.l.bus != nil {
		j.l.bus.Publish(progress.Event{Kind: progress.ConstructStarted, DocID: j.ID, Gen: j.Gen})
	}

	doc, err := handler.Parse(j.ctx, j.ID, r)
	if err != nil {
		return nil, &LoadError{ID: j.ID, Op: "parse", Err: err}
	}
	if err := j.ctx.Err(); err != nil {
		return nil, &LoadError{ID: j.ID, Op: "parse", Err: err}
	}
	return doc, nil
}
