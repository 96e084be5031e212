package loader

import "context"

// WorkerPool limits how many documents are read and parsed at once.
type WorkerPool struct {
	sem chan struct{}
}

// NewWorkerPool creates a new worker pool with the given size.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = 2
	}
	return &WorkerPool{
		sem: make(chan struct{}, size),
	}
}

// Size returns the number of worker slots.
func (p *WorkerPool) Size() int { return cap(p.sem) }

// RunContext executes fn with a worker slot held, respecting context
// cancellation. Returns ctx.Err() if the context is cancelled while
// waiting for a slot.
func (p *WorkerPool) RunContext(ctx context.Context, fn func()) error {
	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
		fn()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
