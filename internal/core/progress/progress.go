// Package progress carries load and pagination progress from the loader and
// viewer to the status bar.
package progress

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Kind identifies a progress event.
type Kind int

const (
	ConstructStarted Kind = iota
	ConstructFinished
	PaginateProgress
	PaginateFinished
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case ConstructStarted:
		return "construct:started"
	case ConstructFinished:
		return "construct:finished"
	case PaginateProgress:
		return "paginate:progress"
	case PaginateFinished:
		return "paginate:finished"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one progress notification. Current and Max are byte offsets for
// pagination events and zero otherwise.
type Event struct {
	Kind    Kind
	DocID   string
	Gen     uint64
	Current int
	Max     int
}

// Fraction returns Current/Max in [0, 1].
func (e Event) Fraction() float64 {
	switch {
	case e.Kind == PaginateFinished:
		return 1
	case e.Max <= 0:
		return 0
	default:
		return min(float64(e.Current)/float64(e.Max), 1)
	}
}

// Subscriber is a callback invoked when an event is published.
type Subscriber func(Event)

// Bus is a synchronous in-process event bus. Events are delivered inline in
// publish order. Publishing from a background goroutine is allowed;
// subscribers must then be safe to call from it.
type Bus struct {
	mu          sync.Mutex
	subscribers []Subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a callback that will be invoked on every Publish.
func (b *Bus) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// Publish dispatches e to all subscribers.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}

// RegisterDebugLogger logs every event at debug level.
func RegisterDebugLogger(bus *Bus, logger zerolog.Logger) {
	bus.Subscribe(func(e Event) {
		logger.Debug().
			Str("event", e.Kind.String()).
			Str("doc_id", e.DocID).
			Uint64("gen", e.Gen).
			Int("current", e.Current).
			Int("max", e.Max).
			Msg("progress")
	})
}
