package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	coreprogress "github.com/hay-kot/quire/internal/core/progress"
)

// EventBuffer queues progress events for the Update loop. Publishers never
// block and no event is lost; runs of PaginateProgress for one generation
// collapse into the newest.
type EventBuffer struct {
	mu     sync.Mutex
	events []coreprogress.Event
	signal chan struct{}
}

// NewEventBuffer constructs an empty buffer.
func NewEventBuffer() *EventBuffer {
	return &EventBuffer{signal: make(chan struct{}, 1)}
}

// Push appends e and emits a non-blocking drain signal.
func (b *EventBuffer) Push(e coreprogress.Event) {
	b.mu.Lock()
	if n := len(b.events); n > 0 && e.Kind == coreprogress.PaginateProgress {
		if last := b.events[n-1]; last.Kind == coreprogress.PaginateProgress && last.Gen == e.Gen {
			b.events[n-1] = e
			b.mu.Unlock()
			b.notify()
			return
		}
	}
	b.events = append(b.events, e)
	b.mu.Unlock()
	b.notify()
}

func (b *EventBuffer) notify() {
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Drain returns the buffered events in publish order and clears the buffer.
func (b *EventBuffer) Drain() []coreprogress.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]coreprogress.Event, len(b.events))
	copy(out, b.events)
	b.events = b.events[:0]
	return out
}

// WaitForSignal blocks until there are events to drain.
func (b *EventBuffer) WaitForSignal() tea.Cmd {
	return func() tea.Msg {
		<-b.signal
		return drainEventsMsg{}
	}
}
