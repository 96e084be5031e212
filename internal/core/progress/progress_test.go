package progress

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishInOrder(t *testing.T) {
	bus := NewBus()

	var a, b []Kind
	bus.Subscribe(func(e Event) { a = append(a, e.Kind) })
	bus.Subscribe(func(e Event) { b = append(b, e.Kind) })

	for _, k := range []Kind{ConstructStarted, ConstructFinished, PaginateProgress, PaginateFinished} {
		bus.Publish(Event{Kind: k})
	}

	want := []Kind{ConstructStarted, ConstructFinished, PaginateProgress, PaginateFinished}
	assert.Equal(t, want, a)
	assert.Equal(t, want, b)
}

func TestBus_SubscribeDuringPublish(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.Subscribe(func(Event) {
		calls++
		bus.Subscribe(func(Event) { calls++ })
	})

	bus.Publish(Event{})
	assert.Equal(t, 1, calls, "subscribers added during publish see the next event")
}

func TestEvent_Fraction(t *testing.T) {
	tests := []struct {
		event Event
		want  float64
	}{
		{Event{Kind: PaginateProgress, Current: 25, Max: 100}, 0.25},
		{Event{Kind: PaginateProgress, Current: 5, Max: 0}, 0},
		{Event{Kind: PaginateProgress, Current: 200, Max: 100}, 1},
		{Event{Kind: PaginateFinished}, 1},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, tt.event.Fraction(), 0.0001, tt.event.Kind.String())
	}
}

func TestRegisterDebugLogger(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus()
	RegisterDebugLogger(bus, zerolog.New(&buf).Level(zerolog.DebugLevel))

	bus.Publish(Event{Kind: PaginateProgress, DocID: "book.md", Gen: 2, Current: 10, Max: 20})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "paginate:progress", entry["event"])
	assert.Equal(t, "book.md", entry["doc_id"])
	assert.InDelta(t, 2, entry["gen"], 0)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "construct:started", ConstructStarted.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
