package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreprogress "github.com/hay-kot/quire/internal/core/progress"
)

func TestEventBuffer_Drain_empty_returnsNil(t *testing.T) {
	assert.Nil(t, NewEventBuffer().Drain())
}

func TestEventBuffer_PushDrain_keepsEveryStage(t *testing.T) {
	b := NewEventBuffer()
	for i := range 200 {
		b.Push(coreprogress.Event{Kind: coreprogress.ConstructStarted, Gen: uint64(i)})
	}

	events := b.Drain()
	require.Len(t, events, 200)
	assert.Equal(t, uint64(0), events[0].Gen)
	assert.Equal(t, uint64(199), events[199].Gen)
	assert.Nil(t, b.Drain())
}

func TestEventBuffer_Push_collapsesProgressRuns(t *testing.T) {
	b := NewEventBuffer()
	b.Push(coreprogress.Event{Kind: coreprogress.ConstructFinished, Gen: 1})
	b.Push(coreprogress.Event{Kind: coreprogress.PaginateProgress, Gen: 1, Current: 10})
	b.Push(coreprogress.Event{Kind: coreprogress.PaginateProgress, Gen: 1, Current: 20})
	b.Push(coreprogress.Event{Kind: coreprogress.PaginateProgress, Gen: 2, Current: 5})
	b.Push(coreprogress.Event{Kind: coreprogress.PaginateFinished, Gen: 2})

	events := b.Drain()
	require.Len(t, events, 4)
	assert.Equal(t, coreprogress.ConstructFinished, events[0].Kind)
	assert.Equal(t, 20, events[1].Current)
	assert.Equal(t, uint64(2), events[2].Gen)
	assert.Equal(t, coreprogress.PaginateFinished, events[3].Kind)
}

func TestEventBuffer_WaitForSignal(t *testing.T) {
	b := NewEventBuffer()
	cmd := b.WaitForSignal()

	done := make(chan any, 1)
	go func() { done <- cmd() }()

	b.Push(coreprogress.Event{Kind: coreprogress.ConstructStarted, Gen: 1})

	select {
	case msg := <-done:
		assert.IsType(t, drainEventsMsg{}, msg)
	case <-time.After(time.Second):
		t.Fatal("signal not delivered")
	}
}
