package tui

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToastController_Push(t *testing.T) {
	c := NewToastController()

	c.Push(ToastInfo, "bookmark added")
	latest, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, "bookmark added", latest.text)
	assert.Equal(t, infoToastTTL, latest.remaining)

	c.Push(ToastError, "no more matches")
	latest, _ = c.Latest()
	assert.Equal(t, errorToastTTL, latest.remaining)
}

func TestToastController_Push_repeat_restarts_countdown(t *testing.T) {
	c := NewToastController()
	c.Push(ToastError, "no more matches")
	c.Tick(time.Second)

	c.Push(ToastError, "no more matches")

	require.Len(t, c.toasts, 1)
	assert.Equal(t, errorToastTTL, c.toasts[0].remaining)
}

func TestToastController_Push_evicts_oldest_at_max(t *testing.T) {
	c := NewToastController()

	for i := range maxToasts + 2 {
		c.Push(ToastInfo, fmt.Sprint(i))
	}

	assert.Len(t, c.toasts, maxToasts)
	assert.Equal(t, "2", c.toasts[0].text)
}

func TestToastController_Tick_removes_expired(t *testing.T) {
	c := NewToastController()
	c.Push(ToastInfo, "expires")
	c.Tick(infoToastTTL / 2)
	c.Push(ToastError, "survives")

	c.Tick(infoToastTTL/2 + time.Millisecond)

	require.Len(t, c.toasts, 1)
	assert.Equal(t, "survives", c.toasts[0].text)
}

func TestToastController_DismissAll(t *testing.T) {
	c := NewToastController()
	c.Push(ToastInfo, "a")
	c.Push(ToastInfo, "b")

	c.DismissAll()

	assert.False(t, c.HasToasts())
	_, ok := c.Latest()
	assert.False(t, ok)
}
