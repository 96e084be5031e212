package tui

import (
	"time"
)

const (
	infoToastTTL      = 3 * time.Second
	errorToastTTL     = 6 * time.Second
	maxToasts         = 3
	toastTickInterval = 100 * time.Millisecond
)

// ToastLevel selects how a toast is styled.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastError
)

type toast struct {
	text      string
	level     ToastLevel
	remaining time.Duration
}

// ToastController manages the lifecycle of active toast messages.
// It handles push, eviction, TTL countdown, and dismissal.
type ToastController struct {
	toasts  []toast
	ticking bool
}

func NewToastController() *ToastController {
	return &ToastController{}
}

// Push adds a message to the toast stack, evicting the oldest beyond
// maxToasts. Errors stay up longer than confirmations. Pushing the text of
// the newest toast again only restarts its countdown.
func (c *ToastController) Push(level ToastLevel, text string) {
	ttl := infoToastTTL
	if level == ToastError {
		ttl = errorToastTTL
	}

	if n := len(c.toasts); n > 0 && c.toasts[n-1].text == text && c.toasts[n-1].level == level {
		c.toasts[n-1].remaining = ttl
		return
	}

	c.toasts = append(c.toasts, toast{text: text, level: level, remaining: ttl})
	if len(c.toasts) > maxToasts {
		c.toasts = c.toasts[len(c.toasts)-maxToasts:]
	}
}

// Tick decrements the remaining TTL on all toasts by d and removes
// any that have expired.
func (c *ToastController) Tick(d time.Duration) {
	alive := c.toasts[:0]
	for _, t := range c.toasts {
		t.remaining -= d
		if t.remaining > 0 {
			alive = append(alive, t)
		}
	}
	c.toasts = alive
}

// DismissAll removes all active toasts.
func (c *ToastController) DismissAll() {
	c.toasts = c.toasts[:0]
}

// HasToasts returns true if there are any active toasts.
func (c *ToastController) HasToasts() bool {
	return len(c.toasts) > 0
}

// Latest returns the newest toast.
func (c *ToastController) Latest() (toast, bool) {
	if len(c.toasts) == 0 {
		return toast{}, false
	}
	return c.toasts[len(c.toasts)-1], true
}

// Ticking returns whether the tick timer is currently running.
func (c *ToastController) Ticking() bool {
	return c.ticking
}

// SetTicking sets the tick timer state.
func (c *ToastController) SetTicking(v bool) {
	c.ticking = v
}
