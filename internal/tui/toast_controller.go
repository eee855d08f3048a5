package tui

import (
	"time"

	"github.com/colonyops/markreview/internal/core/notify"
)

const (
	defaultToastTTL   = 5 * time.Second
	defaultMaxToasts  = 5
	toastTickInterval = 100 * time.Millisecond
	toastWidth        = 50
)

type toast struct {
	notification notify.Notification
	remaining    time.Duration
	// repeat counts identical notifications folded into this toast.
	repeat int
}

// ToastController owns the stack of toasts over the review board: results of
// comment and review requests, snapshot reloads and job status changes.
// Errors stay up twice as long as other levels, and a notification equal to
// the newest toast bumps its counter instead of stacking a copy.
type ToastController struct {
	ttl     time.Duration
	toasts  []toast
	ticking bool
}

// NewToastController creates a controller whose toasts live for ttl. A
// non-positive ttl uses the default.
func NewToastController(ttl time.Duration) *ToastController {
	if ttl <= 0 {
		ttl = defaultToastTTL
	}
	return &ToastController{ttl: ttl}
}

func (c *ToastController) lifetime(level notify.Level) time.Duration {
	if level == notify.LevelError {
		return 2 * c.ttl
	}
	return c.ttl
}

// Push shows n. Past defaultMaxToasts the oldest toast is evicted.
func (c *ToastController) Push(n notify.Notification) {
	if last := len(c.toasts) - 1; last >= 0 && sameToast(c.toasts[last].notification, n) {
		c.toasts[last].repeat++
		c.toasts[last].remaining = c.lifetime(n.Level)
		return
	}

	c.toasts = append(c.toasts, toast{
		notification: n,
		remaining:    c.lifetime(n.Level),
		repeat:       1,
	})
	if len(c.toasts) > defaultMaxToasts {
		c.toasts = c.toasts[len(c.toasts)-defaultMaxToasts:]
	}
}

func sameToast(a, b notify.Notification) bool {
	return a.Level == b.Level && a.Action == b.Action && a.Message == b.Message
}

// Tick counts every toast down by d and drops the expired ones.
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

// Dismiss removes the newest (bottom-most) toast.
func (c *ToastController) Dismiss() {
	if len(c.toasts) > 0 {
		c.toasts = c.toasts[:len(c.toasts)-1]
	}
}

func (c *ToastController) HasToasts() bool {
	return len(c.toasts) > 0
}

func (c *ToastController) Toasts() []toast {
	return c.toasts
}

// Ticking reports whether an expiry tick is scheduled.
func (c *ToastController) Ticking() bool {
	return c.ticking
}

func (c *ToastController) SetTicking(v bool) {
	c.ticking = v
}
