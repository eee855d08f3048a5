package tui

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/markreview/internal/core/notify"
)

func TestToastController_Push(t *testing.T) {
	c := NewToastController(0)

	c.Push(notify.Error("save-comment", "hello"))

	assert.True(t, c.HasToasts())
	assert.Len(t, c.Toasts(), 1)
	assert.Equal(t, "hello", c.Toasts()[0].notification.Message)
	assert.Equal(t, 2*defaultToastTTL, c.Toasts()[0].remaining, "errors stay up longer")
	assert.Equal(t, 1, c.Toasts()[0].repeat)
}

func TestToastController_Push_foldsRepeats(t *testing.T) {
	c := NewToastController(0)
	c.Push(notify.Error("job-status", "status 502"))
	c.Tick(time.Second)
	c.Push(notify.Error("job-status", "status 502"))

	require.Len(t, c.Toasts(), 1)
	assert.Equal(t, 2, c.Toasts()[0].repeat)
	assert.Equal(t, 2*defaultToastTTL, c.Toasts()[0].remaining)
	assert.Contains(t, NewToastView(c).View(), "(x2)")

	c.Push(notify.Info("job-status", "status 502"))
	c.Push(notify.Error("job-status", "status 502"))
	assert.Len(t, c.Toasts(), 3, "only the newest toast is folded into")
}

func TestToastController_Push_customTTL(t *testing.T) {
	c := NewToastController(2 * time.Second)
	c.Push(notify.Info("review", "x"))

	assert.Equal(t, 2*time.Second, c.Toasts()[0].remaining)
}

func TestToastController_Push_evicts_oldest_at_max(t *testing.T) {
	c := NewToastController(0)

	for i := range defaultMaxToasts + 2 {
		c.Push(notify.Info("review", fmt.Sprint(i)))
	}

	assert.Len(t, c.Toasts(), defaultMaxToasts)
	assert.Equal(t, "2", c.Toasts()[0].notification.Message)
}

func TestToastController_Tick_removes_expired(t *testing.T) {
	c := NewToastController(0)
	c.Push(notify.Info("review", "expires"))
	c.Push(notify.Info("review", "survives"))

	c.toasts[0].remaining = 50 * time.Millisecond
	c.Tick(100 * time.Millisecond)

	assert.Len(t, c.Toasts(), 1)
	assert.Equal(t, "survives", c.Toasts()[0].notification.Message)
	assert.Equal(t, defaultToastTTL-100*time.Millisecond, c.Toasts()[0].remaining)
}

func TestToastController_Dismiss(t *testing.T) {
	c := NewToastController(0)
	c.Push(notify.Info("review", "first"))
	c.Push(notify.Info("review", "second"))

	c.Dismiss()

	assert.Len(t, c.Toasts(), 1)
	assert.Equal(t, "first", c.Toasts()[0].notification.Message)

	c.Dismiss()
	c.Dismiss()
	assert.False(t, c.HasToasts())
}
