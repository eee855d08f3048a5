package tui

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/markreview/internal/core/notify"
)

// maxPendingNotifications bounds the backlog between drains. A job status
// watcher failing every poll must not grow it without limit.
const maxPendingNotifications = 64

type drainNotificationsMsg struct{}

// NotificationBuffer is the hand-off between the notification bus, which
// publishes from request goroutines, and the Bubble Tea loop that owns the
// toast stack. Any number of pushes between two drains produce one
// drainNotificationsMsg.
type NotificationBuffer struct {
	mu      sync.Mutex
	pending []notify.Notification
	dropped int
	signal  chan struct{}
}

func NewNotificationBuffer() *NotificationBuffer {
	return &NotificationBuffer{signal: make(chan struct{}, 1)}
}

// Push queues n for the next drain. It is meant to be subscribed to the bus
// and never blocks. Once the backlog is full the oldest entry is dropped.
func (b *NotificationBuffer) Push(n notify.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	b.mu.Lock()
	if len(b.pending) == maxPendingNotifications {
		b.pending = append(b.pending[:0], b.pending[1:]...)
		b.dropped++
	}
	b.pending = append(b.pending, n)
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Drain hands the queued notifications to the UI in publish order. When the
// backlog overflowed since the last drain, a warning saying how many were
// dropped comes first.
func (b *NotificationBuffer) Drain() []notify.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return nil
	}

	out := make([]notify.Notification, 0, len(b.pending)+1)
	if b.dropped > 0 {
		out = append(out, notify.Notification{
			Level:     notify.LevelWarning,
			Action:    "notifications",
			Message:   fmt.Sprintf("%d older notification(s) not shown; see `markreview notifications ls`", b.dropped),
			CreatedAt: time.Now(),
		})
		b.dropped = 0
	}
	out = append(out, b.pending...)
	b.pending = b.pending[:0]
	return out
}

// WaitForSignal returns a command that blocks until there is something to
// drain.
func (b *NotificationBuffer) WaitForSignal() tea.Cmd {
	return func() tea.Msg {
		<-b.signal
		return drainNotificationsMsg{}
	}
}
