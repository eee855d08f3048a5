// Package notify dispatches user-facing notifications to in-process
// subscribers and records them in the notification history.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/markreview/internal/core/logging"
	"github.com/colonyops/markreview/internal/core/notify"
)

// Subscriber is a callback invoked when a notification is published.
type Subscriber func(notify.Notification)

// Bus is a synchronous notification bus. Publish persists the notification
// and then calls every subscriber inline on the caller's goroutine, so
// subscribers that touch UI state must hand off to the UI loop themselves.
// The Bus is safe for concurrent use.
type Bus struct {
	store notify.Store
	log   zerolog.Logger

	mu          sync.Mutex
	subscribers []Subscriber
}

// NewBus creates a notification bus backed by the given store.
// If store is nil, notifications are dispatched to subscribers but not persisted.
func NewBus(store notify.Store) *Bus {
	return &Bus{
		store: store,
		log:   logging.Component("notify"),
	}
}

// Subscribe registers a callback that will be invoked on every Publish.
func (b *Bus) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// Publish persists n and dispatches it to all subscribers.
func (b *Bus) Publish(n notify.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	// Persist first so subscribers see the stored ID.
	if b.store != nil {
		id, err := b.store.Save(context.Background(), n)
		if err != nil {
			b.log.Error().Err(err).Str("message", n.Message).Msg("failed to persist notification")
		} else {
			n.ID = id
		}
	}

	b.log.Debug().Str("level", string(n.Level)).Str("action", n.Action).Str("message", n.Message).Msg("notification")

	b.mu.Lock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Errorf publishes an error-level notification for action.
func (b *Bus) Errorf(action, format string, args ...any) {
	b.Publish(notify.Error(action, fmt.Sprintf(format, args...)))
}

// Infof publishes an info-level notification for action.
func (b *Bus) Infof(action, format string, args ...any) {
	b.Publish(notify.Info(action, fmt.Sprintf(format, args...)))
}

// History returns all persisted notifications, newest first.
// Returns nil if no store is configured.
func (b *Bus) History(ctx context.Context) ([]notify.Notification, error) {
	if b.store == nil {
		return nil, nil
	}
	return b.store.List(ctx)
}

// Clear deletes all persisted notifications.
func (b *Bus) Clear(ctx context.Context) error {
	if b.store == nil {
		return nil
	}
	return b.store.Clear(ctx)
}
