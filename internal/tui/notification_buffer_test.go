package tui

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/markreview/internal/core/notify"
)

func TestNotificationBuffer_Drain_empty_returnsNil(t *testing.T) {
	b := NewNotificationBuffer()
	assert.Nil(t, b.Drain())
}

func TestNotificationBuffer_PushDrain_orderAndClear(t *testing.T) {
	b := NewNotificationBuffer()
	b.Push(notify.Error("save-comment", "first"))
	b.Push(notify.Info("review", "second"))

	items := b.Drain()
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Message)
	assert.Equal(t, "second", items[1].Message)
	assert.False(t, items[0].CreatedAt.IsZero())
	assert.Nil(t, b.Drain())
}

func TestNotificationBuffer_WaitForSignal_singleSignalDrainsAll(t *testing.T) {
	b := NewNotificationBuffer()
	b.Push(notify.Error("delete-comment", "one"))
	b.Push(notify.Error("delete-comment", "two"))

	msg := b.WaitForSignal()()
	_, ok := msg.(drainNotificationsMsg)
	require.True(t, ok)

	items := b.Drain()
	require.Len(t, items, 2)
	assert.Equal(t, "one", items[0].Message)
	assert.Equal(t, "two", items[1].Message)
}

func TestNotificationBuffer_Push_overflowDropsOldest(t *testing.T) {
	b := NewNotificationBuffer()
	for i := range maxPendingNotifications + 3 {
		b.Push(notify.Error("job-status", fmt.Sprint(i)))
	}

	items := b.Drain()
	require.Len(t, items, maxPendingNotifications+1)
	assert.Equal(t, notify.LevelWarning, items[0].Level)
	assert.Contains(t, items[0].Message, "3 older notification(s)")
	assert.Equal(t, "3", items[1].Message)

	b.Push(notify.Info("review", "fresh"))
	items = b.Drain()
	require.Len(t, items, 1, "drop count resets after a drain")
	assert.Equal(t, "fresh", items[0].Message)
}

func TestNotificationBuffer_Push_concurrent(t *testing.T) {
	b := NewNotificationBuffer()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Push(notify.Error("save-comment", "boom"))
		}()
	}
	wg.Wait()

	assert.Len(t, b.Drain(), 20)
}
