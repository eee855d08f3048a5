// Package notify defines the notification values surfaced to the user after
// remote mutations and the storage contract for their history.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Level represents the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a single user-facing message.
type Notification struct {
	ID        int64
	Level     Level
	Message   string
	Action    string // operation that produced it, e.g. "save-comment"
	CreatedAt time.Time
}

// Error builds an error-level notification for action.
func Error(action, message string) Notification {
	return Notification{Level: LevelError, Action: action, Message: message}
}

// Info builds an info-level notification for action.
func Info(action, message string) Notification {
	return Notification{Level: LevelInfo, Action: action, Message: message}
}

// Failed builds the error notification for a failed action. A message
// written by the server is shown as is; anything else is prefixed with the
// action.
func Failed(action string, err error) Notification {
	var msg interface{ ServerMessage() string }
	if errors.As(err, &msg) {
		return Error(action, msg.ServerMessage())
	}
	return Error(action, fmt.Sprintf("%s: %v", action, err))
}

// Store persists notifications to durable storage.
type Store interface {
	Save(ctx context.Context, n Notification) (int64, error)
	List(ctx context.Context) ([]Notification, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}
