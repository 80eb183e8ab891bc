package notification

import (
	"context"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

func (l Level) Icon() string {
	switch l {
	case LevelSuccess:
		return "check-circle"
	case LevelError:
		return "exclamation-circle"
	case LevelWarning:
		return "exclamation-triangle"
	}
	return "info-circle"
}

// Notification is a toast. A session holds at most one at a time.
type Notification struct {
	Level     Level         `json:"level"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	FadeOut   time.Duration `json:"fadeOut"`
	CreatedAt time.Time     `json:"createdAt"`
}

func (n *Notification) Icon() string {
	return n.Level.Icon()
}

// DismissAt is when the fade-out starts.
func (n *Notification) DismissAt() time.Time {
	return n.CreatedAt.Add(n.Duration)
}

func (n *Notification) VisibleAt(now time.Time) bool {
	return now.Before(n.DismissAt().Add(n.FadeOut))
}

func (n *Notification) DurationMillis() int64 {
	return n.Duration.Milliseconds()
}

func (n *Notification) FadeOutMillis() int64 {
	return n.FadeOut.Milliseconds()
}

type Repository interface {
	// Put replaces any pending notification of the session.
	Put(ctx context.Context, sessionID string, n *Notification, ttl time.Duration) error
	// Pop returns and removes the pending notification, or nil.
	Pop(ctx context.Context, sessionID string) (*Notification, error)
	Clear(ctx context.Context, sessionID string) error
}
