// Package notify defines the fire-and-forget notification sink the workflow
// reports user-visible outcomes through. The core decides when and what to
// notify; rendering belongs to the consumer.
package notify

import (
	"context"

	"github.com/dcampelo/storefront/internal/logging"
)

// Kind classifies a notification for the consumer.
type Kind string

const (
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notifier delivers a user-visible message. Implementations must not block
// the caller and must not return errors; delivery is best effort.
type Notifier interface {
	Notify(kind Kind, title, message string)
}

// LogNotifier records notifications in the structured log. It is the
// server-side stand-in for the admin UI's toast area.
type LogNotifier struct {
	l logging.Logger
}

func NewLogNotifier(l logging.Logger) *LogNotifier {
	return &LogNotifier{l: l}
}

func (n *LogNotifier) Notify(kind Kind, title, message string) {
	ctx := context.Background()
	switch kind {
	case KindError:
		n.l.Error(ctx, "notification", "title", title, "message", message)
	case KindWarning:
		n.l.Warn(ctx, "notification", "title", title, "message", message)
	default:
		n.l.Info(ctx, "notification", "title", title, "message", message)
	}
}
