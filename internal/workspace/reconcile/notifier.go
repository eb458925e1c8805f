package reconcile

import (
	"context"
	"log/slog"

	models "idealite/internal/domain/models/workspace"
	"idealite/internal/workspace/mutation"
)

// Notification is a user-visible, non-fatal report of a rolled-back mutation.
type Notification struct {
	Op      mutation.Op
	Target  models.NodeRef
	Message string
	Err     error
}

// Notifier surfaces rollbacks to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications as warnings.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	l.Logger.WarnContext(ctx, n.Message,
		"op", n.Op,
		"target", n.Target.String(),
		"error", n.Err,
	)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (fn NotifierFunc) Notify(ctx context.Context, n Notification) { fn(ctx, n) }
