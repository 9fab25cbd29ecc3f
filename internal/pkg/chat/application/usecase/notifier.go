package usecase

import (
	"context"
	"log/slog"
)

// Events emitted by use cases after their write has completed.
const (
	EventNewMessage     = "new-message"
	EventMessageEdited  = "message-edited"
	EventMessageDeleted = "message-deleted"
	EventMessagesRead   = "messages-read"
)

// Notifier broadcasts an event to the room of a chat.
type Notifier interface {
	NotifyRoom(ctx context.Context, chatID, event string, data any, excludeUserID string) error
}

type nopNotifier struct{}

func (nopNotifier) NotifyRoom(context.Context, string, string, any, string) error { return nil }

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
