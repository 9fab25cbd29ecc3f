package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

type DeleteMessageInput struct {
	MessageID string
	UserID    string
}

// DeleteMessageUseCase tombstones a message. The record keeps its id, chat and
// reply links; only the body is replaced. Deleting twice returns the tombstone
// without a second announcement.
type DeleteMessageUseCase struct {
	Repo     repository.ChatRepository
	Resolver *Resolver
	Notifier Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewDeleteMessageUseCase(repo repository.ChatRepository, resolver *Resolver, notifier Notifier, logger *slog.Logger) *DeleteMessageUseCase {
	return &DeleteMessageUseCase{Repo: repo, Resolver: resolver, Notifier: notifierOrNop(notifier), Logger: loggerOrDefault(logger), Now: time.Now}
}

func (uc *DeleteMessageUseCase) Execute(ctx context.Context, in DeleteMessageInput) (*MessageView, error) {
	current, err := uc.Repo.GetMessage(ctx, in.MessageID)
	if err != nil {
		return nil, persistence(err)
	}
	deleted, err := current.Delete(in.UserID, uc.Now())
	if err != nil {
		return nil, err
	}
	if current.State == chat.MessageStateDeleted {
		return uc.Resolver.Committed(ctx, deleted, uc.Logger), nil
	}
	switch err := uc.Repo.UpdateMessage(ctx, deleted); {
	case errors.Is(err, chat.ErrNotEditable):
		// A concurrent delete won and already announced the tombstone.
		return uc.settled(ctx, in.MessageID)
	case err != nil:
		return nil, persistence(err)
	}

	view := uc.Resolver.Committed(ctx, deleted, uc.Logger)
	if err := uc.Notifier.NotifyRoom(ctx, deleted.ChatID, EventMessageDeleted, view, ""); err != nil {
		uc.Logger.Warn("message-deleted broadcast failed", "chatId", deleted.ChatID, "messageId", deleted.ID, "error", err)
	}
	return view, nil
}

func (uc *DeleteMessageUseCase) settled(ctx context.Context, messageID string) (*MessageView, error) {
	stored, err := uc.Repo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, persistence(err)
	}
	return uc.Resolver.Committed(ctx, *stored, uc.Logger), nil
}
