package usecase

import (
	"context"
	"log/slog"
	"time"

	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

type EditMessageInput struct {
	MessageID string
	EditorID  string
	Content   string
}

// EditMessageUseCase rewrites the body of a text message. Only its sender may edit it.
type EditMessageUseCase struct {
	Repo     repository.ChatRepository
	Resolver *Resolver
	Notifier Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewEditMessageUseCase(repo repository.ChatRepository, resolver *Resolver, notifier Notifier, logger *slog.Logger) *EditMessageUseCase {
	return &EditMessageUseCase{Repo: repo, Resolver: resolver, Notifier: notifierOrNop(notifier), Logger: loggerOrDefault(logger), Now: time.Now}
}

func (uc *EditMessageUseCase) Execute(ctx context.Context, in EditMessageInput) (*MessageView, error) {
	current, err := uc.Repo.GetMessage(ctx, in.MessageID)
	if err != nil {
		return nil, persistence(err)
	}
	edited, err := current.Edit(in.EditorID, in.Content, uc.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.Repo.UpdateMessage(ctx, edited); err != nil {
		return nil, persistence(err)
	}

	view := uc.Resolver.Committed(ctx, edited, uc.Logger)
	if err := uc.Notifier.NotifyRoom(ctx, edited.ChatID, EventMessageEdited, view, ""); err != nil {
		uc.Logger.Warn("message-edited broadcast failed", "chatId", edited.ChatID, "messageId", edited.ID, "error", err)
	}
	return view, nil
}
