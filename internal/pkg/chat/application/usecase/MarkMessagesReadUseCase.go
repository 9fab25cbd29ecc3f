package usecase

import (
	"context"
	"log/slog"
	"time"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

type MarkMessagesReadInput struct {
	ChatID     string
	ReaderID   string
	MessageIDs []string
}

// MarkMessagesReadOutput lists only the messages that gained a read entry.
type MarkMessagesReadOutput struct {
	MessageIDs []string
	ReadAt     time.Time
}

// MessagesReadEvent is broadcast to the other participants of the chat.
type MessagesReadEvent struct {
	UserID     string    `json:"userId"`
	ChatID     string    `json:"chatId"`
	MessageIDs []string  `json:"messageIds"`
	ReadAt     time.Time `json:"readAt"`
}

// MarkMessagesReadUseCase records read receipts. Repeated calls are no-ops and
// announce nothing.
type MarkMessagesReadUseCase struct {
	Repo     repository.ChatRepository
	Notifier Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewMarkMessagesReadUseCase(repo repository.ChatRepository, notifier Notifier, logger *slog.Logger) *MarkMessagesReadUseCase {
	return &MarkMessagesReadUseCase{Repo: repo, Notifier: notifierOrNop(notifier), Logger: loggerOrDefault(logger), Now: time.Now}
}

func (uc *MarkMessagesReadUseCase) Execute(ctx context.Context, in MarkMessagesReadInput) (*MarkMessagesReadOutput, error) {
	if len(in.MessageIDs) == 0 {
		return nil, chat.Invalid("messageIds are required")
	}
	conv, err := chatFor(ctx, uc.Repo, in.ChatID, in.ReaderID)
	if err != nil {
		return nil, err
	}

	at := uc.Now().UTC()
	marked, err := uc.Repo.MarkRead(ctx, conv.ID, in.ReaderID, in.MessageIDs, at)
	if err != nil {
		return nil, persistence(err)
	}
	out := &MarkMessagesReadOutput{MessageIDs: marked, ReadAt: at}
	if len(marked) == 0 {
		return out, nil
	}

	event := MessagesReadEvent{UserID: in.ReaderID, ChatID: conv.ID, MessageIDs: marked, ReadAt: at}
	if err := uc.Notifier.NotifyRoom(ctx, conv.ID, EventMessagesRead, event, in.ReaderID); err != nil {
		uc.Logger.Warn("messages-read broadcast failed", "chatId", conv.ID, "error", err)
	}
	return out, nil
}
