package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	repository "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries the data needed to send a new message.
type SendMessageInput struct {
	ChatID        string
	SenderID      string
	Content       string
	MessageType   chat.MessageType
	MediaURL      string
	MediaMetadata *MediaMetadata
	ReplyTo       *string

	// ClientMessageID is the sender's idempotency key. Repeating a send with the
	// same key returns the stored message instead of writing a second one.
	ClientMessageID string
}

// SendMessageUseCase persists a message and then announces it to the chat room.
// Every participant, the sender included, receives new-message. Once the message
// is stored the send succeeds and is announced; a repeated key announces it again.
type SendMessageUseCase struct {
	Repo     repository.ChatRepository
	Resolver *Resolver
	Notifier Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewSendMessageUseCase(repo repository.ChatRepository, resolver *Resolver, notifier Notifier, logger *slog.Logger) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Resolver: resolver, Notifier: notifierOrNop(notifier), Logger: loggerOrDefault(logger), Now: time.Now}
}

// Validate runs every check Execute performs before writing.
func (uc *SendMessageUseCase) Validate(ctx context.Context, in SendMessageInput) error {
	_, err := uc.prepare(ctx, in)
	return err
}

// Execute sends/persists a new message for a chat.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*MessageView, error) {
	msg, err := uc.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	stored, err := uc.Repo.AppendMessage(ctx, *msg)
	if err != nil {
		return nil, persistence(err)
	}

	view := uc.Resolver.Committed(ctx, *stored, uc.Logger)
	if err := uc.Notifier.NotifyRoom(ctx, stored.ChatID, EventNewMessage, view, ""); err != nil {
		uc.Logger.Warn("new-message broadcast failed", "chatId", stored.ChatID, "messageId", stored.ID, "error", err)
	}
	return view, nil
}

func (uc *SendMessageUseCase) prepare(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	if in.ChatID == "" || in.SenderID == "" {
		return nil, chat.Invalid("chatId and sender are required")
	}
	conv, err := uc.Repo.GetChat(ctx, in.ChatID)
	if err != nil {
		return nil, persistence(err)
	}

	if !conv.HasParticipant(in.SenderID) {
		return nil, chat.ErrNotParticipant
	}
	if other := conv.Counterpart(in.SenderID); other != "" {
		blocked, err := uc.Repo.IsBlocked(ctx, in.SenderID, other)
		if err != nil {
			return nil, persistence(err)
		}
		if blocked {
			return nil, chat.ErrBlocked
		}
	}

	aggregate := chat.Chat{Conversation: *conv}
	if in.ReplyTo != nil && *in.ReplyTo != "" {
		target, err := uc.Repo.GetMessage(ctx, *in.ReplyTo)
		switch {
		case errors.Is(err, chat.ErrMessageNotFound):
			return nil, chat.Invalid("replyTo does not reference a message")
		case err != nil:
			return nil, persistence(err)
		}
		aggregate.ReplyTarget = target
	}

	draft := chat.Message{
		ChatID:    conv.ID,
		SenderID:  in.SenderID,
		Body:      in.Content,
		Type:      in.MessageType,
		ReplyToID: in.ReplyTo,
		ClientID:  in.ClientMessageID,
	}
	if in.MediaURL != "" {
		draft.Media = &chat.MediaRef{URL: in.MediaURL}
		if md := in.MediaMetadata; md != nil {
			draft.Media.FileName = md.FileName
			draft.Media.FileSize = md.FileSize
			draft.Media.MimeType = md.MimeType
			draft.Media.Duration = md.Duration
		}
	}
	return aggregate.PostMessage(draft, uc.Now())
}
