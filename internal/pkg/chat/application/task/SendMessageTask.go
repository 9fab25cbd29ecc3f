package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	qport "github.com/kuhelii/linked-in-connect-app/internal/infrastructure/queue/port"
	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
)

// SendMessageTaskType is the queue task name for sending a message within the chat domain.
const SendMessageTaskType = "chat:send_message"

// SendMessageQueue is the logical queue send-message tasks are routed to.
const SendMessageQueue = "chat"

// SendMessageTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type SendMessageTaskPayload struct {
	ChatID          string                 `json:"chatId"`
	SenderID        string                 `json:"senderId"`
	Content         string                 `json:"content"`
	MessageType     string                 `json:"messageType"`
	MediaURL        string                 `json:"mediaUrl,omitempty"`
	MediaMetadata   *usecase.MediaMetadata `json:"mediaMetadata,omitempty"`
	ReplyTo         *string                `json:"replyTo,omitempty"`
	ClientMessageID string                 `json:"clientMessageId"`
}

// NewSendMessageTask packs in for the queue. A task always carries a client
// message id, generated when the caller gave none, so every retry of it
// resolves to the same stored message.
func NewSendMessageTask(in usecase.SendMessageInput) (qport.Task, error) {
	if in.ClientMessageID == "" {
		in.ClientMessageID = uuid.NewString()
	}
	payload, err := json.Marshal(SendMessageTaskPayload{
		ChatID:          in.ChatID,
		SenderID:        in.SenderID,
		Content:         in.Content,
		MessageType:     string(in.MessageType),
		MediaURL:        in.MediaURL,
		MediaMetadata:   in.MediaMetadata,
		ReplyTo:         in.ReplyTo,
		ClientMessageID: in.ClientMessageID,
	})
	if err != nil {
		return qport.Task{}, err
	}
	return qport.Task{Type: SendMessageTaskType, Payload: payload}, nil
}

// RegisterSendMessageTask binds the task handler to the provided server.
// The handler persists the message and broadcasts new-message, exactly like the socket path.
func RegisterSendMessageTask(srv qport.Server, uc *usecase.SendMessageUseCase, logger *slog.Logger) {
	srv.Register(SendMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p SendMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %v: %w", SendMessageTaskType, err, qport.ErrSkipRetry)
		}

		// give DB a reasonable time budget per task execution
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		view, err := uc.Execute(ctx, usecase.SendMessageInput{
			ChatID:          p.ChatID,
			SenderID:        p.SenderID,
			Content:         p.Content,
			MessageType:     chat.MessageType(p.MessageType),
			MediaURL:        p.MediaURL,
			MediaMetadata:   p.MediaMetadata,
			ReplyTo:         p.ReplyTo,
			ClientMessageID: p.ClientMessageID,
		})
		if err != nil {
			// Only persistence failures are worth retrying.
			if errors.Is(err, usecase.ErrPersistence) {
				return err
			}
			return fmt.Errorf("%v: %w", err, qport.ErrSkipRetry)
		}
		logger.Debug("queued message delivered", "chatId", view.ChatID, "messageId", view.ID)
		return nil
	})
}
