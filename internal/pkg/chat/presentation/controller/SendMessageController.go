package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/auth"
	queueport "github.com/kuhelii/linked-in-connect-app/internal/infrastructure/queue/port"
	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/task"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
)

// SendMessageController handles the send-message endpoint only (one controller per endpoint).
// With a queue client the message is validated, enqueued and answered with 202;
// without one it is persisted inline.
type SendMessageController struct {
	UC *usecase.SendMessageUseCase
	Q  queueport.Client
}

func NewSendMessageController(uc *usecase.SendMessageUseCase, client queueport.Client) *SendMessageController {
	return &SendMessageController{UC: uc, Q: client}
}

// sendMessageRequest is the DTO for the HTTP request body
type sendMessageRequest struct {
	Content         string                 `json:"content"`
	MessageType     string                 `json:"messageType"`
	MediaURL        string                 `json:"mediaUrl"`
	MediaMetadata   *usecase.MediaMetadata `json:"mediaMetadata"`
	ReplyTo         *string                `json:"replyTo"`
	ClientMessageID string                 `json:"clientMessageId"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		in := usecase.SendMessageInput{
			ChatID:          chatID,
			SenderID:        auth.UserID(c),
			Content:         req.Content,
			MessageType:     chat.MessageType(req.MessageType),
			MediaURL:        req.MediaURL,
			MediaMetadata:   req.MediaMetadata,
			ReplyTo:         req.ReplyTo,
			ClientMessageID: req.ClientMessageID,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if h.Q == nil {
			view, err := h.UC.Execute(ctx, in)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"message": view})
			return
		}

		if err := h.UC.Validate(ctx, in); err != nil {
			respondError(c, err)
			return
		}
		t, err := task.NewSendMessageTask(in)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode task payload"})
			return
		}
		// Enqueue task; best-effort options
		id, err := h.Q.Enqueue(ctx, t, queueport.EnqueueOption{Queue: task.SendMessageQueue, MaxRetry: 20})
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue message"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status": "queued",
			"taskId": id,
			"chatId": chatID,
		})
	}
}
