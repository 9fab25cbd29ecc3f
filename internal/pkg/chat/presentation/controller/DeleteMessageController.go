package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/auth"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
)

// DeleteMessageController serves DELETE /chats/messages/:messageId.
type DeleteMessageController struct {
	UC *usecase.DeleteMessageUseCase
}

func NewDeleteMessageController(uc *usecase.DeleteMessageUseCase) *DeleteMessageController {
	return &DeleteMessageController{UC: uc}
}

func (h *DeleteMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		view, err := h.UC.Execute(ctx, usecase.DeleteMessageInput{MessageID: c.Param("messageId"), UserID: auth.UserID(c)})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": view})
	}
}
