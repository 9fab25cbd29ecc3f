package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/auth"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
)

// EditMessageController serves PUT /chats/messages/:messageId.
type EditMessageController struct {
	UC *usecase.EditMessageUseCase
}

func NewEditMessageController(uc *usecase.EditMessageUseCase) *EditMessageController {
	return &EditMessageController{UC: uc}
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *EditMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req editMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		view, err := h.UC.Execute(ctx, usecase.EditMessageInput{
			MessageID: c.Param("messageId"),
			EditorID:  auth.UserID(c),
			Content:   req.Content,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": view})
	}
}
