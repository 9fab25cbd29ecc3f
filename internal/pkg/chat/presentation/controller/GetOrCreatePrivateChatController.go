package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/auth"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
)

// GetOrCreatePrivateChatController serves POST /chats/private.
type GetOrCreatePrivateChatController struct {
	UC *usecase.GetOrCreatePrivateChatUseCase
}

func NewGetOrCreatePrivateChatController(uc *usecase.GetOrCreatePrivateChatUseCase) *GetOrCreatePrivateChatController {
	return &GetOrCreatePrivateChatController{UC: uc}
}

type privateChatRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

func (h *GetOrCreatePrivateChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req privateChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "participantId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		view, created, err := h.UC.Execute(ctx, usecase.GetOrCreatePrivateChatInput{
			UserID:        auth.UserID(c),
			ParticipantID: req.ParticipantID,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{"chat": view})
	}
}
