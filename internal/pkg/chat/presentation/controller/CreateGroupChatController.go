package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/auth"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
)

// CreateGroupChatController handles the group creation endpoint
// One controller per endpoint
type CreateGroupChatController struct {
	UC *usecase.CreateGroupChatUseCase
}

func NewCreateGroupChatController(uc *usecase.CreateGroupChatUseCase) *CreateGroupChatController {
	return &CreateGroupChatController{UC: uc}
}

type createGroupChatRequest struct {
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	Avatar         string   `json:"avatar"`
	ParticipantIDs []string `json:"participantIds" binding:"required,min=1"`
}

func (h *CreateGroupChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createGroupChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and participantIds are required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		view, err := h.UC.Execute(ctx, usecase.CreateGroupChatInput{
			CreatorID:      auth.UserID(c),
			Name:           req.Name,
			Description:    req.Description,
			Avatar:         req.Avatar,
			ParticipantIDs: req.ParticipantIDs,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"chat": view})
	}
}
