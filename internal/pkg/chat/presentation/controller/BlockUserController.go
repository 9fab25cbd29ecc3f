package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/auth"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
)

// BlockUserController serves POST /chats/block-user.
type BlockUserController struct {
	UC *usecase.BlockUserUseCase
}

func NewBlockUserController(uc *usecase.BlockUserUseCase) *BlockUserController {
	return &BlockUserController{UC: uc}
}

type blockUserRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *BlockUserController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req blockUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.BlockUserInput{UserID: auth.UserID(c), TargetID: req.UserID}); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User blocked successfully"})
	}
}
