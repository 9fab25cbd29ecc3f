package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/auth"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
)

// UnblockUserController serves POST /chats/unblock-user.
type UnblockUserController struct {
	UC *usecase.UnblockUserUseCase
}

func NewUnblockUserController(uc *usecase.UnblockUserUseCase) *UnblockUserController {
	return &UnblockUserController{UC: uc}
}

func (h *UnblockUserController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req blockUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.UnblockUserInput{UserID: auth.UserID(c), TargetID: req.UserID}); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User unblocked successfully"})
	}
}
