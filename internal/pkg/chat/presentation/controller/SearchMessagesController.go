package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/auth"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
)

// SearchMessagesController serves GET /chats/search.
type SearchMessagesController struct {
	UC *usecase.SearchMessagesUseCase
}

func NewSearchMessagesController(uc *usecase.SearchMessagesUseCase) *SearchMessagesController {
	return &SearchMessagesController{UC: uc}
}

func (h *SearchMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		out, err := h.UC.Execute(ctx, usecase.SearchMessagesInput{
			UserID: auth.UserID(c),
			Query:  c.Query("q"),
			ChatID: c.Query("chatId"),
			Page:   pageFromQuery(c),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"messages":     out.Messages,
			"totalResults": out.TotalResults,
			"page":         out.Page,
			"hasMore":      out.HasMore,
		})
	}
}
