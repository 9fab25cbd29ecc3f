package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	chat "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/domain"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
)

// requestTimeout bounds the store work of one REST request.
const requestTimeout = 3 * time.Second

// classify maps a use case error to an HTTP status, a socket code and a client-safe message.
func classify(err error) (status int, code string, message string) {
	switch {
	case errors.Is(err, chat.ErrAuthentication):
		return http.StatusUnauthorized, "unauthorized", "Authentication error"
	case errors.Is(err, chat.ErrNotParticipant):
		return http.StatusForbidden, "forbidden", "Not authorized to access this chat"
	case errors.Is(err, chat.ErrNotFriends):
		return http.StatusForbidden, "forbidden", "You can only chat with friends"
	case errors.Is(err, chat.ErrBlocked):
		return http.StatusForbidden, "forbidden", "You cannot message this user"
	case errors.Is(err, chat.ErrNotEditable):
		return http.StatusBadRequest, "bad_request", "Only text messages that are not deleted can be edited"
	case errors.Is(err, chat.ErrChatNotFound):
		return http.StatusNotFound, "not_found", "Chat not found"
	case errors.Is(err, chat.ErrMessageNotFound):
		return http.StatusNotFound, "not_found", "Message not found"
	case errors.Is(err, chat.ErrNotFound):
		return http.StatusNotFound, "not_found", "User not found"
	case errors.Is(err, chat.ErrValidation):
		return http.StatusBadRequest, "bad_request", strings.TrimPrefix(err.Error(), chat.ErrValidation.Error()+": ")
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", "Request timed out"
	case errors.Is(err, usecase.ErrPersistence):
		return http.StatusInternalServerError, "internal_error", "Internal server error"
	}
	return http.StatusInternalServerError, "internal_error", "Internal server error"
}

func respondError(c *gin.Context, err error) {
	status, _, message := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": message})
}

// pageFromQuery reads ?page and ?limit; bad values fall back to the defaults.
func pageFromQuery(c *gin.Context) usecase.Page {
	var p usecase.Page
	if n, err := strconv.Atoi(c.Query("page")); err == nil {
		p.Page = n
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil {
		p.Limit = n
	}
	return p
}
