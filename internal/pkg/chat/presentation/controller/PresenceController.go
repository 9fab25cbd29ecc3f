package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/realtime"
)

// PresenceReader is the read side of the presence registry.
type PresenceReader interface {
	Status(userID string) realtime.PresenceStatus
}

// PresenceController serves GET /presence/:userId for users connected to this node.
type PresenceController struct {
	Presence PresenceReader
}

func NewPresenceController(p PresenceReader) *PresenceController {
	return &PresenceController{Presence: p}
}

func (h *PresenceController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := h.Presence.Status(c.Param("userId"))
		c.JSON(http.StatusOK, gin.H{
			"userId":   status.UserID,
			"online":   status.Online,
			"lastSeen": status.LastSeen,
		})
	}
}
