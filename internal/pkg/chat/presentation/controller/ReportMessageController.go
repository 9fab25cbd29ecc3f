package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/auth"
	"github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/application/usecase"
)

// ReportMessageController serves POST /chats/report-message.
type ReportMessageController struct {
	UC *usecase.ReportMessageUseCase
}

func NewReportMessageController(uc *usecase.ReportMessageUseCase) *ReportMessageController {
	return &ReportMessageController{UC: uc}
}

type reportMessageRequest struct {
	MessageID   string `json:"messageId" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

func (h *ReportMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reportMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messageId and reason are required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		report, err := h.UC.Execute(ctx, usecase.ReportMessageInput{
			MessageID:   req.MessageID,
			ReporterID:  auth.UserID(c),
			Reason:      req.Reason,
			Description: req.Description,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Message reported successfully", "reportId": report.ID})
	}
}
