package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/kuhelii/linked-in-connect-app/internal/infrastructure/auth"
	httpHandler "github.com/kuhelii/linked-in-connect-app/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, ctl httpHandler.Controllers, verifier auth.Verifier) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, ctl, auth.Middleware(verifier))
}
