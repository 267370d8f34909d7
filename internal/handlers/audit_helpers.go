package handlers

import (
	"github.com/gin-gonic/gin"

	"friendtalk/internal/telemetry"
)

func requestIDFromContext(c *gin.Context) string {
	return c.GetHeader("X-Request-Id")
}

func emitAudit(c *gin.Context, audit *telemetry.AuditEmitter, level, text string, userID *string) {
	if audit == nil {
		return
	}
	audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userID)
}
