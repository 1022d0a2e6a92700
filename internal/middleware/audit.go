package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-planner-api/pkg/middleware/requestid"
)

// Audit logs every successful mutation with the acting account.
func Audit(logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}
		actor := "anonymous"
		if claims := ClaimsFromContext(c); claims != nil {
			actor = claims.Email
		}
		logger.Info("audit",
			zap.String("action", action),
			zap.String("actor", actor),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("request_id", requestid.Value(c)),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
		)
	}
}
