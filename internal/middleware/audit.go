package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/pantry-sync-api/pkg/logger"
)

// Audit records who performed a mutation once it has succeeded.
func Audit(l *zap.Logger, action string) gin.HandlerFunc {
	if l == nil {
		l = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		username := ""
		if session := CurrentSession(c); session != nil {
			username = session.Username
		}

		l.Info("audit",
			zap.String("action", action),
			zap.String("username", username),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("connection_id", c.GetHeader(logger.ConnectionHeader)),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
