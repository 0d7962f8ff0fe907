package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pantry-sync-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics observes request latency by route template. Upgraded websocket
// connections are skipped since their lifetime is not a request latency.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		if c.Writer.Status() == http.StatusSwitchingProtocols {
			return
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
