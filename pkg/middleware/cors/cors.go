package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Policy is the set of browser origins allowed to reach the API and the
// realtime channel. An empty policy allows every origin.
type Policy struct {
	origins map[string]struct{}
}

// NewPolicy normalises the configured origins.
func NewPolicy(allowedOrigins []string) *Policy {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return &Policy{origins: origins}
}

// Allowed reports whether origin may call the API.
func (p *Policy) Allowed(origin string) bool {
	if p == nil || len(p.origins) == 0 {
		return true
	}
	_, ok := p.origins[strings.TrimRight(origin, "/")]
	return ok
}

// CheckOrigin matches the websocket upgrader hook. Requests without an
// Origin header come from non-browser clients and are allowed.
func (p *Policy) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return p.Allowed(origin)
}

// Middleware applies the policy to regular HTTP requests.
func (p *Policy) Middleware() gin.HandlerFunc {
	allowAll := p == nil || len(p.origins) == 0

	return func(c *gin.Context) {
		header := c.Writer.Header()
		origin := c.GetHeader("Origin")
		if origin != "" {
			if p.Allowed(origin) {
				header.Set("Access-Control-Allow-Origin", origin)
			}
		} else if allowAll {
			header.Set("Access-Control-Allow-Origin", "*")
		}

		header.Set("Vary", "Origin")
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID, X-Connection-ID")
		header.Set("Access-Control-Allow-Methods", "GET, PUT, PATCH, POST, DELETE, OPTIONS")
		header.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
