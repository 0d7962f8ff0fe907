package middleware

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pantry-sync-api/internal/models"
	"github.com/noah-isme/pantry-sync-api/internal/realtime"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
	"github.com/noah-isme/pantry-sync-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the operator session.
const ContextSessionKey = "currentSession"

type sessionVerifier interface {
	Verify(ctx context.Context, token string) (*models.Session, error)
}

// Session protects routes by requiring a live operator session. The
// credential is read from the bearer header, the session cookie or the
// token query parameter, in that order.
func Session(verifier sessionVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := realtime.Credential(c.Request, cookieName)
		if token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrAuthRequired, "missing session credential"))
			return
		}

		session, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// RequirePermission rejects sessions below level.
func RequirePermission(level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := CurrentSession(c)
		if session == nil {
			response.Error(c, appErrors.ErrAuthRequired)
			return
		}
		if !session.Allows(level) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("permission %d required", level)))
			return
		}
		c.Next()
	}
}

// CurrentSession returns the session attached by Session, if any.
func CurrentSession(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, _ := value.(*models.Session)
	return session
}
