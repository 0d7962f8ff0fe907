package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pantry-sync-api/internal/middleware"
	"github.com/noah-isme/pantry-sync-api/internal/models"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
	"github.com/noah-isme/pantry-sync-api/pkg/logger"
	"github.com/noah-isme/pantry-sync-api/pkg/response"
)

func sessionFromContext(c *gin.Context) *models.Session {
	return middleware.CurrentSession(c)
}

// originFromContext returns the realtime connection that issued the request,
// so the resulting broadcast skips it.
func originFromContext(c *gin.Context) string {
	return c.GetHeader(logger.ConnectionHeader)
}

// distributionParam reads the :distribution path segment and writes a
// validation error when it is not a date.
func distributionParam(c *gin.Context) (string, bool) {
	distribution := c.Param("distribution")
	if _, err := time.Parse(models.DateLayout, distribution); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "distribution must be a YYYY-MM-DD date"))
		return "", false
	}
	return distribution, true
}
