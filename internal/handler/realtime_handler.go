package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pantry-sync-api/internal/realtime"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
	"github.com/noah-isme/pantry-sync-api/pkg/response"
)

type rosterSource interface {
	Roster() []realtime.RosterEntry
}

// RealtimeHandler exposes presence over plain HTTP.
type RealtimeHandler struct {
	hub rosterSource
}

// NewRealtimeHandler builds a new handler.
func NewRealtimeHandler(hub rosterSource) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Roster godoc
// @Summary Operators currently connected
// @Tags Realtime
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roster [get]
func (h *RealtimeHandler) Roster(c *gin.Context) {
	response.OK(c, h.hub.Roster())
}

// Me godoc
// @Summary The caller's session
// @Tags Realtime
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *RealtimeHandler) Me(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}
	response.OK(c, session)
}
