package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pantry-sync-api/internal/dto"
	"github.com/noah-isme/pantry-sync-api/internal/models"
	"github.com/noah-isme/pantry-sync-api/internal/service"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
	"github.com/noah-isme/pantry-sync-api/pkg/response"
)

type appointmentCoordinator interface {
	Appointments(ctx context.Context, query dto.AppointmentsQuery) (*dto.AppointmentsResponse, error)
	SaveFulfillment(ctx context.Context, origin string, req dto.SaveFulfillmentRequest) (*models.Fulfillment, error)
	UpdateFulfilled(ctx context.Context, origin, distribution, family string, fulfilled bool) (*models.Fulfillment, error)
	CancelAppointment(ctx context.Context, origin, distribution, family string) (*models.Fulfillment, error)
	AnnounceArrival(ctx context.Context, origin string, req dto.ArrivalRequest) error
	Occupancy(ctx context.Context, day int, slot string) (string, service.SlotCounts, error)
}

// AppointmentHandler exposes scheduling and fulfillment endpoints.
type AppointmentHandler struct {
	coordinator appointmentCoordinator
}

// NewAppointmentHandler builds a new handler.
func NewAppointmentHandler(coordinator appointmentCoordinator) *AppointmentHandler {
	return &AppointmentHandler{coordinator: coordinator}
}

// List godoc
// @Summary Scheduling view with slot occupancy
// @Tags Appointments
// @Produce json
// @Param distribution query string false "Distribution date, true or latest"
// @Param family query string false "Family name"
// @Success 200 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	var query dto.AppointmentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	resp, err := h.coordinator.Appointments(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// Occupancy godoc
// @Summary Counters at one slot of the active distribution
// @Tags Appointments
// @Produce json
// @Param day query int true "Day number 1-7"
// @Param time query string true "Slot HH:MM"
// @Success 200 {object} response.Envelope
// @Router /appointments/occupancy [get]
func (h *AppointmentHandler) Occupancy(c *gin.Context) {
	day, err := strconv.Atoi(c.Query("day"))
	if err != nil || day < 1 || day > models.DaysPerDistribution {
		response.Error(c, appErrors.Clone(appErrors.ErrUnknownDay, "day must be between 1 and 7"))
		return
	}
	slot := service.NormalizeSlot(c.Query("time"))
	dist, counts, err := h.coordinator.Occupancy(c.Request.Context(), day, slot)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"distribution":   dist,
		"day":            day,
		"time":           slot,
		"defaultCount":   counts.Default,
		"scheduledCount": counts.Scheduled,
	})
}

// Save godoc
// @Summary Save a family's fulfillment record
// @Tags Fulfillments
// @Accept json
// @Produce json
// @Param X-Connection-ID header string false "Realtime connection of the caller"
// @Param payload body dto.SaveFulfillmentRequest true "Fulfillment record"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /fulfillments [put]
func (h *AppointmentHandler) Save(c *gin.Context) {
	var req dto.SaveFulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fulfillment payload"))
		return
	}
	saved, err := h.coordinator.SaveFulfillment(c.Request.Context(), originFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, saved)
}

// UpdateFulfilled godoc
// @Summary Mark a scheduled appointment fulfilled or not
// @Tags Fulfillments
// @Accept json
// @Produce json
// @Param distribution path string true "Distribution date"
// @Param family path string true "Family name"
// @Param payload body dto.UpdateFulfilledRequest true "Fulfilled flag"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /fulfillments/{distribution}/{family}/fulfilled [patch]
func (h *AppointmentHandler) UpdateFulfilled(c *gin.Context) {
	distribution, ok := distributionParam(c)
	if !ok {
		return
	}
	var req dto.UpdateFulfilledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fulfilled payload"))
		return
	}
	if req.Fulfilled == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "fulfilled is required"))
		return
	}
	saved, err := h.coordinator.UpdateFulfilled(c.Request.Context(), originFromContext(c), distribution, c.Param("family"), *req.Fulfilled)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, saved)
}

// Cancel godoc
// @Summary Cancel a family's appointment, keeping notes
// @Tags Fulfillments
// @Produce json
// @Param distribution path string true "Distribution date"
// @Param family path string true "Family name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /fulfillments/{distribution}/{family} [delete]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	distribution, ok := distributionParam(c)
	if !ok {
		return
	}
	saved, err := h.coordinator.CancelAppointment(c.Request.Context(), originFromContext(c), distribution, c.Param("family"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, saved)
}

// Arrival godoc
// @Summary Announce that a family has arrived
// @Tags Fulfillments
// @Accept json
// @Param payload body dto.ArrivalRequest true "Arrival"
// @Success 204
// @Router /arrivals [post]
func (h *AppointmentHandler) Arrival(c *gin.Context) {
	var req dto.ArrivalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid arrival payload"))
		return
	}
	if err := h.coordinator.AnnounceArrival(c.Request.Context(), originFromContext(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
