package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pantry-sync-api/internal/dto"
	"github.com/noah-isme/pantry-sync-api/internal/middleware"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
	"github.com/noah-isme/pantry-sync-api/pkg/export"
	"github.com/noah-isme/pantry-sync-api/pkg/response"
)

type deliveryService interface {
	Today(ctx context.Context) (*dto.DeliveryDayResponse, bool, error)
	Sheet(ctx context.Context) (export.Sheet, error)
}

// DeliveryHandler serves the greeter screen.
type DeliveryHandler struct {
	service deliveryService
}

// NewDeliveryHandler builds a new handler.
func NewDeliveryHandler(service deliveryService) *DeliveryHandler {
	return &DeliveryHandler{service: service}
}

// Today godoc
// @Summary Today's appointments and shoppers
// @Tags Delivery
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /delivery-day [get]
func (h *DeliveryHandler) Today(c *gin.Context) {
	resp, hit, err := h.service.Today(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, resp, middleware.ExtractMeta(c))
}

// Sheet godoc
// @Summary Printable check-in sheet for today
// @Tags Delivery
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /delivery-day/sheet [get]
func (h *DeliveryHandler) Sheet(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	sheet, err := h.service.Sheet(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	body, err := export.NewRenderer(format).Render(sheet)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "render sheet"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sheet.FileName(format)))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, format.ContentType(), body)
}
