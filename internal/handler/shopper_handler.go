package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pantry-sync-api/internal/dto"
	"github.com/noah-isme/pantry-sync-api/internal/models"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
	"github.com/noah-isme/pantry-sync-api/pkg/response"
)

type shopperService interface {
	List(ctx context.Context) ([]models.Shopper, error)
	Replace(ctx context.Context, req dto.UpdateShoppersRequest) ([]models.Shopper, error)
}

// ShopperHandler exposes the shopper assignment table.
type ShopperHandler struct {
	service shopperService
}

// NewShopperHandler builds a new handler.
func NewShopperHandler(service shopperService) *ShopperHandler {
	return &ShopperHandler{service: service}
}

// List godoc
// @Summary List shoppers
// @Tags Shoppers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /shoppers [get]
func (h *ShopperHandler) List(c *gin.Context) {
	shoppers, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, shoppers)
}

// Replace godoc
// @Summary Replace the shopper table
// @Tags Shoppers
// @Accept json
// @Produce json
// @Param payload body dto.UpdateShoppersRequest true "Shoppers"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /shoppers [put]
func (h *ShopperHandler) Replace(c *gin.Context) {
	var req dto.UpdateShoppersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid shopper payload"))
		return
	}
	shoppers, err := h.service.Replace(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, shoppers)
}
