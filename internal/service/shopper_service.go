package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pantry-sync-api/internal/dto"
	"github.com/noah-isme/pantry-sync-api/internal/models"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
)

type shopperRepository interface {
	List(ctx context.Context) ([]models.Shopper, error)
	ReplaceAll(ctx context.Context, shoppers []models.Shopper) error
}

// ShopperService manages the volunteer shopper table.
type ShopperService struct {
	repo      shopperRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewShopperService constructs the service.
func NewShopperService(repo shopperRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ShopperService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShopperService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns every shopper ordered by id.
func (s *ShopperService) List(ctx context.Context) ([]models.Shopper, error) {
	shoppers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if shoppers == nil {
		shoppers = []models.Shopper{}
	}
	return shoppers, nil
}

// Replace swaps the whole table. A family may be assigned to at most one
// shopper; unassigned shoppers are not compared.
func (s *ShopperService) Replace(ctx context.Context, req dto.UpdateShoppersRequest) ([]models.Shopper, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shopper list")
	}

	families := make(map[string]int, len(req.Shoppers))
	shoppers := make([]models.Shopper, 0, len(req.Shoppers))
	for _, in := range req.Shoppers {
		var family *string
		if in.FamilyName != nil {
			if trimmed := strings.TrimSpace(*in.FamilyName); trimmed != "" {
				family = &trimmed
			}
		}
		if family != nil {
			if other, taken := families[*family]; taken {
				return nil, appErrors.Clone(appErrors.ErrAlreadyExists, fmt.Sprintf("family %q is assigned to shoppers %d and %d", *family, other, in.ID))
			}
			families[*family] = in.ID
		}
		shoppers = append(shoppers, models.Shopper{ID: in.ID, Name: strings.TrimSpace(in.Name), FamilyName: family})
	}

	if err := s.repo.ReplaceAll(ctx, shoppers); err != nil {
		s.logger.Error("replace shoppers failed", zap.Int("count", len(shoppers)), zap.Error(err))
		return nil, err
	}
	s.cache.Invalidate(ctx, "deliveryDay:*")
	s.logger.Info("shoppers replaced", zap.Int("count", len(shoppers)), zap.Int("assigned", len(families)))
	return shoppers, nil
}
