package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pantry-sync-api/internal/dto"
	"github.com/noah-isme/pantry-sync-api/internal/models"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
	"github.com/noah-isme/pantry-sync-api/pkg/export"
)

type deliveryDistributionReader interface {
	Latest(ctx context.Context) (*models.DistributionPeriod, error)
	Covering(ctx context.Context, date time.Time) (*models.DistributionPeriod, error)
}

type dayFulfillmentReader interface {
	ListByDay(ctx context.Context, distribution string, day int) ([]models.Fulfillment, error)
}

type shopperReader interface {
	List(ctx context.Context) ([]models.Shopper, error)
}

// DeliveryDayKey is the cache key of one day's greeter view.
func DeliveryDayKey(distribution string, day int) string {
	return fmt.Sprintf("deliveryDay:%s:%d", distribution, day)
}

// DeliveryDayPattern matches every cached day of a distribution.
func DeliveryDayPattern(distribution string) string {
	return fmt.Sprintf("deliveryDay:%s:*", distribution)
}

// DeliveryService assembles the greeter screen for the current day.
type DeliveryService struct {
	distributions deliveryDistributionReader
	fulfillments  dayFulfillmentReader
	shoppers      shopperReader
	cache         *CacheService
	location      *time.Location
	logger        *zap.Logger
	now           func() time.Time
}

// NewDeliveryService constructs the delivery-day service. Dates are
// evaluated in loc.
func NewDeliveryService(distributions deliveryDistributionReader, fulfillments dayFulfillmentReader, shoppers shopperReader, cache *CacheService, loc *time.Location, logger *zap.Logger) *DeliveryService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryService{
		distributions: distributions,
		fulfillments:  fulfillments,
		shoppers:      shoppers,
		cache:         cache,
		location:      loc,
		logger:        logger,
		now:           time.Now,
	}
}

// Today resolves the distribution covering today, falling back to the most
// recent one, and returns today's appointments with all shoppers. The
// boolean reports whether the view came from cache.
func (s *DeliveryService) Today(ctx context.Context) (*dto.DeliveryDayResponse, bool, error) {
	now := s.now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	period, err := s.distributions.Covering(ctx, today)
	if errors.Is(err, appErrors.ErrNotFound) {
		period, err = s.distributions.Latest(ctx)
	}
	if err != nil {
		return nil, false, err
	}

	day := period.DayOn(today)
	view := dto.DistributionView{
		Distribution: period.Distribution,
		Days:         period.Days,
		Slots:        GenerateGrid(period.Days),
	}

	resp, hit, err := Remember(ctx, s.cache, DeliveryDayKey(period.Distribution, day), func(ctx context.Context) (dto.DeliveryDayResponse, error) {
		out := dto.DeliveryDayResponse{
			Distribution: &view,
			Day:          day,
			Date:         today.Format(models.DateLayout),
			Appointments: []models.Fulfillment{},
		}
		if day > 0 {
			rows, err := s.fulfillments.ListByDay(ctx, period.Distribution, day)
			if err != nil {
				return out, err
			}
			if rows != nil {
				out.Appointments = rows
			}
		}
		shoppers, err := s.shoppers.List(ctx)
		if err != nil {
			return out, err
		}
		out.Shoppers = shoppers
		if out.Shoppers == nil {
			out.Shoppers = []models.Shopper{}
		}
		return out, nil
	})
	if err != nil {
		return nil, false, err
	}
	resp.Date = today.Format(models.DateLayout)
	if hit {
		s.logger.Debug("delivery day served from cache", zap.String("distribution", period.Distribution), zap.Int("day", day))
	}
	return &resp, hit, nil
}

// Sheet lays today's view out as a printable check-in list ordered by slot.
func (s *DeliveryService) Sheet(ctx context.Context) (export.Sheet, error) {
	resp, _, err := s.Today(ctx)
	if err != nil {
		return export.Sheet{}, err
	}
	return DeliverySheet(resp), nil
}

// DeliverySheet converts a delivery-day view into sheet rows.
func DeliverySheet(resp *dto.DeliveryDayResponse) export.Sheet {
	sheet := export.Sheet{
		Title:   "Delivery day " + resp.Date,
		Columns: []string{"Time", "Family", "Shopper", "Fulfilled", "Notes"},
		Widths:  []float64{1, 3, 2, 1, 5},
		Rows:    [][]string{},
	}
	if resp.Distribution != nil {
		if resp.Day > 0 {
			sheet.Subtitle = fmt.Sprintf("Distribution %s, day %d", resp.Distribution.Distribution, resp.Day)
		} else {
			sheet.Subtitle = fmt.Sprintf("Distribution %s, no appointments today", resp.Distribution.Distribution)
		}
	}

	assigned := make(map[string]string, len(resp.Shoppers))
	for _, sh := range resp.Shoppers {
		if sh.FamilyName != nil {
			assigned[*sh.FamilyName] = sh.Name
		}
	}

	rows := append([]models.Fulfillment(nil), resp.Appointments...)
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := slotTime(rows[i]), slotTime(rows[j])
		if ti != tj {
			return ti < tj
		}
		return rows[i].FamilyName < rows[j].FamilyName
	})
	for _, f := range rows {
		done := ""
		if f.Fulfilled {
			done = "yes"
		}
		sheet.Rows = append(sheet.Rows, []string{slotTime(f), f.FamilyName, assigned[f.FamilyName], done, f.Notes})
	}
	return sheet
}

func slotTime(f models.Fulfillment) string {
	if f.ApptTime == nil {
		return ""
	}
	return *f.ApptTime
}
