package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pantry-sync-api/internal/dto"
	"github.com/noah-isme/pantry-sync-api/internal/models"
	"github.com/noah-isme/pantry-sync-api/internal/realtime"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
)

type distributionReader interface {
	List(ctx context.Context) ([]models.DistributionPeriod, error)
	Get(ctx context.Context, distribution string) (*models.DistributionPeriod, error)
}

type appointmentDefaultReader interface {
	List(ctx context.Context) ([]models.AppointmentDefault, error)
}

type fulfillmentStore interface {
	ListByDistribution(ctx context.Context, distribution string) ([]models.Fulfillment, error)
	Find(ctx context.Context, distribution, family string) (*models.Fulfillment, error)
	Upsert(ctx context.Context, f *models.Fulfillment) error
}

// Publisher fans realtime envelopes out to operators.
type Publisher interface {
	Publish(env realtime.Envelope, exclude ...string) int
}

// Mutation names used for metrics and logs.
const (
	opSaveFulfillment = "save_fulfillment"
	opUpdateFulfilled = "update_fulfilled"
	opCancel          = "cancel_appointment"
	opArrival         = "announce_arrival"
)

// LatestDistribution selects the most recent distribution in queries.
const LatestDistribution = "latest"

// FulfillmentCoordinator serialises every fulfillment mutation and every
// occupancy read through a single goroutine. A mutation validates against
// the grid, commits, updates the occupancy index and then publishes, in
// that order, and stops at the first failure.
type FulfillmentCoordinator struct {
	distributions distributionReader
	defaults      appointmentDefaultReader
	fulfillments  fulfillmentStore
	publisher     Publisher
	cache         *CacheService
	metrics       *MetricsService
	validate      *validator.Validate
	logger        *zap.Logger
	now           func() time.Time

	grids *gridCache
	ops   chan func()
	quit  chan struct{}

	// owned by the Run goroutine
	index *OccupancyIndex
	stale bool
}

// NewFulfillmentCoordinator wires the coordinator. Run must be started
// before any operation is submitted.
func NewFulfillmentCoordinator(
	distributions distributionReader,
	defaults appointmentDefaultReader,
	fulfillments fulfillmentStore,
	publisher Publisher,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *FulfillmentCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FulfillmentCoordinator{
		distributions: distributions,
		defaults:      defaults,
		fulfillments:  fulfillments,
		publisher:     publisher,
		cache:         cache,
		metrics:       metrics,
		validate:      validate,
		logger:        logger,
		now:           time.Now,
		grids:         newGridCache(),
		ops:           make(chan func()),
		quit:          make(chan struct{}),
		index:         NewOccupancyIndex(logger),
	}
}

// Run executes submitted operations one at a time until ctx is done.
func (c *FulfillmentCoordinator) Run(ctx context.Context) {
	defer close(c.quit)
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-c.ops:
			op()
		}
	}
}

// submit runs fn on the coordinator goroutine and waits for its result.
// The caller may give up only while fn is still queued. Once the loop has
// taken fn it runs to completion on a context detached from the caller's
// cancellation, and its result is returned; store calls stay bounded by
// their own timeouts.
func (c *FulfillmentCoordinator) submit(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavail.Code, appErrors.ErrStoreUnavail.Status, "request cancelled before it was scheduled")
	}
	opCtx := context.WithoutCancel(ctx)
	done := make(chan error, 1)
	select {
	case c.ops <- func() { done <- fn(opCtx) }:
	case <-ctx.Done():
		return appErrors.Wrap(ctx.Err(), appErrors.ErrStoreUnavail.Code, appErrors.ErrStoreUnavail.Status, "request cancelled before it was scheduled")
	case <-c.quit:
		return appErrors.Clone(appErrors.ErrStoreUnavail, "coordinator stopped")
	}
	return <-done
}

// SaveFulfillment validates and replaces a family's record, then notifies
// every operator except origin.
func (c *FulfillmentCoordinator) SaveFulfillment(ctx context.Context, origin string, req dto.SaveFulfillmentRequest) (*models.Fulfillment, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fulfillment payload")
	}

	var saved *models.Fulfillment
	err := c.submit(ctx, func(ctx context.Context) error {
		period, err := c.distributions.Get(ctx, req.Distribution)
		if err != nil {
			return err
		}
		slot, err := ValidateAndAssign(c.grids.Get(*period), AssignmentRequest{
			Distribution: req.Distribution,
			FamilyName:   req.FamilyName,
			Day:          req.ApptDay,
			Time:         req.ApptTime,
		})
		if err != nil {
			return err
		}

		prior, err := c.findPrior(ctx, req.Distribution, req.FamilyName)
		if err != nil {
			return err
		}
		if err := CheckFulfilledTransition(prior, slot, req.Fulfilled); err != nil {
			return err
		}

		next := models.Fulfillment{
			Distribution: req.Distribution,
			FamilyName:   req.FamilyName,
			Notes:        req.Notes,
		}
		next.SetSlot(slot)
		next.SetFulfilled(req.Fulfilled, c.fulfillmentTime(prior, req.FulfillmentTime))

		if err := c.commit(ctx, opSaveFulfillment, origin, prior, &next); err != nil {
			return err
		}
		saved = &next
		return nil
	})
	c.record(opSaveFulfillment, err)
	return saved, err
}

// UpdateFulfilled flips only the fulfilled flag of a scheduled record.
func (c *FulfillmentCoordinator) UpdateFulfilled(ctx context.Context, origin, distribution, family string, fulfilled bool) (*models.Fulfillment, error) {
	var saved *models.Fulfillment
	err := c.submit(ctx, func(ctx context.Context) error {
		prior, err := c.findPrior(ctx, distribution, family)
		if err != nil {
			return err
		}
		if prior == nil && !fulfilled {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no appointment for %s in %s", family, distribution))
		}
		var slot *models.Slot
		if prior != nil {
			slot = prior.Slot()
		}
		if err := CheckFulfilledTransition(prior, slot, fulfilled); err != nil {
			return err
		}

		next := *prior
		next.SetFulfilled(fulfilled, c.fulfillmentTime(prior, nil))

		if err := c.commit(ctx, opUpdateFulfilled, origin, prior, &next); err != nil {
			return err
		}
		saved = &next
		return nil
	})
	c.record(opUpdateFulfilled, err)
	return saved, err
}

// CancelAppointment clears a family's slot, keeping its notes. Cancelling a
// record that has no slot changes nothing and publishes nothing.
func (c *FulfillmentCoordinator) CancelAppointment(ctx context.Context, origin, distribution, family string) (*models.Fulfillment, error) {
	var saved *models.Fulfillment
	err := c.submit(ctx, func(ctx context.Context) error {
		prior, err := c.findPrior(ctx, distribution, family)
		if err != nil {
			return err
		}
		next := CancelAssignment(prior, distribution, family)
		saved = &next
		if prior == nil || (prior.Slot() == nil && !prior.Fulfilled) {
			return nil
		}
		return c.commit(ctx, opCancel, origin, prior, &next)
	})
	c.record(opCancel, err)
	return saved, err
}

// AnnounceArrival tells every other operator that a family has arrived.
func (c *FulfillmentCoordinator) AnnounceArrival(ctx context.Context, origin string, req dto.ArrivalRequest) error {
	if err := c.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid arrival payload")
	}
	err := c.submit(ctx, func(ctx context.Context) error {
		c.publish(realtime.Envelope{
			Topic: realtime.ArrivedTopic(req.Distribution, req.FamilyName),
			Data:  realtime.ClientArrived{ArrivalTime: req.ArrivalTime},
		}, origin)
		return nil
	})
	c.record(opArrival, err)
	return err
}

// Appointments builds the scheduling view. When a distribution is selected
// it becomes the active one and the occupancy index is rebuilt if needed.
func (c *FulfillmentCoordinator) Appointments(ctx context.Context, query dto.AppointmentsQuery) (*dto.AppointmentsResponse, error) {
	selector := query.Distribution
	if selector == "true" {
		selector = LatestDistribution
	}
	if selector != "" && selector != LatestDistribution {
		if _, err := time.Parse(models.DateLayout, selector); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "distribution must be a YYYY-MM-DD date, true or latest")
		}
	}

	var resp *dto.AppointmentsResponse
	err := c.submit(ctx, func(ctx context.Context) error {
		periods, err := c.distributions.List(ctx)
		if err != nil {
			return err
		}
		defaults, err := c.defaults.List(ctx)
		if err != nil {
			return err
		}

		out := &dto.AppointmentsResponse{Distributions: make([]dto.DistributionView, 0, len(periods))}
		for _, p := range periods {
			out.Distributions = append(out.Distributions, c.view(p))
		}

		active := resolveDistribution(periods, selector)
		if selector != "" && active == "" {
			return appErrors.Clone(appErrors.ErrNotFound, "distribution not found")
		}

		if active == "" {
			scratch := NewOccupancyIndex(c.logger)
			scratch.Rebuild("", defaults, nil)
			out.AppointmentDefaults = scratch.Snapshot(KindDefault)
			resp = out
			return nil
		}

		if err := c.activate(ctx, active, defaults); err != nil {
			return err
		}
		out.Distribution = &active
		out.AppointmentDefaults = c.index.Snapshot(KindDefault)
		out.AppointmentsScheduled = c.index.Snapshot(KindScheduled)

		if query.Family != "" {
			prior, err := c.findPrior(ctx, active, query.Family)
			if err != nil {
				return err
			}
			out.Fulfillment = prior
			for _, d := range defaults {
				if d.FamilyName == query.Family {
					out.FamilyDefault = d.Slot()
					break
				}
			}
		}
		resp = out
		return nil
	})
	return resp, err
}

// Occupancy returns the counters at one slot of the active distribution.
func (c *FulfillmentCoordinator) Occupancy(ctx context.Context, day int, slot string) (string, SlotCounts, error) {
	var (
		dist   string
		counts SlotCounts
	)
	err := c.submit(ctx, func(ctx context.Context) error {
		if c.stale {
			if err := c.reload(ctx); err != nil {
				return err
			}
		}
		dist = c.index.Distribution()
		counts = c.index.CountsFor(day, slot)
		return nil
	})
	return dist, counts, err
}

func (c *FulfillmentCoordinator) view(p models.DistributionPeriod) dto.DistributionView {
	grid := c.grids.Get(p)
	return dto.DistributionView{Distribution: p.Distribution, Days: p.Days, Slots: grid}
}

func (c *FulfillmentCoordinator) activate(ctx context.Context, distribution string, defaults []models.AppointmentDefault) error {
	if c.index.Distribution() == distribution && !c.stale {
		return nil
	}
	return c.rebuild(ctx, distribution, defaults)
}

// reload rebuilds the active distribution from the store, defaults included.
func (c *FulfillmentCoordinator) reload(ctx context.Context) error {
	defaults, err := c.defaults.List(ctx)
	if err != nil {
		return err
	}
	return c.rebuild(ctx, c.index.Distribution(), defaults)
}

func (c *FulfillmentCoordinator) rebuild(ctx context.Context, distribution string, defaults []models.AppointmentDefault) error {
	rows, err := c.fulfillments.ListByDistribution(ctx, distribution)
	if err != nil {
		return err
	}
	c.index.Rebuild(distribution, defaults, rows)
	c.stale = false
	c.logger.Info("occupancy index rebuilt", zap.String("distribution", distribution), zap.Int("fulfillments", len(rows)))
	return nil
}

func (c *FulfillmentCoordinator) findPrior(ctx context.Context, distribution, family string) (*models.Fulfillment, error) {
	prior, err := c.fulfillments.Find(ctx, distribution, family)
	if errors.Is(err, appErrors.ErrNotFound) {
		return nil, nil
	}
	return prior, err
}

// commit writes next, then moves the occupancy counters and publishes.
// Nothing after the write runs when the write fails.
func (c *FulfillmentCoordinator) commit(ctx context.Context, op, origin string, prior, next *models.Fulfillment) error {
	start := c.now()
	err := c.fulfillments.Upsert(ctx, next)
	c.metrics.ObserveStoreCommit(op, c.now().Sub(start))
	if err != nil {
		if appErrors.Transient(err) && c.index.Distribution() == next.Distribution {
			c.stale = true
		}
		c.logger.Error("fulfillment commit failed",
			zap.String("operation", op),
			zap.String("distribution", next.Distribution),
			zap.String("family", next.FamilyName),
			zap.Error(err),
		)
		return err
	}

	if c.index.Distribution() == next.Distribution {
		if c.stale {
			// the reload reads this commit back, so no delta follows it
			if err := c.reload(ctx); err != nil {
				c.logger.Warn("occupancy index still stale", zap.String("distribution", next.Distribution), zap.Error(err))
			}
		} else {
			var old *models.Slot
			if prior != nil {
				old = prior.Slot()
			}
			c.index.ApplyDelta(old, next.Slot(), KindScheduled)
		}
	}

	c.publish(realtime.Envelope{
		Topic: realtime.FulfilledTopic(next.Distribution, next.FamilyName),
		Data: realtime.FulfillmentChanged{
			Fulfilled:    next.Fulfilled,
			Distribution: next.Distribution,
			Family:       next.FamilyName,
			Day:          next.ApptDay,
			Time:         next.ApptTime,
		},
	}, origin)
	c.cache.Invalidate(ctx, DeliveryDayPattern(next.Distribution))
	return nil
}

func (c *FulfillmentCoordinator) publish(env realtime.Envelope, exclude ...string) {
	if c.publisher == nil {
		return
	}
	c.publisher.Publish(env, exclude...)
}

// fulfillmentTime picks the stamp for a record that is or becomes
// fulfilled: the requested time, else the existing stamp, else now.
func (c *FulfillmentCoordinator) fulfillmentTime(prior *models.Fulfillment, requested *time.Time) time.Time {
	if requested != nil {
		return *requested
	}
	if prior != nil && prior.Fulfilled && prior.FulfillmentTime != nil {
		return *prior.FulfillmentTime
	}
	return c.now()
}

func (c *FulfillmentCoordinator) record(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = appErrors.FromError(err).Code
	}
	c.metrics.RecordMutation(op, outcome)
}

func resolveDistribution(periods []models.DistributionPeriod, selector string) string {
	if selector == "" || len(periods) == 0 {
		return ""
	}
	if selector == LatestDistribution {
		latest := periods[0].Distribution
		for _, p := range periods[1:] {
			if p.Distribution > latest {
				latest = p.Distribution
			}
		}
		return latest
	}
	for _, p := range periods {
		if p.Distribution == selector {
			return selector
		}
	}
	return ""
}
