package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pantry-sync-api/internal/models"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
	"github.com/noah-isme/pantry-sync-api/pkg/jobs"
)

// JobTypeReminder tags reminder hand-off jobs.
const JobTypeReminder = "appointment_reminder"

type reminderDistributionReader interface {
	Covering(ctx context.Context, date time.Time) (*models.DistributionPeriod, error)
}

// ReminderPublisher hands a reminder to the mail pipeline.
type ReminderPublisher interface {
	PublishJSON(ctx context.Context, messageID string, v interface{}) error
}

// ReminderRequest is the message consumed by the mail pipeline.
type ReminderRequest struct {
	Distribution string `json:"distribution"`
	FamilyName   string `json:"family_name"`
	Day          int    `json:"appt_day"`
	Time         string `json:"appt_time"`
	Date         string `json:"date"`
}

// MessageID is stable per appointment so repeated planning passes can be
// deduplicated downstream.
func (r ReminderRequest) MessageID() string {
	return fmt.Sprintf("reminder:%s:%s:%d:%s", r.Distribution, r.FamilyName, r.Day, r.Time)
}

// ReminderService plans reminder messages for upcoming appointments and
// publishes them through a retrying worker queue.
type ReminderService struct {
	distributions reminderDistributionReader
	fulfillments  dayFulfillmentReader
	publisher     ReminderPublisher
	metrics       *MetricsService
	daysBefore    int
	location      *time.Location
	logger        *zap.Logger
	queue         *jobs.Queue
}

// NewReminderService builds the service and its worker queue. Start must
// be called before Plan.
func NewReminderService(
	distributions reminderDistributionReader,
	fulfillments dayFulfillmentReader,
	publisher ReminderPublisher,
	metrics *MetricsService,
	daysBefore int,
	loc *time.Location,
	queueCfg jobs.QueueConfig,
	logger *zap.Logger,
) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueCfg.Logger == nil {
		queueCfg.Logger = logger
	}
	s := &ReminderService{
		distributions: distributions,
		fulfillments:  fulfillments,
		publisher:     publisher,
		metrics:       metrics,
		daysBefore:    daysBefore,
		location:      loc,
		logger:        logger,
	}
	s.queue = jobs.NewQueue("reminders", s.handle, queueCfg)
	return s
}

// Start launches the publishing workers.
func (s *ReminderService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for in-flight publishes to finish.
func (s *ReminderService) Stop() {
	s.queue.Stop()
}

// Stats exposes the worker queue counters.
func (s *ReminderService) Stats() jobs.Stats {
	return s.queue.Stats()
}

// Plan enqueues one reminder per scheduled, unfulfilled appointment whose
// date is exactly daysBefore days after now. It returns the number queued.
func (s *ReminderService) Plan(ctx context.Context, now time.Time) (int, error) {
	local := now.In(s.location)
	target := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, s.daysBefore)

	period, err := s.distributions.Covering(ctx, target)
	if errors.Is(err, appErrors.ErrNotFound) {
		s.logger.Debug("no distribution for reminder date", zap.String("date", target.Format(models.DateLayout)))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	day := period.DayOn(target)
	date, err := period.DateOf(day)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "distribution does not cover reminder date")
	}
	rows, err := s.fulfillments.ListByDay(ctx, period.Distribution, day)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, f := range rows {
		slot := f.Slot()
		if slot == nil || f.Fulfilled {
			continue
		}
		req := ReminderRequest{
			Distribution: f.Distribution,
			FamilyName:   f.FamilyName,
			Day:          slot.Day,
			Time:         slot.Time,
			Date:         date.Format(models.DateLayout),
		}
		if _, err := s.queue.Enqueue(ctx, jobs.Job{Type: JobTypeReminder, Payload: req}); err != nil {
			return queued, fmt.Errorf("enqueue reminder for %s: %w", f.FamilyName, err)
		}
		queued++
	}

	s.logger.Info("reminders planned",
		zap.String("distribution", period.Distribution),
		zap.Int("day", day),
		zap.Int("queued", queued),
	)
	return queued, nil
}

// RunEvery plans reminders on each tick until ctx is done.
func (s *ReminderService) RunEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.Plan(ctx, now); err != nil {
				s.logger.Error("reminder planning failed", zap.Error(err))
			}
		}
	}
}

func (s *ReminderService) handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(ReminderRequest)
	if !ok {
		s.metrics.RecordReminder("invalid")
		s.logger.Error("unexpected reminder payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.publisher.PublishJSON(ctx, req.MessageID(), req); err != nil {
		s.metrics.RecordReminder("failed")
		return err
	}
	s.metrics.RecordReminder("published")
	return nil
}
