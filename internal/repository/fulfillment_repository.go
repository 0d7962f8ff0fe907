package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pantry-sync-api/internal/models"
)

// FulfillmentRepository persists one appointment row per (distribution, family).
type FulfillmentRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewFulfillmentRepository builds the repository.
func NewFulfillmentRepository(db *sqlx.DB, timeout time.Duration) *FulfillmentRepository {
	return &FulfillmentRepository{db: db, timeout: timeout}
}

const fulfillmentColumns = `to_char(distribution, 'YYYY-MM-DD') AS distribution, family_name, appt_day,
to_char(appt_time, 'HH24:MI') AS appt_time, notes, fulfilled, fulfillment_time`

// ListByDistribution returns every row of a distribution.
func (r *FulfillmentRepository) ListByDistribution(ctx context.Context, distribution string) ([]models.Fulfillment, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + fulfillmentColumns + ` FROM fulfillment WHERE distribution = $1 ORDER BY family_name ASC`
	var rows []models.Fulfillment
	if err := r.db.SelectContext(ctx, &rows, query, distribution); err != nil {
		return nil, mapStoreError(ctx, err, "list fulfillments")
	}
	return rows, nil
}

// ListByDay returns the scheduled rows of one day ordered by time then family.
func (r *FulfillmentRepository) ListByDay(ctx context.Context, distribution string, day int) ([]models.Fulfillment, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + fulfillmentColumns + ` FROM fulfillment
WHERE distribution = $1 AND appt_day = $2 AND appt_time IS NOT NULL
ORDER BY appt_time ASC, family_name ASC`
	var rows []models.Fulfillment
	if err := r.db.SelectContext(ctx, &rows, query, distribution, day); err != nil {
		return nil, mapStoreError(ctx, err, "list fulfillments by day")
	}
	return rows, nil
}

// Find returns the row of one family or a NOT_FOUND error.
func (r *FulfillmentRepository) Find(ctx context.Context, distribution, family string) (*models.Fulfillment, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + fulfillmentColumns + ` FROM fulfillment WHERE distribution = $1 AND family_name = $2`
	var row models.Fulfillment
	if err := r.db.GetContext(ctx, &row, query, distribution, family); err != nil {
		return nil, mapStoreError(ctx, err, "find fulfillment")
	}
	return &row, nil
}

// Upsert replaces the family's row for the distribution, inserting it when
// absent. A timed-out call is reported as STORE_UNAVAILABLE.
func (r *FulfillmentRepository) Upsert(ctx context.Context, f *models.Fulfillment) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
INSERT INTO fulfillment (distribution, family_name, appt_day, appt_time, notes, fulfilled, fulfillment_time)
VALUES (:distribution, :family_name, :appt_day, :appt_time, :notes, :fulfilled, :fulfillment_time)
ON CONFLICT (distribution, family_name) DO UPDATE
SET appt_day = EXCLUDED.appt_day,
    appt_time = EXCLUDED.appt_time,
    notes = EXCLUDED.notes,
    fulfilled = EXCLUDED.fulfilled,
    fulfillment_time = EXCLUDED.fulfillment_time`

	if _, err := r.db.NamedExecContext(ctx, query, f); err != nil {
		return mapStoreError(ctx, err, "upsert fulfillment")
	}
	return nil
}
