package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pantry-sync-api/internal/models"
)

// AppointmentDefaultRepository reads families' recurring preferred slots.
type AppointmentDefaultRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewAppointmentDefaultRepository builds the repository.
func NewAppointmentDefaultRepository(db *sqlx.DB, timeout time.Duration) *AppointmentDefaultRepository {
	return &AppointmentDefaultRepository{db: db, timeout: timeout}
}

const defaultColumns = `family_name, appt_day, to_char(appt_time, 'HH24:MI') AS appt_time`

// List returns every default appointment.
func (r *AppointmentDefaultRepository) List(ctx context.Context) ([]models.AppointmentDefault, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + defaultColumns + ` FROM appointment_defaults ORDER BY family_name ASC`
	var defaults []models.AppointmentDefault
	if err := r.db.SelectContext(ctx, &defaults, query); err != nil {
		return nil, mapStoreError(ctx, err, "list appointment defaults")
	}
	return defaults, nil
}

// FindByFamily returns the family's default or a NOT_FOUND error.
func (r *AppointmentDefaultRepository) FindByFamily(ctx context.Context, family string) (*models.AppointmentDefault, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + defaultColumns + ` FROM appointment_defaults WHERE family_name = $1`
	var def models.AppointmentDefault
	if err := r.db.GetContext(ctx, &def, query, family); err != nil {
		return nil, mapStoreError(ctx, err, "find appointment default")
	}
	return &def, nil
}
