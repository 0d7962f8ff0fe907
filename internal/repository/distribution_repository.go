package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pantry-sync-api/internal/models"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
)

// DistributionRepository reads distribution periods and their day windows.
type DistributionRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewDistributionRepository builds the repository.
func NewDistributionRepository(db *sqlx.DB, timeout time.Duration) *DistributionRepository {
	return &DistributionRepository{db: db, timeout: timeout}
}

const distributionSelect = `SELECT to_char(d.distribution, 'YYYY-MM-DD') AS distribution, dd.day AS day,
to_char(dd.first_appt, 'HH24:MI:SS') AS first_appt, to_char(dd.last_appt, 'HH24:MI:SS') AS last_appt
FROM distributions d LEFT JOIN distribution_days dd ON dd.distribution = d.distribution`

type distributionRow struct {
	Distribution string  `db:"distribution"`
	Day          *int    `db:"day"`
	FirstAppt    *string `db:"first_appt"`
	LastAppt     *string `db:"last_appt"`
}

// List returns every distribution, newest first.
func (r *DistributionRepository) List(ctx context.Context) ([]models.DistributionPeriod, error) {
	return r.query(ctx, "list distributions", distributionSelect+`
ORDER BY d.distribution DESC, dd.day ASC`)
}

// Get returns one distribution by its start date.
func (r *DistributionRepository) Get(ctx context.Context, distribution string) (*models.DistributionPeriod, error) {
	periods, err := r.query(ctx, "get distribution", distributionSelect+`
WHERE d.distribution = $1 ORDER BY dd.day ASC`, distribution)
	return firstPeriod(periods, err, "distribution "+distribution+" not found")
}

// Latest returns the most recent distribution.
func (r *DistributionRepository) Latest(ctx context.Context) (*models.DistributionPeriod, error) {
	periods, err := r.query(ctx, "latest distribution", distributionSelect+`
WHERE d.distribution = (SELECT MAX(distribution) FROM distributions) ORDER BY dd.day ASC`)
	return firstPeriod(periods, err, "no distributions recorded")
}

// Covering returns the distribution whose seven days include date.
func (r *DistributionRepository) Covering(ctx context.Context, date time.Time) (*models.DistributionPeriod, error) {
	periods, err := r.query(ctx, "covering distribution", distributionSelect+`
WHERE d.distribution = (SELECT MAX(distribution) FROM distributions WHERE distribution BETWEEN $1::date - 6 AND $1::date)
ORDER BY dd.day ASC`, date.Format(models.DateLayout))
	return firstPeriod(periods, err, "no distribution covers "+date.Format(models.DateLayout))
}

func (r *DistributionRepository) query(ctx context.Context, op, query string, args ...interface{}) ([]models.DistributionPeriod, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var rows []distributionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapStoreError(ctx, err, op)
	}

	periods := make([]models.DistributionPeriod, 0)
	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.Distribution]
		if !ok {
			i = len(periods)
			index[row.Distribution] = i
			periods = append(periods, models.DistributionPeriod{Distribution: row.Distribution})
		}
		if row.Day == nil || *row.Day < 1 || *row.Day > models.DaysPerDistribution {
			continue
		}
		periods[i].Days[*row.Day-1] = models.DayBounds{First: row.FirstAppt, Last: row.LastAppt}
	}
	return periods, nil
}

func firstPeriod(periods []models.DistributionPeriod, err error, missing string) (*models.DistributionPeriod, error) {
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, missing)
	}
	return &periods[0], nil
}
