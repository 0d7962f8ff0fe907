package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pantry-sync-api/internal/models"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMapStoreError(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, mapStoreError(ctx, nil, "noop"))
	assert.ErrorIs(t, mapStoreError(ctx, &pq.Error{Code: "23505", Constraint: "shoppers_family_name_key"}, "insert"), appErrors.ErrAlreadyExists)
	assert.ErrorIs(t, mapStoreError(ctx, &pq.Error{Code: "08006"}, "insert"), appErrors.ErrStoreUnavail)
	assert.ErrorIs(t, mapStoreError(ctx, context.DeadlineExceeded, "insert"), appErrors.ErrStoreUnavail)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, mapStoreError(cancelled, errors.New("canceling query due to user request"), "insert"), appErrors.ErrStoreUnavail)

	other := mapStoreError(ctx, errors.New("syntax error"), "insert")
	assert.False(t, errors.Is(other, appErrors.ErrStoreUnavail))
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(other).Code)
}

func TestDistributionRepositoryListGroupsDays(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDistributionRepository(db, time.Second)

	rows := sqlmock.NewRows([]string{"distribution", "day", "first_appt", "last_appt"}).
		AddRow("2024-05-13", 1, "08:00:00", "12:00:00").
		AddRow("2024-05-13", 2, nil, nil).
		AddRow("2024-05-06", 3, "09:00:00", "09:30:00").
		AddRow("2024-04-29", nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM distributions d LEFT JOIN distribution_days dd")).WillReturnRows(rows)

	periods, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, periods, 3)
	assert.Equal(t, "2024-05-13", periods[0].Distribution)
	assert.Equal(t, "08:00:00", *periods[0].Days[0].First)
	assert.Nil(t, periods[0].Days[1].First)
	assert.Equal(t, "09:30:00", *periods[1].Days[2].Last)
	assert.Equal(t, "2024-04-29", periods[2].Distribution)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistributionRepositoryCoveringNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDistributionRepository(db, time.Second)

	mock.ExpectQuery(regexp.QuoteMeta("BETWEEN $1::date - 6 AND $1::date")).
		WithArgs("2024-05-20").
		WillReturnRows(sqlmock.NewRows([]string{"distribution", "day", "first_appt", "last_appt"}))

	_, err := repo.Covering(context.Background(), time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentDefaultRepositoryFindMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentDefaultRepository(db, time.Second)

	mock.ExpectQuery(regexp.QuoteMeta("FROM appointment_defaults WHERE family_name = $1")).
		WithArgs("Smith").
		WillReturnRows(sqlmock.NewRows([]string{"family_name", "appt_day", "appt_time"}))

	_, err := repo.FindByFamily(context.Background(), "Smith")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestFulfillmentRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFulfillmentRepository(db, time.Second)

	f := models.Fulfillment{Distribution: "2024-05-06", FamilyName: "Smith", Notes: "two bags"}
	f.SetSlot(&models.Slot{Day: 2, Time: "09:00"})

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (distribution, family_name) DO UPDATE")).
		WithArgs("2024-05-06", "Smith", 2, "09:00", "two bags", false, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), &f))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFulfillmentRepositoryUpsertTimeout(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFulfillmentRepository(db, 20*time.Millisecond)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fulfillment")).
		WillDelayFor(time.Second).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.Fulfillment{Distribution: "2024-05-06", FamilyName: "Smith"})
	require.Error(t, err)
	assert.True(t, appErrors.Transient(err))
}

func TestFulfillmentRepositoryListByDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFulfillmentRepository(db, time.Second)

	stamp := time.Date(2024, 5, 7, 9, 5, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"distribution", "family_name", "appt_day", "appt_time", "notes", "fulfilled", "fulfillment_time"}).
		AddRow("2024-05-06", "Jones", 2, "09:00", "", true, stamp).
		AddRow("2024-05-06", "Smith", 2, "09:00", "", false, nil)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY appt_time ASC, family_name ASC")).
		WithArgs("2024-05-06", 2).
		WillReturnRows(rows)

	got, err := repo.ListByDay(context.Background(), "2024-05-06", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Jones", got[0].FamilyName)
	assert.True(t, got[0].FulfillmentTime.Equal(stamp))
	assert.Nil(t, got[1].FulfillmentTime)
}

func TestShopperRepositoryReplaceAllRollsBackOnDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewShopperRepository(db, time.Second)

	family := "Smith"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shoppers")).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shoppers")).
		WithArgs(1, "Ana", "Smith").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shoppers")).
		WithArgs(2, "Ben", "Smith").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "shoppers_family_name_key"})
	mock.ExpectRollback()

	err := repo.ReplaceAll(context.Background(), []models.Shopper{
		{ID: 1, Name: "Ana", FamilyName: &family},
		{ID: 2, Name: "Ben", FamilyName: &family},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrAlreadyExists)
	assert.Equal(t, "family is already assigned to another shopper", appErrors.FromError(err).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShopperRepositoryReplaceAllCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewShopperRepository(db, time.Second)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shoppers")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shoppers")).
		WithArgs(7, "Cara", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceAll(context.Background(), []models.Shopper{{ID: 7, Name: "Cara"}}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
