package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pantry-sync-api/internal/models"
)

// ShopperRepository manages the shopper to family assignment table.
type ShopperRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewShopperRepository builds the repository.
func NewShopperRepository(db *sqlx.DB, timeout time.Duration) *ShopperRepository {
	return &ShopperRepository{db: db, timeout: timeout}
}

// List returns all shoppers ordered by id.
func (r *ShopperRepository) List(ctx context.Context) ([]models.Shopper, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	const query = `SELECT id, name, family_name FROM shoppers ORDER BY id ASC`
	var shoppers []models.Shopper
	if err := r.db.SelectContext(ctx, &shoppers, query); err != nil {
		return nil, mapStoreError(ctx, err, "list shoppers")
	}
	return shoppers, nil
}

// ReplaceAll swaps the whole table for the given list in one transaction.
func (r *ShopperRepository) ReplaceAll(ctx context.Context, shoppers []models.Shopper) (err error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapStoreError(ctx, err, "begin shoppers tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM shoppers`); err != nil {
		return mapStoreError(ctx, err, "clear shoppers")
	}

	const insert = `INSERT INTO shoppers (id, name, family_name) VALUES (:id, :name, :family_name)`
	for i := range shoppers {
		if _, err = tx.NamedExecContext(ctx, insert, &shoppers[i]); err != nil {
			return mapStoreError(ctx, err, "insert shopper")
		}
	}

	if err = tx.Commit(); err != nil {
		return mapStoreError(ctx, err, "commit shoppers")
	}
	return nil
}
