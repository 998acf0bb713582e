package repository

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/jmoiron/sqlx"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		barcode TEXT NOT NULL,
		price NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
		tax_rate NUMERIC(6, 4) NOT NULL DEFAULT 0,
		category TEXT NOT NULL DEFAULT '',
		image_url TEXT,
		stock_quantity BIGINT NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_updated_at ON products (updated_at, id)`,
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ListUpdatedSince pages the catalog in ascending updated_at order, strictly
// after since.
func (r *PGRepository) ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]model.Product, error) {
	products := []model.Product{}
	query := `
        SELECT id, name, barcode, price, tax_rate, category, image_url, stock_quantity, updated_at
        FROM products
        WHERE updated_at > $1
        ORDER BY updated_at ASC, id ASC
        LIMIT $2
    `
	if err := r.DB.SelectContext(ctx, &products, query, since.UTC(), limit); err != nil {
		return nil, err
	}
	return products, nil
}

// catalogWriteLock keys the transaction-scoped advisory lock taken by every
// catalog writer.
const catalogWriteLock int64 = 0x706f735f636174

// UpsertBatch writes the batch in one transaction holding catalogWriteLock.
// Stamps that are not above every committed updated_at are shifted forward
// in place, so writers on other backend instances cannot commit rows below a
// checkpoint a terminal has already reached.
func (r *PGRepository) UpsertBatch(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, catalogWriteLock); err != nil {
		return err
	}
	var latest time.Time
	if err := tx.GetContext(ctx, &latest, `SELECT COALESCE(MAX(updated_at), 'epoch'::timestamptz) FROM products`); err != nil {
		return err
	}
	advanceStamps(products, latest)

	query := `
        INSERT INTO products (
            id, name, barcode, price, tax_rate, category, image_url, stock_quantity, updated_at
        )
        VALUES (
            :id, :name, :barcode, :price, :tax_rate, :category, :image_url, :stock_quantity, :updated_at
        )
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            barcode = EXCLUDED.barcode,
            price = EXCLUDED.price,
            tax_rate = EXCLUDED.tax_rate,
            category = EXCLUDED.category,
            image_url = EXCLUDED.image_url,
            stock_quantity = EXCLUDED.stock_quantity,
            updated_at = EXCLUDED.updated_at
    `
	for i := range products {
		if _, err := tx.NamedExecContext(ctx, query, &products[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// advanceStamps shifts ascending stamps so the first lands after latest,
// keeping their spacing.
func advanceStamps(products []model.Product, latest time.Time) {
	floor := latest.UTC().Add(time.Microsecond)
	if len(products) == 0 || !products[0].UpdatedAt.Before(floor) {
		return
	}
	shift := floor.Sub(products[0].UpdatedAt)
	for i := range products {
		products[i].UpdatedAt = products[i].UpdatedAt.Add(shift)
	}
}
