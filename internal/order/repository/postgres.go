package repository

import (
	"context"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/jmoiron/sqlx"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		terminal_id TEXT NOT NULL DEFAULT '',
		items JSONB NOT NULL,
		subtotal NUMERIC(12, 2) NOT NULL,
		tax NUMERIC(12, 2) NOT NULL,
		total NUMERIC(12, 2) NOT NULL,
		status TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
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

type orderRow struct {
	model.Order
	TerminalID string `db:"terminal_id"`
}

// UpsertBatch writes the batch atomically, keyed by order id, so a retried
// push overwrites with identical content instead of duplicating.
func (r *PGRepository) UpsertBatch(ctx context.Context, terminalID string, orders []model.Order) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO orders (
            id, terminal_id, items, subtotal, tax, total, status, payment_method, created_at
        )
        VALUES (
            :id, :terminal_id, :items, :subtotal, :tax, :total, :status, :payment_method, :created_at
        )
        ON CONFLICT (id) DO UPDATE SET
            items = EXCLUDED.items,
            subtotal = EXCLUDED.subtotal,
            tax = EXCLUDED.tax,
            total = EXCLUDED.total,
            status = EXCLUDED.status,
            payment_method = EXCLUDED.payment_method,
            created_at = EXCLUDED.created_at
    `
	for i := range orders {
		row := orderRow{Order: orders[i], TerminalID: terminalID}
		if _, err := tx.NamedExecContext(ctx, query, &row); err != nil {
			return err
		}
	}
	return tx.Commit()
}
