package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/internal/order"
	"github.com/fekuna/omnipos-pos-terminal/pkg/database/sqlite"
	"github.com/jmoiron/sqlx"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		synced_at TEXT,
		doc TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_pending ON orders (created_at) WHERE synced_at IS NULL`,
}

type SQLiteRepository struct {
	DB *sqlx.DB
}

func NewSQLiteRepository(ctx context.Context, db *sqlx.DB) (*SQLiteRepository, error) {
	if err := sqlite.Migrate(ctx, db, sqliteSchema...); err != nil {
		return nil, err
	}
	return &SQLiteRepository{DB: db}, nil
}

// Create inserts a new order; a primary-key collision yields
// order.ErrDuplicateOrder.
func (r *SQLiteRepository) Create(ctx context.Context, o *model.Order) error {
	doc, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode order %s: %w", o.ID, err)
	}

	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO orders (id, created_at, doc) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		o.ID, o.CreatedAt, string(doc),
	)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", order.ErrDuplicateOrder, o.ID)
	}
	return nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var doc string
	err := r.DB.GetContext(ctx, &doc, `SELECT doc FROM orders WHERE id = ? LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var o model.Order
	if err := json.Unmarshal([]byte(doc), &o); err != nil {
		return nil, fmt.Errorf("corrupt order document %s: %w", id, err)
	}
	return &o, nil
}

// ListPending returns unacknowledged orders oldest first.
func (r *SQLiteRepository) ListPending(ctx context.Context, limit int) ([]model.Order, error) {
	var docs []string
	err := r.DB.SelectContext(ctx, &docs,
		`SELECT doc FROM orders WHERE synced_at IS NULL ORDER BY created_at ASC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}

	orders := make([]model.Order, 0, len(docs))
	for _, doc := range docs {
		var o model.Order
		if err := json.Unmarshal([]byte(doc), &o); err != nil {
			return nil, fmt.Errorf("corrupt order document: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE orders SET synced_at = ? WHERE id IN (?)`, sqlite.FormatTime(at), ids)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, r.DB.Rebind(query), args...)
	return err
}

func (r *SQLiteRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM orders WHERE synced_at IS NULL`)
	return count, err
}
