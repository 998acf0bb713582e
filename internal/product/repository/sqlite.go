package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/pkg/database/sqlite"
	"github.com/jmoiron/sqlx"
)

// Products are kept as whole JSON documents; id, barcode and updated_at are
// lifted into columns for the primary key and the equality index.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		barcode TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		doc TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_barcode ON products (barcode)`,
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

func (r *SQLiteRepository) UpsertBatch(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO products (id, barcode, updated_at, doc)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			barcode = excluded.barcode,
			updated_at = excluded.updated_at,
			doc = excluded.doc
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range products {
		p := &products[i]
		if p.ID == "" {
			return fmt.Errorf("product at index %d has no id", i)
		}
		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode product %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.Barcode, sqlite.FormatTime(p.UpdatedAt), string(doc)); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	return r.findOne(ctx, `SELECT doc FROM products WHERE id = ? LIMIT 1`, id)
}

// FindByBarcode returns the most recently updated product carrying barcode.
func (r *SQLiteRepository) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	return r.findOne(ctx, `SELECT doc FROM products WHERE barcode = ? ORDER BY updated_at DESC LIMIT 1`, barcode)
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM products`)
	return count, err
}

func (r *SQLiteRepository) findOne(ctx context.Context, query string, arg any) (*model.Product, error) {
	var doc string
	err := r.DB.GetContext(ctx, &doc, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var p model.Product
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("corrupt product document: %w", err)
	}
	return &p, nil
}
