package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/pkg/database/sqlite"
	"github.com/jmoiron/sqlx"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS replication_checkpoints (
		stream TEXT PRIMARY KEY,
		updated_at TEXT NOT NULL,
		saved_at TEXT NOT NULL
	)`,
}

type checkpointRow struct {
	Stream    string `db:"stream"`
	UpdatedAt string `db:"updated_at"`
	SavedAt   string `db:"saved_at"`
}

type SQLiteRepository struct {
	DB  *sqlx.DB
	now func() time.Time
}

func NewSQLiteRepository(ctx context.Context, db *sqlx.DB) (*SQLiteRepository, error) {
	if err := sqlite.Migrate(ctx, db, sqliteSchema...); err != nil {
		return nil, err
	}
	return &SQLiteRepository{DB: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Load(ctx context.Context, stream string) (*model.ReplicationCheckpoint, error) {
	var row checkpointRow
	err := r.DB.GetContext(ctx, &row,
		`SELECT stream, updated_at, saved_at FROM replication_checkpoints WHERE stream = ?`, stream)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	updatedAt, err := sqlite.ParseTime(row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", stream, err)
	}
	savedAt, err := sqlite.ParseTime(row.SavedAt)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", stream, err)
	}
	return &model.ReplicationCheckpoint{Stream: row.Stream, UpdatedAt: updatedAt, SavedAt: savedAt}, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, stream string, updatedAt time.Time) error {
	_, err := r.DB.NamedExecContext(ctx, `
		INSERT INTO replication_checkpoints (stream, updated_at, saved_at)
		VALUES (:stream, :updated_at, :saved_at)
		ON CONFLICT (stream) DO UPDATE SET
			updated_at = excluded.updated_at,
			saved_at = excluded.saved_at`,
		checkpointRow{
			Stream:    stream,
			UpdatedAt: sqlite.FormatTime(updatedAt),
			SavedAt:   sqlite.FormatTime(r.now()),
		},
	)
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", stream, err)
	}
	return nil
}
