package order

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
)

var ErrDuplicateOrder = errors.New("order already exists")

// Repository is the terminal-local order collection. An order is pending
// until MarkSynced records that the remote sink acknowledged it.
type Repository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	ListPending(ctx context.Context, limit int) ([]model.Order, error)
	MarkSynced(ctx context.Context, ids []string, at time.Time) error
	CountPending(ctx context.Context) (int, error)
}

// RemoteRepository is the backend's order sink.
type RemoteRepository interface {
	UpsertBatch(ctx context.Context, terminalID string, orders []model.Order) error
}
