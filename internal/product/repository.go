package product

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
)

// Repository is the terminal-local product collection.
type Repository interface {
	// UpsertBatch replaces every product by id, in slice order, atomically.
	UpsertBatch(ctx context.Context, products []model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	Count(ctx context.Context) (int, error)
}

// RemoteRepository is the backend's system-of-record product table.
type RemoteRepository interface {
	ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]model.Product, error)
	UpsertBatch(ctx context.Context, products []model.Product) error
}
