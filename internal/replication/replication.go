package replication

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
)

// CatalogPage is one page of the remote catalog, ascending by updated_at.
type CatalogPage struct {
	Products   []model.Product
	Checkpoint time.Time
}

// CatalogSource is the remote paged read of products updated strictly after
// since.
type CatalogSource interface {
	PullProducts(ctx context.Context, since time.Time, limit int) (*CatalogPage, error)
}

// OrderSink upserts orders by id. A batch is atomic for retry purposes.
type OrderSink interface {
	PushOrders(ctx context.Context, orders []model.Order) error
}

type CheckpointRepository interface {
	// Load returns nil when the stream has never saved a checkpoint.
	Load(ctx context.Context, stream string) (*model.ReplicationCheckpoint, error)
	Save(ctx context.Context, stream string, updatedAt time.Time) error
}

// Epoch is the checkpoint of a stream that has never run.
var Epoch = time.Unix(0, 0).UTC()
