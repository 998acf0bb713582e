package backend

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
)

var (
	ErrInvalidOrder   = errors.New("invalid order")
	ErrInvalidProduct = errors.New("invalid product")
	ErrInvalidPage    = errors.New("invalid page request")
)

const MaxPageSize = 500

// PageCache stores encoded catalog pages. *cache.RedisClient satisfies it.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// ChangePublisher emits catalog change events. *broker.KafkaProducer
// satisfies it.
type ChangePublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Page struct {
	Products   []model.Product `json:"products"`
	Checkpoint time.Time       `json:"checkpoint"`
}

// UseCase is the system of record behind the sync API.
type UseCase interface {
	PullProducts(ctx context.Context, since time.Time, limit int) (*Page, error)
	// PushOrders validates every order before writing any, then upserts the
	// batch by id.
	PushOrders(ctx context.Context, terminalID string, orders []model.Order) (int, error)
	// UpsertProducts stamps each product with a fresh, strictly increasing
	// updated_at and announces the change.
	UpsertProducts(ctx context.Context, products []model.Product) (*Page, error)
}
