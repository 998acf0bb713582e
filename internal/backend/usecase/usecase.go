package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/backend"
	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/internal/order"
	"github.com/fekuna/omnipos-pos-terminal/internal/product"
	"github.com/fekuna/omnipos-pos-terminal/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const pageCachePrefix = "catalog:page:"

type backendUseCase struct {
	products  product.RemoteRepository
	orders    order.RemoteRepository
	cache     backend.PageCache
	publisher backend.ChangePublisher
	cacheTTL  time.Duration
	logger    logger.ZapLogger
	now       func() time.Time

	// writeMu spans stamping and commit, so commit order matches stamp
	// order and a reader's checkpoint can never pass an uncommitted write.
	writeMu   sync.Mutex
	lastStamp time.Time
}

// NewBackendUseCase wires the sync backend. cache and publisher may be nil.
func NewBackendUseCase(
	products product.RemoteRepository,
	orders order.RemoteRepository,
	cache backend.PageCache,
	publisher backend.ChangePublisher,
	cacheTTL time.Duration,
	log logger.ZapLogger,
) backend.UseCase {
	return &backendUseCase{
		products:  products,
		orders:    orders,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  cacheTTL,
		logger:    log,
		now:       time.Now,
	}
}

func (uc *backendUseCase) PullProducts(ctx context.Context, since time.Time, limit int) (*backend.Page, error) {
	if limit <= 0 || limit > backend.MaxPageSize {
		return nil, fmt.Errorf("%w: limit %d", backend.ErrInvalidPage, limit)
	}
	since = since.UTC()

	cacheKey := uc.generateCacheKey(since, limit)
	if uc.cache != nil {
		data, ok, err := uc.cache.Get(ctx, cacheKey)
		if err != nil {
			uc.logger.Warn("page cache read failed", zap.String("key", cacheKey), zap.Error(err))
		} else if ok {
			var page backend.Page
			if err := json.Unmarshal(data, &page); err == nil {
				return &page, nil
			}
			uc.logger.Warn("dropping corrupt cached page", zap.String("key", cacheKey))
		}
	}

	products, err := uc.products.ListUpdatedSince(ctx, since, limit)
	if err != nil {
		return nil, err
	}

	page := &backend.Page{Products: products, Checkpoint: since}
	if len(products) > 0 {
		page.Checkpoint = products[len(products)-1].UpdatedAt
	}

	// A short page may still grow, so only full pages are cached.
	if uc.cache != nil && len(products) == limit {
		if data, err := json.Marshal(page); err == nil {
			if err := uc.cache.Set(ctx, cacheKey, data, uc.cacheTTL); err != nil {
				uc.logger.Warn("page cache write failed", zap.String("key", cacheKey), zap.Error(err))
			}
		}
	}
	return page, nil
}

func (uc *backendUseCase) PushOrders(ctx context.Context, terminalID string, orders []model.Order) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}
	for i := range orders {
		if err := orders[i].Validate(); err != nil {
			return 0, fmt.Errorf("%w: %s: %w", backend.ErrInvalidOrder, orders[i].ID, err)
		}
	}

	if err := uc.orders.UpsertBatch(ctx, terminalID, orders); err != nil {
		uc.logger.Error("failed to upsert orders",
			zap.String("terminal_id", terminalID),
			zap.Int("orders", len(orders)),
			zap.Error(err),
		)
		return 0, err
	}

	uc.logger.Info("orders received", zap.String("terminal_id", terminalID), zap.Int("orders", len(orders)))
	return len(orders), nil
}

func (uc *backendUseCase) UpsertProducts(ctx context.Context, products []model.Product) (*backend.Page, error) {
	if len(products) == 0 {
		return &backend.Page{}, nil
	}

	stamped := make([]model.Product, len(products))
	ids := make([]string, len(products))
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: product at index %d has no id", backend.ErrInvalidProduct, i)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("%w: %s has a negative price", backend.ErrInvalidProduct, p.ID)
		}
		if p.StockQuantity < 0 {
			return nil, fmt.Errorf("%w: %s has negative stock", backend.ErrInvalidProduct, p.ID)
		}
		stamped[i] = p
		ids[i] = p.ID
	}

	if err := uc.commitStamped(ctx, stamped); err != nil {
		uc.logger.Error("failed to upsert products", zap.Int("products", len(stamped)), zap.Error(err))
		return nil, err
	}

	page := &backend.Page{Products: stamped, Checkpoint: stamped[len(stamped)-1].UpdatedAt}

	if uc.cache != nil {
		if err := uc.cache.DeletePrefix(ctx, pageCachePrefix); err != nil {
			uc.logger.Warn("page cache invalidation failed", zap.Error(err))
		}
	}

	if uc.publisher != nil {
		event := model.CatalogChangedEvent{
			EventID:   uuid.NewString(),
			EventType: model.EventProductsChanged,
			Payload: model.CatalogChangedPayload{
				ProductIDs:   ids,
				MaxUpdatedAt: page.Checkpoint,
			},
			Timestamp: uc.now().UTC(),
		}
		if err := uc.publisher.Publish(ctx, event.EventID, event); err != nil {
			uc.logger.Warn("failed to publish catalog change", zap.Error(err))
		}
	}

	uc.logger.Info("products upserted", zap.Int("products", len(stamped)))
	return page, nil
}

// commitStamped assigns updated_at and writes the batch under writeMu.
// Microsecond steps survive Postgres timestamp precision and keep every
// product on its own checkpoint position, so a page boundary never falls
// between two equal timestamps. Stamps never repeat or go backwards, even
// when the wall clock does.
func (uc *backendUseCase) commitStamped(ctx context.Context, products []model.Product) error {
	uc.writeMu.Lock()
	defer uc.writeMu.Unlock()

	base := uc.now().UTC().Truncate(time.Microsecond)
	if floor := uc.lastStamp.Add(time.Microsecond); base.Before(floor) {
		base = floor
	}
	for i := range products {
		products[i].UpdatedAt = base.Add(time.Duration(i) * time.Microsecond)
	}

	if err := uc.products.UpsertBatch(ctx, products); err != nil {
		return err
	}
	uc.lastStamp = products[len(products)-1].UpdatedAt
	return nil
}

func (uc *backendUseCase) generateCacheKey(since time.Time, limit int) string {
	raw := fmt.Sprintf("%s|%d", since.Format(time.RFC3339Nano), limit)
	return fmt.Sprintf("%s%x", pageCachePrefix, md5.Sum([]byte(raw)))
}
