package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/backend"
	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memProducts struct {
	mu    sync.Mutex
	byID  map[string]model.Product
	lists int
}

func newMemProducts() *memProducts {
	return &memProducts{byID: map[string]model.Product{}}
}

func (m *memProducts) ListUpdatedSince(_ context.Context, since time.Time, limit int) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	var out []model.Product
	for _, p := range m.byID {
		if p.UpdatedAt.After(since) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memProducts) UpsertBatch(_ context.Context, products []model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		m.byID[p.ID] = p
	}
	return nil
}

type memOrders struct {
	byID     map[string]model.Order
	terminal map[string]string
	err      error
}

func newMemOrders() *memOrders {
	return &memOrders{byID: map[string]model.Order{}, terminal: map[string]string{}}
}

func (m *memOrders) UpsertBatch(_ context.Context, terminalID string, orders []model.Order) error {
	if m.err != nil {
		return m.err
	}
	for _, o := range orders {
		m.byID[o.ID] = o
		m.terminal[o.ID] = terminalID
	}
	return nil
}

type memCache struct {
	data map[string][]byte
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) error {
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

type memPublisher struct {
	events []model.CatalogChangedEvent
}

func (p *memPublisher) Publish(_ context.Context, _ string, event any) error {
	p.events = append(p.events, event.(model.CatalogChangedEvent))
	return nil
}

type fixture struct {
	uc        *backendUseCase
	products  *memProducts
	orders    *memOrders
	cache     *memCache
	publisher *memPublisher
}

func newFixture() *fixture {
	f := &fixture{
		products:  newMemProducts(),
		orders:    newMemOrders(),
		cache:     &memCache{data: map[string][]byte{}},
		publisher: &memPublisher{},
	}
	f.uc = NewBackendUseCase(f.products, f.orders, f.cache, f.publisher, time.Minute, logger.NewNop()).(*backendUseCase)
	f.uc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

func items(n int) []model.Product {
	out := make([]model.Product, n)
	for i := range out {
		out[i] = model.Product{
			ID:      fmt.Sprintf("p%d", i),
			Name:    fmt.Sprintf("Item %d", i),
			Barcode: fmt.Sprintf("400638133393%d", i),
			Price:   decimal.NewFromInt(int64(i + 1)),
		}
	}
	return out
}

func TestUpsertProductsStampsIncreasingTimestamps(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	page, err := f.uc.UpsertProducts(ctx, items(3))
	require.NoError(t, err)
	require.Len(t, page.Products, 3)
	for i := 1; i < 3; i++ {
		assert.True(t, page.Products[i].UpdatedAt.After(page.Products[i-1].UpdatedAt))
	}
	assert.True(t, page.Checkpoint.Equal(page.Products[2].UpdatedAt))

	require.Len(t, f.publisher.events, 1)
	ev := f.publisher.events[0]
	assert.Equal(t, model.EventProductsChanged, ev.EventType)
	assert.Equal(t, []string{"p0", "p1", "p2"}, ev.Payload.ProductIDs)
	assert.True(t, ev.Payload.MaxUpdatedAt.Equal(page.Checkpoint))
}

// commitLog records the stamps of each batch in commit order. The first
// commit stalls so concurrent writers pile up behind it.
type commitLog struct {
	*memProducts
	stall   time.Duration
	mu      sync.Mutex
	commits [][]time.Time
}

func (c *commitLog) UpsertBatch(ctx context.Context, products []model.Product) error {
	c.mu.Lock()
	first := len(c.commits) == 0
	c.mu.Unlock()
	if first {
		time.Sleep(c.stall)
	}

	stamps := make([]time.Time, len(products))
	for i, p := range products {
		stamps[i] = p.UpdatedAt
	}
	c.mu.Lock()
	c.commits = append(c.commits, stamps)
	c.mu.Unlock()
	return c.memProducts.UpsertBatch(ctx, products)
}

func TestUpsertProductsCommitsInStampOrder(t *testing.T) {
	ctx := context.Background()
	log := &commitLog{memProducts: newMemProducts(), stall: 30 * time.Millisecond}
	uc := NewBackendUseCase(log, newMemOrders(), nil, nil, time.Minute, logger.NewNop()).(*backendUseCase)

	// A clock that jumps backwards must not let a later batch slot in
	// under an earlier one.
	var tick sync.Mutex
	clock := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	uc.now = func() time.Time {
		tick.Lock()
		defer tick.Unlock()
		clock = clock.Add(-time.Millisecond)
		return clock
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.UpsertProducts(ctx, items(3))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, log.commits, 8)
	var prev time.Time
	for _, batch := range log.commits {
		for _, ts := range batch {
			assert.True(t, ts.After(prev), "stamp %s not after %s", ts, prev)
			prev = ts
		}
	}
}

func TestUpsertProductsRejectsInvalid(t *testing.T) {
	f := newFixture()
	bad := items(2)
	bad[1].Price = decimal.NewFromInt(-1)

	_, err := f.uc.UpsertProducts(context.Background(), bad)
	assert.ErrorIs(t, err, backend.ErrInvalidProduct)
	assert.Empty(t, f.products.byID)
	assert.Empty(t, f.publisher.events)
}

func TestPullProductsPagesAscending(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.uc.UpsertProducts(ctx, items(5))
	require.NoError(t, err)

	var got []string
	since := time.Unix(0, 0)
	for {
		page, err := f.uc.PullProducts(ctx, since, 2)
		require.NoError(t, err)
		if len(page.Products) == 0 {
			assert.True(t, page.Checkpoint.Equal(since))
			break
		}
		for _, p := range page.Products {
			got = append(got, p.ID)
		}
		since = page.Checkpoint
	}
	assert.Equal(t, []string{"p0", "p1", "p2", "p3", "p4"}, got)
}

func TestPullProductsCachesFullPagesUntilUpsert(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.uc.UpsertProducts(ctx, items(4))
	require.NoError(t, err)

	since := time.Unix(0, 0)
	_, err = f.uc.PullProducts(ctx, since, 2)
	require.NoError(t, err)
	_, err = f.uc.PullProducts(ctx, since, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, f.products.lists, "second read served from cache")
	assert.Len(t, f.cache.data, 1)

	// Short pages are never cached.
	_, err = f.uc.PullProducts(ctx, since, 10)
	require.NoError(t, err)
	assert.Len(t, f.cache.data, 1)

	f.uc.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	_, err = f.uc.UpsertProducts(ctx, items(1))
	require.NoError(t, err)
	assert.Empty(t, f.cache.data)

	page, err := f.uc.PullProducts(ctx, since, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, []string{page.Products[0].ID, page.Products[1].ID})
}

func TestPullProductsRejectsBadLimit(t *testing.T) {
	f := newFixture()
	_, err := f.uc.PullProducts(context.Background(), time.Time{}, 0)
	assert.ErrorIs(t, err, backend.ErrInvalidPage)
	_, err = f.uc.PullProducts(context.Background(), time.Time{}, backend.MaxPageSize+1)
	assert.ErrorIs(t, err, backend.ErrInvalidPage)
}

func validOrder(id string) model.Order {
	return model.Order{
		ID:            id,
		Items:         model.OrderItems{{ProductID: "p1", Name: "Milk", Quantity: 1, Price: decimal.NewFromInt(25)}},
		Subtotal:      decimal.NewFromInt(25),
		Tax:           decimal.Zero,
		Total:         decimal.NewFromInt(25),
		Status:        model.OrderStatusCompleted,
		CreatedAt:     1,
		PaymentMethod: model.PaymentMethodCash,
	}
}

func TestPushOrdersUpsertsByID(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	n, err := f.uc.PushOrders(ctx, "till-1", []model.Order{validOrder("o1"), validOrder("o2")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.uc.PushOrders(ctx, "till-1", []model.Order{validOrder("o1")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Len(t, f.orders.byID, 2)
	assert.Equal(t, "till-1", f.orders.terminal["o1"])
}

func TestPushOrdersValidatesWholeBatchFirst(t *testing.T) {
	f := newFixture()
	bad := validOrder("o2")
	bad.Total = decimal.NewFromInt(99)

	_, err := f.uc.PushOrders(context.Background(), "till-1", []model.Order{validOrder("o1"), bad})
	assert.ErrorIs(t, err, backend.ErrInvalidOrder)
	assert.ErrorIs(t, err, model.ErrOrderTotals)
	assert.Empty(t, f.orders.byID)
}

func TestPushOrdersStoreError(t *testing.T) {
	f := newFixture()
	f.orders.err = errors.New("connection reset")

	_, err := f.uc.PushOrders(context.Background(), "till-1", []model.Order{validOrder("o1")})
	assert.EqualError(t, err, "connection reset")
}
