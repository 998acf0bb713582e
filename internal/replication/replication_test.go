package replication

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	orderrepo "github.com/fekuna/omnipos-pos-terminal/internal/order/repository"
	productrepo "github.com/fekuna/omnipos-pos-terminal/internal/product/repository"
	cprepo "github.com/fekuna/omnipos-pos-terminal/internal/replication/repository"
	"github.com/fekuna/omnipos-pos-terminal/pkg/database/sqlite"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu       sync.Mutex
	products []model.Product
	err      error
	calls    int
	sinces   []time.Time
	// reverse hands pages back newest first to exercise local sorting.
	reverse bool
	limits  []int
}

func (s *fakeSource) PullProducts(_ context.Context, since time.Time, limit int) (*CatalogPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.sinces = append(s.sinces, since)
	s.limits = append(s.limits, limit)
	if s.err != nil {
		return nil, s.err
	}
	if limit > MaxBatchSize {
		return nil, fmt.Errorf("limit %d above %d", limit, MaxBatchSize)
	}

	all := append([]model.Product(nil), s.products...)
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.Before(all[j].UpdatedAt) })

	var page []model.Product
	for _, p := range all {
		if p.UpdatedAt.After(since) {
			page = append(page, p)
		}
		if len(page) == limit {
			break
		}
	}
	if s.reverse {
		for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
			page[i], page[j] = page[j], page[i]
		}
	}
	out := &CatalogPage{Products: page, Checkpoint: since}
	if len(page) > 0 {
		out.Checkpoint = page[len(page)-1].UpdatedAt
	}
	return out, nil
}

func (s *fakeSource) set(products ...model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
}

func (s *fakeSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeSink upserts by id. failAfterStore makes the next call persist the
// batch and still report failure, like a lost acknowledgement.
type fakeSink struct {
	mu             sync.Mutex
	remote         map[string]model.Order
	writes         int
	err            error
	failAfterStore bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{remote: map[string]model.Order{}}
}

func (s *fakeSink) PushOrders(_ context.Context, orders []model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, o := range orders {
		s.remote[o.ID] = o
		s.writes++
	}
	if s.failAfterStore {
		s.failAfterStore = false
		return errors.New("ack lost")
	}
	return nil
}

func (s *fakeSink) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.remote)
}

type flakyCheckpoints struct {
	CheckpointRepository
	failSaves int
}

func (f *flakyCheckpoints) Save(ctx context.Context, stream string, at time.Time) error {
	if f.failSaves > 0 {
		f.failSaves--
		return errors.New("disk busy")
	}
	return f.CheckpointRepository.Save(ctx, stream, at)
}

type stores struct {
	db          *sqlx.DB
	products    *productrepo.SQLiteRepository
	orders      *orderrepo.SQLiteRepository
	checkpoints *cprepo.SQLiteRepository
}

func openStores(t *testing.T, path string) *stores {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.NewSQLite(&sqlite.Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := &stores{db: db}
	s.products, err = productrepo.NewSQLiteRepository(ctx, db)
	require.NoError(t, err)
	s.orders, err = orderrepo.NewSQLiteRepository(ctx, db)
	require.NoError(t, err)
	s.checkpoints, err = cprepo.NewSQLiteRepository(ctx, db)
	require.NoError(t, err)
	return s
}

func newStores(t *testing.T) *stores {
	return openStores(t, filepath.Join(t.TempDir(), "terminal.db"))
}

func remoteProduct(i int) model.Product {
	return model.Product{
		ID:        fmt.Sprintf("p%02d", i),
		Name:      fmt.Sprintf("Product %d", i),
		Barcode:   fmt.Sprintf("89010308757%02d", i),
		Price:     decimal.NewFromInt(int64(10 + i)),
		UpdatedAt: t0.Add(time.Duration(i) * time.Minute),
	}
}

func catalog(n int) []model.Product {
	out := make([]model.Product, n)
	for i := range out {
		out[i] = remoteProduct(i + 1)
	}
	return out
}

func testOptions() Options {
	return Options{
		BatchSize:   3,
		Interval:    20 * time.Millisecond,
		BackoffMax:  20 * time.Millisecond,
		CallTimeout: time.Second,
	}
}

func completedOrder(id string, createdAt int64) *model.Order {
	price := decimal.RequireFromString("2.50")
	return &model.Order{
		ID:            id,
		Items:         model.OrderItems{{ProductID: "p1", Name: "Milk", Quantity: 2, Price: price}},
		Subtotal:      decimal.NewFromInt(5),
		Tax:           decimal.Zero,
		Total:         decimal.NewFromInt(5),
		Status:        model.OrderStatusCompleted,
		CreatedAt:     createdAt,
		PaymentMethod: model.PaymentMethodCash,
	}
}
