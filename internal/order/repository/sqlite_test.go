package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/internal/order"
	"github.com/fekuna/omnipos-pos-terminal/pkg/database/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T, path string) *SQLiteRepository {
	t.Helper()
	db, err := sqlite.NewSQLite(&sqlite.Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewSQLiteRepository(context.Background(), db)
	require.NoError(t, err)
	return repo
}

func sale(id string, createdAt int64) *model.Order {
	price := decimal.RequireFromString("25.0")
	return &model.Order{
		ID:            id,
		Items:         model.OrderItems{{ProductID: "p1", Name: "Milk", Quantity: 1, Price: price}},
		Subtotal:      price,
		Tax:           decimal.Zero,
		Total:         price,
		Status:        model.OrderStatusCompleted,
		CreatedAt:     createdAt,
		PaymentMethod: model.PaymentMethodCash,
	}
}

func TestSQLiteCreateAndFind(t *testing.T) {
	repo := newSQLiteRepo(t, filepath.Join(t.TempDir(), "orders.db"))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sale("o1", 1)))

	got, err := repo.FindByID(ctx, "o1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Milk", got.Items[0].Name)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, model.PaymentMethodCash, got.PaymentMethod)

	none, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSQLiteCreateDuplicate(t *testing.T) {
	repo := newSQLiteRepo(t, filepath.Join(t.TempDir(), "orders.db"))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sale("o1", 1)))
	err := repo.Create(ctx, sale("o1", 2))
	assert.ErrorIs(t, err, order.ErrDuplicateOrder)
}

func TestSQLitePendingLifecycle(t *testing.T) {
	repo := newSQLiteRepo(t, filepath.Join(t.TempDir(), "orders.db"))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sale("o2", 20)))
	require.NoError(t, repo.Create(ctx, sale("o1", 10)))
	require.NoError(t, repo.Create(ctx, sale("o3", 30)))

	pending, err := repo.ListPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "o1", pending[0].ID)
	assert.Equal(t, "o2", pending[1].ID)

	require.NoError(t, repo.MarkSynced(ctx, []string{"o1", "o2"}, time.Now()))

	n, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err = repo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "o3", pending[0].ID)

	require.NoError(t, repo.MarkSynced(ctx, nil, time.Now()))
}

func TestSQLitePendingSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.db")
	ctx := context.Background()

	first := newSQLiteRepo(t, path)
	require.NoError(t, first.Create(ctx, sale("o1", 1)))
	require.NoError(t, first.DB.Close())

	second := newSQLiteRepo(t, path)
	n, err := second.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
