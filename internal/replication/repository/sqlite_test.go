package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/pkg/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cp.db")

	db, err := sqlite.NewSQLite(&sqlite.Config{Path: path})
	require.NoError(t, err)
	repo, err := NewSQLiteRepository(ctx, db)
	require.NoError(t, err)

	cp, err := repo.Load(ctx, model.StreamProductPull)
	require.NoError(t, err)
	assert.Nil(t, cp)

	at := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)
	require.NoError(t, repo.Save(ctx, model.StreamProductPull, at))
	require.NoError(t, repo.Save(ctx, model.StreamProductPull, at.Add(time.Second)))
	require.NoError(t, db.Close())

	db, err = sqlite.NewSQLite(&sqlite.Config{Path: path})
	require.NoError(t, err)
	defer db.Close()
	repo, err = NewSQLiteRepository(ctx, db)
	require.NoError(t, err)

	cp, err = repo.Load(ctx, model.StreamProductPull)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, model.StreamProductPull, cp.Stream)
	assert.True(t, cp.UpdatedAt.Equal(at.Add(time.Second)))
	assert.False(t, cp.SavedAt.IsZero())

	other, err := repo.Load(ctx, model.StreamOrderPush)
	require.NoError(t, err)
	assert.Nil(t, other)
}
