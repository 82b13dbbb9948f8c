package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/farxc/imoveis_dashboard/internal/imoveis"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "history.db")+"?_time_format=sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, Migrate(context.Background(), db))
}

func TestInsertAndGetLatest(t *testing.T) {
	ctx := context.Background()
	storage := NewStorage(newTestDB(t))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, src := range []string{"a.parquet", "b.parquet", "a.parquet"} {
		h := &LoadHistory{
			Source:     src,
			Format:     "parquet",
			Status:     StatusSuccess,
			RowCount:   10 * (i + 1),
			DurationMs: 42,
			LoadedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, storage.LoadHistory.InsertLoadHistory(ctx, h))
		assert.NotEqual(t, uuid.Nil, h.ID)
	}

	latest, err := storage.LoadHistory.GetLatest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 30, latest[0].RowCount)
	assert.Equal(t, "b.parquet", latest[1].Source)
	assert.WithinDuration(t, base.Add(2*time.Minute), latest[0].LoadedAt, time.Second)

	bySource, err := storage.LoadHistory.GetLatestBySource(ctx, "a.parquet", 10)
	require.NoError(t, err)
	require.Len(t, bySource, 2)
	assert.Equal(t, 30, bySource[0].RowCount)
	assert.Equal(t, 10, bySource[1].RowCount)
}

func TestNewLoadHistory(t *testing.T) {
	id := uuid.New()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	ok := NewLoadHistory(imoveis.Report{
		ID: id, Source: "x.parquet", Format: "parquet", Rows: 5,
		GeometryRows: 4, GeometryInvalid: 1, Duration: 1500 * time.Millisecond, LoadedAt: at,
	})
	assert.Equal(t, id, ok.ID)
	assert.Equal(t, StatusSuccess, ok.Status)
	assert.Equal(t, int64(1500), ok.DurationMs)
	assert.Equal(t, time.UTC, ok.LoadedAt.Location())
	assert.Empty(t, ok.Error)

	failed := NewLoadHistory(imoveis.Report{ID: id, Source: "x.parquet", Err: errors.New("no such file")})
	assert.Equal(t, StatusFailure, failed.Status)
	assert.Equal(t, "no such file", failed.Error)
}
