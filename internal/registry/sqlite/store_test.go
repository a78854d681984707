package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
	"github.com/alexisbeaulieu97/mhplugin/internal/registry/migrations"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

func openStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenAppliesMigrations(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	version, dirty, err := migrations.Version("sqlite://" + filepath.ToSlash(store.Path()))
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	// Re-opening an up-to-date database is a no-op.
	again, err := Open(context.Background(), store.Path())
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestBatchInsertAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t)

	ids, err := store.KnownIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.InsertBatch(ctx, []ports.Row{
		{WindowID: "p1", Info: []byte(`{"a":1}`), Config: []byte(`{}`), Data: []byte(`{"windowId":"p1"}`)},
		{WindowID: "p2"},
	}))
	// Duplicate ids are ignored rather than failing the batch.
	require.NoError(t, store.InsertBatch(ctx, []ports.Row{{WindowID: "p1", Info: []byte(`{"a":2}`)}}))

	ids, err = store.KnownIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"p1": {}, "p2": {}}, ids)

	row, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(row.Info))

	row, err = store.Get(ctx, "p2")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(row.Data))

	require.NoError(t, store.DeleteBatch(ctx, []string{"p1", "missing"}))
	rows, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p2", rows[0].WindowID)
}

func TestUpdateColumn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.InsertBatch(ctx, []ports.Row{{WindowID: "p1"}}))

	require.NoError(t, store.UpdateColumn(ctx, "p1", ports.ColumnConfig, []byte(`{"theme":"dark"}`)))
	row, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(row.Config))

	require.ErrorIs(t, store.UpdateColumn(ctx, "nope", ports.ColumnConfig, nil), apperrors.ErrNotFound)
	require.ErrorIs(t, store.UpdateColumn(ctx, "p1", "window_id", nil), apperrors.ErrValidation)

	_, err = store.Get(ctx, "nope")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
