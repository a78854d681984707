package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
	"github.com/alexisbeaulieu97/mhplugin/internal/registry/memory"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

func newService(t *testing.T) (*ConfigService, *memory.Store) {
	t.Helper()
	store := memory.New(ports.Row{
		WindowID: "notes",
		Info:     []byte(`{"pinned":true}`),
		Config:   []byte(`{"window":{"width":400}}`),
		Data:     []byte(`{"windowId":"notes","url":"/p/notes/index.html"}`),
	})
	return NewConfigService(store), store
}

func TestConfigServiceGet(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	v, err := svc.Get(ctx, "notes", ports.ColumnConfig, []string{"window", "width"})
	require.NoError(t, err)
	assert.Equal(t, float64(400), v)

	whole, err := svc.Get(ctx, "notes", ports.ColumnInfo, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"pinned": true}, whole)

	url, err := svc.Get(ctx, "notes", ports.ColumnData, []string{"url"})
	require.NoError(t, err)
	assert.Equal(t, "/p/notes/index.html", url)

	_, err = svc.Get(ctx, "notes", ports.ColumnConfig, []string{"window", "height"})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Get(ctx, "ghost", ports.ColumnConfig, nil)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Get(ctx, "bad id", ports.ColumnConfig, nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidIdentifier)
}

func TestConfigServiceSetAndDelete(t *testing.T) {
	t.Parallel()

	svc, store := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "notes", ports.ColumnConfig, []string{"theme", "color"}, "teal"))
	row, err := store.Get(ctx, "notes")
	require.NoError(t, err)
	assert.JSONEq(t, `{"window":{"width":400},"theme":{"color":"teal"}}`, string(row.Config))

	err = svc.Set(ctx, "notes", ports.ColumnConfig, []string{"theme", "color", "shade"}, 1)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, svc.Delete(ctx, "notes", ports.ColumnConfig, []string{"window"}))
	row, err = store.Get(ctx, "notes")
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":{"color":"teal"}}`, string(row.Config))

	require.ErrorIs(t, svc.Delete(ctx, "notes", ports.ColumnConfig, []string{"missing", "x"}), apperrors.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "notes", ports.ColumnInfo, nil))
	row, err = store.Get(ctx, "notes")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(row.Info))

	require.NoError(t, svc.Set(ctx, "notes", ports.ColumnInfo, nil, map[string]any{"a": "b"}))
	require.ErrorIs(t, svc.Set(ctx, "notes", ports.ColumnInfo, nil, "scalar"), apperrors.ErrValidation)
}

func TestConfigServiceProtectsData(t *testing.T) {
	t.Parallel()

	svc, store := newService(t)
	ctx := context.Background()

	err := svc.Set(ctx, "notes", ports.ColumnData, []string{"url"}, "http://evil")
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.ErrorIs(t, svc.Delete(ctx, "notes", ports.ColumnData, nil), apperrors.ErrValidation)
	assert.Zero(t, store.Writes())
}

func TestOpenSelectsDriver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	mem, err := Open(ctx, Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, mem)

	lite, err := Open(ctx, Options{DataRoot: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, lite.Close())

	_, err = Open(ctx, Options{Driver: DriverPostgres})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = Open(ctx, Options{Driver: "oracle"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}
