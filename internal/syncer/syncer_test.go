package syncer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/alexisbeaulieu97/mhplugin/internal/download"
	"github.com/alexisbeaulieu97/mhplugin/internal/installer"
	"github.com/alexisbeaulieu97/mhplugin/internal/plugin"
	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
	"github.com/alexisbeaulieu97/mhplugin/internal/registry/memory"
	"github.com/alexisbeaulieu97/mhplugin/internal/testutil"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

func newSyncer(t *testing.T, opts Options, rows ...ports.Row) (*Syncer, *memory.Store, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "Plugin")
	require.NoError(t, os.MkdirAll(root, 0o755))
	store := memory.New(rows...)
	return New(plugin.NewResolver(root), store, nil, opts), store, root
}

func ids(t *testing.T, store *memory.Store) []string {
	t.Helper()
	known, err := store.KnownIDs(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(known))
	for id := range known {
		out = append(out, id)
	}
	return out
}

func TestSyncCreatesMissingRoot(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "nested", "Plugin")
	store := memory.New(ports.Row{WindowID: "stale"})
	s := New(plugin.NewResolver(root), store, nil, Options{})

	report, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Report{}, report)
	assert.DirExists(t, root)
	assert.Zero(t, store.Writes(), "nothing is reconciled on the first pass")
}

func TestSyncIsIdempotent(t *testing.T) {
	t.Parallel()

	s, store, root := newSyncer(t, Options{})
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("p%d", i)
		testutil.WritePluginDir(t, root, id, id)
	}

	first, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, first.Inserted)
	assert.Equal(t, int64(1), store.Writes())

	second, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Inserted)
	assert.Zero(t, second.Removed)
	assert.Equal(t, 5, second.Valid)
	assert.Equal(t, int64(1), store.Writes(), "second pass performs no writes")
}

func TestSyncSkipsInitForKnownPlugins(t *testing.T) {
	t.Parallel()

	s, store, root := newSyncer(t, Options{}, ports.Row{WindowID: "known", Info: []byte(`{"kept":true}`)})
	dir := testutil.WritePluginDir(t, root, "known", "known")
	require.NoError(t, os.WriteFile(filepath.Join(dir, plugin.InitFile), []byte(`{"info":{"kept":false}}`), 0o644))

	_, err := s.Sync(context.Background())
	require.NoError(t, err)

	row, err := store.Get(context.Background(), "known")
	require.NoError(t, err)
	assert.JSONEq(t, `{"kept":true}`, string(row.Info))
}

func TestSyncRejectsIdentitySpoofing(t *testing.T) {
	t.Parallel()

	s, store, root := newSyncer(t, Options{})
	testutil.WritePluginDir(t, root, "pluginA", "pluginB")

	report, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Invalid)
	assert.Empty(t, ids(t, store))
}

func TestSyncInvalidCandidates(t *testing.T) {
	t.Parallel()

	s, store, root := newSyncer(t, Options{})

	noIndex := filepath.Join(root, "noindex")
	require.NoError(t, os.MkdirAll(noIndex, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(noIndex, plugin.ManifestFile), []byte(testutil.Manifest("noindex")), 0o644))

	broken := testutil.WritePluginDir(t, root, "broken", "broken")
	require.NoError(t, os.WriteFile(filepath.Join(broken, plugin.ManifestFile), []byte(`{"windowId":`), 0o644))

	numeric := testutil.WritePluginDir(t, root, "numeric", "numeric")
	require.NoError(t, os.WriteFile(filepath.Join(numeric, plugin.ManifestFile), []byte(`{"windowId":42}`), 0o644))

	require.NoError(t, os.MkdirAll(filepath.Join(root, "bad name"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644))
	testutil.WritePluginDir(t, root, "good", "good")

	report, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Report{Scanned: 5, Skipped: 1, Invalid: 3, Valid: 1, Inserted: 1}, report)
	assert.Equal(t, []string{"good"}, ids(t, store))
}

func TestSyncOrphanCleanupAndReinsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, store, root := newSyncer(t, Options{})
	dir := testutil.WritePluginDir(t, root, "p1", "p1")

	_, err := s.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"p1"}, ids(t, store))

	require.NoError(t, os.RemoveAll(dir))
	report, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	assert.Empty(t, ids(t, store))

	testutil.WritePluginDir(t, root, "p1", "p1")
	report, err = s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, []string{"p1"}, ids(t, store))
}

func TestSyncScenarioB(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, store, root := newSyncer(t, Options{},
		ports.Row{WindowID: "p1", Config: []byte(`{"x":1}`)},
		ports.Row{WindowID: "p3"},
	)
	testutil.WritePluginDir(t, root, "p1", "p1")
	testutil.WritePluginDir(t, root, "p2", "p2")

	report, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Removed)
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids(t, store))

	row, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(row.Config), "existing rows are not rewritten")
}

func TestSyncSeedsFromInitFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, store, root := newSyncer(t, Options{})

	seeded := testutil.WritePluginDir(t, root, "seeded", "seeded")
	require.NoError(t, os.WriteFile(filepath.Join(seeded, plugin.InitFile),
		[]byte(`{"info":{"pinned":true},"config":{"theme":"dark"}}`), 0o644))

	partial := testutil.WritePluginDir(t, root, "partial", "partial")
	require.NoError(t, os.WriteFile(filepath.Join(partial, plugin.InitFile), []byte(`{"info":[1,2]}`), 0o644))

	corrupt := testutil.WritePluginDir(t, root, "corrupt", "corrupt")
	require.NoError(t, os.WriteFile(filepath.Join(corrupt, plugin.InitFile), []byte(`{nope`), 0o644))

	_, err := s.Sync(ctx)
	require.NoError(t, err)

	row, err := store.Get(ctx, "seeded")
	require.NoError(t, err)
	assert.JSONEq(t, `{"pinned":true}`, string(row.Info))
	assert.JSONEq(t, `{"theme":"dark"}`, string(row.Config))

	for _, id := range []string{"partial", "corrupt"} {
		row, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(row.Info), id)
		assert.JSONEq(t, `{}`, string(row.Config), id)
	}
}

func TestSyncInjectsURLPreservingManifest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, store, root := newSyncer(t, Options{})
	dir := testutil.WritePluginDir(t, root, "notes", "notes")
	require.NoError(t, os.WriteFile(filepath.Join(dir, plugin.ManifestFile),
		[]byte(`{"windowId":"notes","title":"Notes","url":"http://stale"}`), 0o644))

	_, err := s.Sync(ctx)
	require.NoError(t, err)

	row, err := store.Get(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, "Notes", gjson.GetBytes(row.Data, "title").String())
	assert.Equal(t, plugin.IndexURL(dir), gjson.GetBytes(row.Data, "url").String())
}

func TestSyncBatchesInserts(t *testing.T) {
	t.Parallel()

	s, store, root := newSyncer(t, Options{Concurrency: 2, BatchSize: 2})
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("b%d", i)
		testutil.WritePluginDir(t, root, id, id)
	}

	report, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Inserted)
	assert.Equal(t, int64(3), store.Writes(), "two full batches and one remainder")
}

func TestSyncReportsStoreFailure(t *testing.T) {
	t.Parallel()

	s, store, root := newSyncer(t, Options{})
	testutil.WritePluginDir(t, root, "p1", "p1")
	store.FailWrites = errors.New("database is locked")

	report, err := s.Sync(context.Background())
	require.ErrorIs(t, err, apperrors.ErrStorage)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Valid)
	assert.Zero(t, report.Inserted)
}

func TestScenarioAInstallThenSync(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, store, root := newSyncer(t, Options{})
	inst := installer.New(plugin.NewResolver(root), download.NewFetcher(nil, 0), nil)

	payload := testutil.PluginZip(t, "abc123")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	require.NoError(t, inst.InstallFromURL(ctx, srv.URL+"/abc123.zip", "abc123"))
	assert.ElementsMatch(t, []string{"index.html", "mhPlugin.json"}, testutil.ListFiles(t, filepath.Join(root, "abc123")))

	report, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)

	row, err := store.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, plugin.IndexURL(filepath.Join(root, "abc123")), gjson.GetBytes(row.Data, "url").String())

	// Uninstall leaves the row until the next pass.
	require.NoError(t, inst.Uninstall(ctx, "abc123"))
	assert.Equal(t, []string{"abc123"}, ids(t, store))
	_, err = s.Sync(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids(t, store))
}

func TestWatchResyncsOnChange(t *testing.T) {
	t.Parallel()

	s, store, root := newSyncer(t, Options{Debounce: 20 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reports := make(chan *Report, 16)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, func(r *Report, _ error) {
			select {
			case reports <- r:
			default:
			}
		})
	}()

	select {
	case <-reports:
	case <-time.After(5 * time.Second):
		t.Fatal("initial sync did not run")
	}

	// Build the plugin elsewhere and move it in so it appears complete.
	staging := t.TempDir()
	testutil.WritePluginDir(t, staging, "live", "live")
	require.NoError(t, os.Rename(filepath.Join(staging, "live"), filepath.Join(root, "live")))

	require.Eventually(t, func() bool {
		known, err := store.KnownIDs(context.Background())
		return err == nil && len(known) == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
