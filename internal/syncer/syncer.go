// Package syncer reconciles the plugin_config registry with the plugin
// directories found on disk.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/alexisbeaulieu97/mhplugin/internal/fanout"
	"github.com/alexisbeaulieu97/mhplugin/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/mhplugin/internal/plugin"
	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// Defaults applied to zero Options fields.
const (
	DefaultConcurrency = 32
	DefaultBatchSize   = 100
	DefaultDebounce    = 500 * time.Millisecond
)

var emptyObject = []byte("{}")

// Options tunes a Syncer.
type Options struct {
	// Concurrency bounds how many directories are validated at once.
	Concurrency int
	// BatchSize is the number of new rows written per insert transaction.
	BatchSize int
	// Debounce is the quiet period Watch waits for before re-syncing.
	Debounce time.Duration
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	return o
}

// Report summarizes one Sync pass.
type Report struct {
	Scanned  int `json:"scanned"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
	Valid    int `json:"valid"`
	Inserted int `json:"inserted"`
	Removed  int `json:"removed"`
}

// Syncer scans the plugin root and reconciles the registry with it.
type Syncer struct {
	resolver *plugin.Resolver
	store    ports.RegistryStore
	logger   ports.Logger
	opts     Options
}

// New returns a Syncer. A nil logger discards output.
func New(resolver *plugin.Resolver, store ports.RegistryStore, logger ports.Logger, opts Options) *Syncer {
	return &Syncer{
		resolver: resolver,
		store:    store,
		logger:   logging.OrNoOp(logger).With("component", "syncer"),
		opts:     opts.withDefaults(),
	}
}

type candidate struct {
	id  string
	dir string
	new bool
}

type validated struct {
	id  string
	new bool
	row ports.Row
}

// Sync performs one reconciliation pass. Individual invalid plugins are
// logged and skipped; only failures to prepare the plugin root, list it, or
// talk to the registry are returned.
func (s *Syncer) Sync(ctx context.Context) (*Report, error) {
	const op = "sync plugins"
	start := time.Now()
	report := &Report{}
	root := s.resolver.Root()

	if _, err := os.Stat(root); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Storage(op, "stat plugin root", err)
		}
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, apperrors.Storage(op, "create plugin root", err)
		}
		s.logger.Info(ctx, "created plugin root", "path", root)
		return report, nil
	}

	known, err := s.store.KnownIDs(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, apperrors.Storage(op, "list plugin root", err)
	}

	candidates := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && entry.Type()&fs.ModeSymlink == 0 {
			continue
		}
		report.Scanned++
		name := entry.Name()
		if !plugin.IsValidWindowID(name) {
			report.Skipped++
			s.logger.Warn(ctx, "ignoring directory with invalid name", "name", name)
			continue
		}
		_, isKnown := known[name]
		candidates = append(candidates, candidate{id: name, dir: filepath.Join(root, name), new: !isKnown})
	}

	processed := make(map[string]struct{}, len(candidates))
	pending := make([]ports.Row, 0, s.opts.BatchSize)
	var insertErr error

	flush := func() {
		if len(pending) == 0 || insertErr != nil {
			return
		}
		if err := s.store.InsertBatch(ctx, pending); err != nil {
			insertErr = err
			s.logger.Error(ctx, "registry insert failed", "rows", len(pending), "error", err)
		} else {
			report.Inserted += len(pending)
		}
		pending = pending[:0]
	}

	err = fanout.Collect(ctx, candidates, s.opts.Concurrency, s.validate, func(v validated) {
		processed[v.id] = struct{}{}
		report.Valid++
		if !v.new {
			return
		}
		pending = append(pending, v.row)
		if len(pending) >= s.opts.BatchSize {
			flush()
		}
	})
	if err != nil {
		return nil, err
	}
	flush()
	report.Invalid = len(candidates) - report.Valid

	var orphans []string
	for id := range known {
		if _, ok := processed[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)

	var deleteErr error
	if len(orphans) > 0 {
		if deleteErr = s.store.DeleteBatch(ctx, orphans); deleteErr == nil {
			report.Removed = len(orphans)
			s.logger.Info(ctx, "removed orphaned registry rows", "window_ids", orphans)
		}
	}
	if err := errors.Join(insertErr, deleteErr); err != nil {
		return report, err
	}

	s.logger.Info(ctx, "plugin sync finished",
		"scanned", report.Scanned,
		"valid", report.Valid,
		"invalid", report.Invalid,
		"inserted", report.Inserted,
		"removed", report.Removed,
		"duration_ms", time.Since(start).Milliseconds())
	return report, nil
}

// validate checks one candidate directory and builds its registry row.
func (s *Syncer) validate(ctx context.Context, c candidate) (validated, bool) {
	log := s.logger.With("window_id", c.id)

	info, err := os.Stat(c.dir)
	if err != nil || !info.IsDir() {
		log.Warn(ctx, "plugin path is not a directory")
		return validated{}, false
	}
	if _, err := os.Stat(filepath.Join(c.dir, plugin.IndexFile)); err != nil {
		log.Warn(ctx, "plugin is missing index.html")
		return validated{}, false
	}

	manifest, err := os.ReadFile(filepath.Join(c.dir, plugin.ManifestFile))
	if err != nil {
		log.Warn(ctx, "cannot read plugin manifest", "error", err)
		return validated{}, false
	}
	if !gjson.ValidBytes(manifest) || !gjson.ParseBytes(manifest).IsObject() {
		log.Warn(ctx, "plugin manifest is not a JSON object")
		return validated{}, false
	}
	claimed := gjson.GetBytes(manifest, "windowId")
	if claimed.Type != gjson.String || claimed.Str != c.id {
		log.Warn(ctx, "manifest windowId does not match directory name", "manifest_window_id", claimed.String())
		return validated{}, false
	}

	data, err := sjson.SetBytes(manifest, "url", plugin.IndexURL(c.dir))
	if err != nil {
		log.Warn(ctx, "cannot annotate manifest", "error", err)
		return validated{}, false
	}

	v := validated{id: c.id, new: c.new, row: ports.Row{WindowID: c.id, Data: data}}
	if c.new {
		v.row.Info, v.row.Config = s.readInit(ctx, log, c.dir)
	}
	return v, true
}

// readInit returns the info and config seeds from init.json, defaulting each
// to an empty object.
func (s *Syncer) readInit(ctx context.Context, log ports.Logger, dir string) ([]byte, []byte) {
	raw, err := os.ReadFile(filepath.Join(dir, plugin.InitFile))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn(ctx, "cannot read init.json", "error", err)
		}
		return emptyObject, emptyObject
	}
	if !gjson.ValidBytes(raw) {
		log.Warn(ctx, "init.json is not valid JSON")
		return emptyObject, emptyObject
	}
	return objectOrEmpty(gjson.GetBytes(raw, "info")), objectOrEmpty(gjson.GetBytes(raw, "config"))
}

func objectOrEmpty(r gjson.Result) []byte {
	if !r.IsObject() {
		return emptyObject
	}
	return []byte(r.Raw)
}

// String renders a one-line summary.
func (r *Report) String() string {
	return fmt.Sprintf("scanned %d, valid %d, invalid %d, skipped %d, inserted %d, removed %d",
		r.Scanned, r.Valid, r.Invalid, r.Skipped, r.Inserted, r.Removed)
}
