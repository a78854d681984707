package syncer

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/alexisbeaulieu97/mhplugin/internal/plugin"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// Watch runs a Sync pass, then re-syncs whenever the plugin root or one of
// its immediate subdirectories changes and has been quiet for the debounce
// period. notify, when non-nil, receives the outcome of every pass. Watch
// returns nil once ctx is cancelled.
func (s *Syncer) Watch(ctx context.Context, notify func(*Report, error)) error {
	const op = "watch plugins"

	root := s.resolver.Root()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return apperrors.Storage(op, "create plugin root", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return apperrors.Storage(op, "create watcher", err)
	}
	defer watcher.Close()

	run := func() {
		report, err := s.Sync(ctx)
		if err != nil && ctx.Err() == nil {
			s.logger.Error(ctx, "plugin sync failed", "error", err)
		}
		s.watchTree(ctx, watcher, root)
		if notify != nil {
			notify(report, err)
		}
	}

	run()
	s.logger.Info(ctx, "watching plugin root", "path", root, "debounce", s.opts.Debounce.String())

	timer := time.NewTimer(s.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if relevant(event) {
				s.logger.Debug(ctx, "plugin root changed", "path", event.Name, "op", event.Op.String())
				timer.Reset(s.opts.Debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn(ctx, "watcher error", "error", err)
		case <-timer.C:
			run()
		}
	}
}

// watchTree ensures root and every valid plugin directory below it are watched.
func (s *Syncer) watchTree(ctx context.Context, watcher *fsnotify.Watcher, root string) {
	if err := watcher.Add(root); err != nil {
		s.logger.Warn(ctx, "cannot watch plugin root", "path", root, "error", err)
		return
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() || !plugin.IsValidWindowID(entry.Name()) {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if err := watcher.Add(dir); err != nil {
			s.logger.Debug(ctx, "cannot watch plugin directory", "path", dir, "error", err)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	// Self-config writes happen at runtime and never change registry membership.
	return base != plugin.SelfConfigFile && base != plugin.SelfConfigFile+".tmp"
}
