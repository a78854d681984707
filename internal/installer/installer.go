// Package installer installs plugin packages into their directories and
// removes them again. It never touches the registry; the sync engine
// reconciles rows with what it finds on disk.
package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/alexisbeaulieu97/mhplugin/internal/archive"
	"github.com/alexisbeaulieu97/mhplugin/internal/download"
	"github.com/alexisbeaulieu97/mhplugin/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/mhplugin/internal/plugin"
	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// Installer composes the resolver, fetcher and extractor.
type Installer struct {
	resolver *plugin.Resolver
	fetcher  *download.Fetcher
	logger   ports.Logger
}

// New returns an Installer. A nil logger discards output.
func New(resolver *plugin.Resolver, fetcher *download.Fetcher, logger ports.Logger) *Installer {
	if fetcher == nil {
		fetcher = download.NewFetcher(nil, 0)
	}
	return &Installer{
		resolver: resolver,
		fetcher:  fetcher,
		logger:   logging.OrNoOp(logger).With("component", "installer"),
	}
}

// InstallFromURL downloads rawURL and installs it as windowID, replacing any
// existing directory of that id.
func (i *Installer) InstallFromURL(ctx context.Context, rawURL, windowID string) error {
	start := time.Now()
	log := i.logger.With("window_id", windowID, "url", rawURL)

	dir, err := i.resolver.Resolve(windowID)
	if err != nil {
		log.Error(ctx, "install rejected", "error", err)
		return err
	}
	log.Info(ctx, "installing plugin")

	if err := prepareDir(dir); err != nil {
		log.Error(ctx, "prepare plugin directory failed", "error", err)
		return err
	}

	body, err := i.fetcher.FetchRemote(ctx, rawURL)
	if err != nil {
		log.Error(ctx, "download failed", "error", err)
		return err
	}
	log.Debug(ctx, "package downloaded", "bytes", len(body))

	if err := i.fetcher.Check(body); err != nil {
		log.Error(ctx, "package rejected", "error", err)
		return err
	}
	if err := archive.Install(bytes.NewReader(body), int64(len(body)), dir); err != nil {
		log.Error(ctx, "extract failed", "error", err)
		return err
	}

	log.Info(ctx, "plugin installed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// InstallFromLocal installs the zip at path as windowID. The file is checked
// before the plugin directory is touched.
func (i *Installer) InstallFromLocal(ctx context.Context, path, windowID string) error {
	start := time.Now()
	log := i.logger.With("window_id", windowID, "path", path)

	dir, err := i.resolver.Resolve(windowID)
	if err != nil {
		log.Error(ctx, "install rejected", "error", err)
		return err
	}

	pkg, err := download.LoadLocal(path)
	if err != nil {
		log.Error(ctx, "install rejected", "error", err)
		return err
	}
	defer pkg.Close()

	log.Info(ctx, "installing local plugin", "bytes", pkg.Size)
	if err := prepareDir(dir); err != nil {
		log.Error(ctx, "prepare plugin directory failed", "error", err)
		return err
	}
	if err := pkg.Check(i.fetcher.MaxSize()); err != nil {
		log.Error(ctx, "package rejected", "error", err)
		return err
	}
	if err := archive.Install(pkg, pkg.Size, dir); err != nil {
		log.Error(ctx, "extract failed", "error", err)
		return err
	}

	log.Info(ctx, "plugin installed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Uninstall removes the directory of windowID.
func (i *Installer) Uninstall(ctx context.Context, windowID string) error {
	const op = "uninstall plugin"
	log := i.logger.With("window_id", windowID)

	dir, err := i.resolver.Resolve(windowID)
	if err != nil {
		return err
	}
	log.Info(ctx, "uninstalling plugin")

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.NotFound(op, fmt.Sprintf("plugin directory for %s does not exist", windowID))
		}
		return apperrors.Storage(op, "stat plugin directory", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		log.Error(ctx, "remove plugin directory failed", "error", err)
		return apperrors.Storage(op, "remove plugin directory", err)
	}

	log.Info(ctx, "plugin uninstalled")
	return nil
}

// Analyze reads the manifest of the local package at path without installing it.
func (i *Installer) Analyze(ctx context.Context, path string) (*plugin.PackageInfo, error) {
	pkg, err := download.LoadLocal(path)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()

	if err := pkg.Check(i.fetcher.MaxSize()); err != nil {
		return nil, err
	}
	info, err := archive.Analyze(pkg, pkg.Size)
	if err != nil {
		return nil, err
	}
	i.logger.Debug(ctx, "package analyzed", "path", path, "window_id", info.Plugin.WindowID)
	return info, nil
}

// prepareDir clears dir and recreates it empty.
func prepareDir(dir string) error {
	const op = "prepare plugin directory"
	if err := os.RemoveAll(dir); err != nil {
		return apperrors.Storage(op, "remove existing directory", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Storage(op, "create directory", err)
	}
	return nil
}
