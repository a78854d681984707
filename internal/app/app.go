// Package app wires the long-lived services behind every command.
package app

import (
	"context"
	"os"

	"github.com/alexisbeaulieu97/mhplugin/internal/config"
	"github.com/alexisbeaulieu97/mhplugin/internal/download"
	"github.com/alexisbeaulieu97/mhplugin/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/mhplugin/internal/installer"
	"github.com/alexisbeaulieu97/mhplugin/internal/plugin"
	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
	"github.com/alexisbeaulieu97/mhplugin/internal/registry"
	"github.com/alexisbeaulieu97/mhplugin/internal/selfconfig"
	"github.com/alexisbeaulieu97/mhplugin/internal/syncer"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// Context bundles the services created once at startup.
type Context struct {
	Config     *config.Config
	Logger     ports.Logger
	Resolver   *plugin.Resolver
	Store      ports.RegistryStore
	Installer  *installer.Installer
	Syncer     *syncer.Syncer
	SelfConfig *selfconfig.Store
	Registry   *registry.ConfigService
}

// New builds a Context from cfg. The plugin root is created if missing and the
// registry store is opened with its schema migrated.
func New(ctx context.Context, cfg *config.Config, logger ports.Logger) (*Context, error) {
	logger = logging.OrNoOp(logger)

	if err := os.MkdirAll(cfg.PluginDir, 0o755); err != nil {
		return nil, apperrors.Storage("app.new", "create plugin root "+cfg.PluginDir, err)
	}

	store, err := registry.Open(ctx, registry.Options{
		Driver:   cfg.Registry.Driver,
		DSN:      cfg.Registry.DSN,
		DataRoot: cfg.DataDir,
	})
	if err != nil {
		return nil, err
	}

	resolver := plugin.NewResolver(cfg.PluginDir)
	client := download.NewHTTPClient(download.ClientOptions{
		Timeout:            cfg.Download.Timeout,
		InsecureSkipVerify: cfg.Download.InsecureSkipVerify,
	})
	fetcher := download.NewFetcher(client, cfg.Download.MaxSize)

	logger.Debug(ctx, "application context ready",
		"plugin_root", resolver.Root(),
		"registry_driver", cfg.Registry.Driver)

	return &Context{
		Config:     cfg,
		Logger:     logger,
		Resolver:   resolver,
		Store:      store,
		Installer:  installer.New(resolver, fetcher, logger),
		Syncer: syncer.New(resolver, store, logger, syncer.Options{
			Concurrency: cfg.Sync.Concurrency,
			BatchSize:   cfg.Sync.BatchSize,
			Debounce:    cfg.Sync.Debounce,
		}),
		SelfConfig: selfconfig.NewStore(resolver),
		Registry:   registry.NewConfigService(store),
	}, nil
}

// Close releases the registry store.
func (c *Context) Close() error {
	if c == nil || c.Store == nil {
		return nil
	}
	return c.Store.Close()
}
