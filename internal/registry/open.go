// Package registry opens the configured plugin_config store and exposes
// key-path edits of its JSON columns.
package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
	"github.com/alexisbeaulieu97/mhplugin/internal/registry/memory"
	"github.com/alexisbeaulieu97/mhplugin/internal/registry/postgres"
	"github.com/alexisbeaulieu97/mhplugin/internal/registry/sqlite"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultDatabaseFile is the SQLite file name used when no DSN is configured.
const DefaultDatabaseFile = "mhplugin.db"

// Options selects and configures a store.
type Options struct {
	Driver string
	// DSN is a file path for sqlite and a postgres:// URL for postgres.
	DSN string
	// DataRoot holds the default SQLite file when DSN is empty.
	DataRoot string
}

// Open returns the store selected by opts.Driver.
func Open(ctx context.Context, opts Options) (ports.RegistryStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverSQLite:
		path := opts.DSN
		if path == "" {
			path = filepath.Join(opts.DataRoot, DefaultDatabaseFile)
		}
		return sqlite.Open(ctx, path)
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, apperrors.Validation("open registry", "registry.dsn is required for postgres", nil)
		}
		return postgres.Open(ctx, opts.DSN)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, apperrors.Validation("open registry", fmt.Sprintf("unknown registry driver %q", opts.Driver), nil)
	}
}
