package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	cfgpkg "github.com/alexisbeaulieu97/mhplugin/internal/config"
	"github.com/alexisbeaulieu97/mhplugin/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// Options controls where configuration is read from. Later sources win:
// defaults, then the file, then MHPLUGIN_* environment, then Overrides.
type Options struct {
	// File is an explicit configuration file. When set it must exist.
	File string
	// DataDir overrides the data root used to locate the default file.
	DataDir string
	// Overrides are dotted keys set by command-line flags.
	Overrides map[string]any
}

// Result is a loaded configuration and the file it came from, if any.
type Result struct {
	Config *cfgpkg.Config
	File   string
}

// ViperLoader resolves configuration with spf13/viper.
type ViperLoader struct {
	logger ports.Logger
}

// NewViperLoader returns a loader that reports progress through logger.
func NewViperLoader(logger ports.Logger) *ViperLoader {
	return &ViperLoader{logger: logging.OrNoOp(logger)}
}

// Load merges every configuration source and validates the result.
func (l *ViperLoader) Load(ctx context.Context, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Config("config.load", "load cancelled", err)
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = os.Getenv(cfgpkg.EnvPrefix + "_DATA_DIR")
	}
	defaults := cfgpkg.Defaults(dataDir)

	v := viper.New()
	v.SetEnvPrefix(cfgpkg.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, defaults)

	file, err := l.readFile(ctx, v, opts.File, defaults.DataDir)
	if err != nil {
		return nil, err
	}

	if opts.DataDir != "" {
		v.Set("data_dir", opts.DataDir)
	}
	for _, key := range sortedKeys(opts.Overrides) {
		v.Set(key, opts.Overrides[key])
	}

	var cfg cfgpkg.Config
	if err := v.Unmarshal(&cfg); err != nil {
		l.logger.Error(ctx, "failed to decode configuration", "path", file, "error", err)
		return nil, apperrors.Config("config.load", "decode configuration", err)
	}
	if cfg.PluginDir == "" {
		cfg.PluginDir = filepath.Join(cfg.DataDir, cfgpkg.PluginDirName)
	}

	if err := cfg.Validate(); err != nil {
		l.logger.Error(ctx, "configuration failed validation", "path", file, "error", err)
		return nil, err
	}

	l.logger.Debug(ctx, "configuration loaded",
		"path", file,
		"data_dir", cfg.DataDir,
		"plugin_dir", cfg.PluginDir,
		"registry_driver", cfg.Registry.Driver)
	return &Result{Config: &cfg, File: file}, nil
}

func (l *ViperLoader) readFile(ctx context.Context, v *viper.Viper, explicit, dataDir string) (string, error) {
	path := explicit
	if path == "" {
		path = cfgpkg.FilePath(dataDir)
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug(ctx, "no configuration file, using defaults", "path", path)
			return "", nil
		}
		if err != nil {
			return "", apperrors.Config("config.load", "stat configuration file", err)
		}
		if info.IsDir() {
			return "", apperrors.Config("config.load", "configuration path is a directory: "+path, nil)
		}
	}

	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		l.logger.Error(ctx, "failed to read configuration file", "path", path, "error", err)
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperrors.Config("config.load", "configuration file not found: "+path, err)
		}
		return "", apperrors.Config("config.load", "read configuration file "+path, err)
	}
	return path, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper, cfg cfgpkg.Config) {
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("plugin_dir", "")
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("registry.driver", cfg.Registry.Driver)
	v.SetDefault("registry.dsn", cfg.Registry.DSN)
	v.SetDefault("download.timeout", cfg.Download.Timeout)
	v.SetDefault("download.max_size", cfg.Download.MaxSize)
	v.SetDefault("download.insecure_skip_verify", cfg.Download.InsecureSkipVerify)
	v.SetDefault("sync.concurrency", cfg.Sync.Concurrency)
	v.SetDefault("sync.batch_size", cfg.Sync.BatchSize)
	v.SetDefault("sync.debounce", cfg.Sync.Debounce)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
