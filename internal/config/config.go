package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/alexisbeaulieu97/mhplugin/internal/download"
)

const (
	// AppDirName is the folder created under the platform data directory.
	AppDirName = "myhelper"
	// PluginDirName holds one sub-directory per installed plugin.
	PluginDirName = "Plugin"
	// FileName is the optional configuration file looked up in the data root.
	FileName = "mhplugin.yaml"
	// EnvPrefix prefixes every environment override, e.g. MHPLUGIN_LOG_LEVEL.
	EnvPrefix = "MHPLUGIN"
)

// Config is the resolved application configuration.
type Config struct {
	DataDir   string         `mapstructure:"data_dir" json:"data_dir" yaml:"data_dir" validate:"required,data_path"`
	PluginDir string         `mapstructure:"plugin_dir" json:"plugin_dir" yaml:"plugin_dir" validate:"required,data_path"`
	Log       LogConfig      `mapstructure:"log" json:"log" yaml:"log"`
	Registry  RegistryConfig `mapstructure:"registry" json:"registry" yaml:"registry"`
	Download  DownloadConfig `mapstructure:"download" json:"download" yaml:"download"`
	Sync      SyncConfig     `mapstructure:"sync" json:"sync" yaml:"sync"`
}

// LogConfig controls console and file logging.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" json:"format" yaml:"format" validate:"oneof=text json"`
}

// RegistryConfig selects the plugin registry backend.
type RegistryConfig struct {
	Driver string `mapstructure:"driver" json:"driver" yaml:"driver" validate:"oneof=sqlite postgres memory"`
	DSN    string `mapstructure:"dsn" json:"dsn,omitempty" yaml:"dsn,omitempty" validate:"required_if=Driver postgres"`
}

// DownloadConfig tunes remote package fetches.
type DownloadConfig struct {
	Timeout            time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`
	MaxSize            int64         `mapstructure:"max_size" json:"max_size" yaml:"max_size" validate:"gt=0,max_package_size"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// SyncConfig tunes the registry sync engine.
type SyncConfig struct {
	Concurrency int           `mapstructure:"concurrency" json:"concurrency" yaml:"concurrency" validate:"gte=1,lte=256"`
	BatchSize   int           `mapstructure:"batch_size" json:"batch_size" yaml:"batch_size" validate:"gte=1,lte=1000"`
	Debounce    time.Duration `mapstructure:"debounce" json:"debounce" yaml:"debounce" validate:"gte=0"`
}

// Defaults returns the configuration used when nothing overrides it.
// dataDir may be empty, in which case the platform default is used.
func Defaults(dataDir string) Config {
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	return Config{
		DataDir:   dataDir,
		PluginDir: filepath.Join(dataDir, PluginDirName),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Registry: RegistryConfig{
			Driver: "sqlite",
		},
		Download: DownloadConfig{
			Timeout: 60 * time.Second,
			MaxSize: download.MaxPackageSize,
		},
		Sync: SyncConfig{
			Concurrency: 32,
			BatchSize:   100,
			Debounce:    500 * time.Millisecond,
		},
	}
}

// DefaultDataDir returns <platform data dir>/myhelper. It falls back to the
// working directory when no home directory can be determined.
func DefaultDataDir() string {
	base, err := platformDataDir(runtime.GOOS)
	if err != nil || base == "" {
		return AppDirName
	}
	return filepath.Join(base, AppDirName)
}

func platformDataDir(goos string) (string, error) {
	switch goos {
	case "windows", "darwin", "ios":
		return os.UserConfigDir()
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" && filepath.IsAbs(xdg) {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

// FilePath returns the default configuration file location for dataDir.
func FilePath(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// LogDir is where the persistent log file lives.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validatorInstance().Struct(c); err != nil {
		return describeValidation(err)
	}
	return nil
}
