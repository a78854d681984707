package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	cfgpkg "github.com/alexisbeaulieu97/mhplugin/internal/config"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// ErrFileExists is returned by WriteFile when path exists and overwrite is false.
var ErrFileExists = errors.New("configuration file already exists")

// Encode renders cfg as YAML with two-space indentation.
func Encode(cfg cfgpkg.Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, apperrors.Config("config.encode", "encode configuration", err)
	}
	if err := enc.Close(); err != nil {
		return nil, apperrors.Config("config.encode", "encode configuration", err)
	}
	return buf.Bytes(), nil
}

// WriteFile validates cfg and writes it to path, creating parent directories.
func WriteFile(path string, cfg cfgpkg.Config, overwrite bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return apperrors.Config("config.write", path, ErrFileExists)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return apperrors.Config("config.write", "stat "+path, err)
		}
	}

	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Config("config.write", "create configuration directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Config("config.write", "write "+path, err)
	}
	return nil
}
