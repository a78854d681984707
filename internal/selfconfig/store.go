// Package selfconfig manages each plugin's private selfConfig.json document.
//
// Writes are whole-file read-modify-write cycles with no cross-process
// locking: a plugin's document is expected to have one writer at a time.
package selfconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/pretty"

	"github.com/alexisbeaulieu97/mhplugin/internal/keypath"
	"github.com/alexisbeaulieu97/mhplugin/internal/plugin"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Store resolves and edits self-config files. Paths are cached per window id
// after the first successful lookup.
type Store struct {
	resolver *plugin.Resolver

	mu    sync.RWMutex
	paths map[string]string
}

// NewStore returns a Store rooted at resolver's plugin directory.
func NewStore(resolver *plugin.Resolver) *Store {
	return &Store{resolver: resolver, paths: make(map[string]string)}
}

// Path returns the self-config file path for windowID, creating the plugin
// directory on first use.
func (s *Store) Path(windowID string) (string, error) {
	s.mu.RLock()
	cached, ok := s.paths[windowID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	dir, err := s.resolver.Resolve(windowID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.Storage("resolve self config", "create plugin directory", err)
	}
	path := filepath.Join(dir, plugin.SelfConfigFile)

	s.mu.Lock()
	s.paths[windowID] = path
	s.mu.Unlock()
	return path, nil
}

// Get returns the value at keys. Empty keys return the whole document, which
// is an empty object when the file does not exist.
func (s *Store) Get(windowID string, keys []string) (any, error) {
	const op = "get self config"

	path, err := s.Path(windowID)
	if err != nil {
		return nil, err
	}
	doc, err := read(path)
	if err != nil {
		return nil, err
	}
	value, ok := keypath.Get(doc, keys)
	if !ok {
		return nil, apperrors.NotFound(op, fmt.Sprintf("self config key %s does not exist", strings.Join(keys, ".")))
	}
	return value, nil
}

// Set assigns value at keys, creating missing intermediate objects.
func (s *Store) Set(windowID string, keys []string, value any) error {
	const op = "set self config"

	if len(keys) == 0 {
		return apperrors.Validation(op, "key path is empty", nil)
	}
	path, err := s.Path(windowID)
	if err != nil {
		return err
	}
	doc, err := read(path)
	if err != nil {
		return err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return apperrors.Validation(op, "self config root is not an object", nil)
	}
	if err := keypath.Set(obj, keys, value); err != nil {
		return apperrors.Validation(op, "cannot set key", err)
	}
	return write(path, obj)
}

// Delete removes the final key of keys. Empty keys remove the file.
func (s *Store) Delete(windowID string, keys []string) error {
	const op = "delete self config"

	path, err := s.Path(windowID)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return apperrors.Storage(op, "remove self config", err)
		}
		return nil
	}

	doc, err := read(path)
	if err != nil {
		return err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return apperrors.Validation(op, "self config root is not an object", nil)
	}
	if err := keypath.Delete(obj, keys); err != nil {
		if errors.Is(err, keypath.ErrNotObject) {
			return apperrors.Validation(op, "cannot delete key", err)
		}
		return apperrors.NotFound(op, err.Error())
	}
	return write(path, obj)
}

func read(path string) (any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, apperrors.Storage("read self config", "read file", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var doc any
	if err := codec.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Validation("read self config", fmt.Sprintf("%s is not valid JSON", path), err)
	}
	return doc, nil
}

// write replaces path through a temporary file and rename.
func write(path string, doc any) error {
	const op = "write self config"

	data, err := codec.Marshal(doc)
	if err != nil {
		return apperrors.Validation(op, "encode document", err)
	}
	data = pretty.Pretty(data)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.Storage(op, "write temporary file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return apperrors.Storage(op, "replace file", err)
	}
	return nil
}
