package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/alexisbeaulieu97/mhplugin/internal/keypath"
	"github.com/alexisbeaulieu97/mhplugin/internal/plugin"
	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// ConfigService edits the info and config documents of registered plugins.
// The data column belongs to the sync engine and is read-only here.
type ConfigService struct {
	store ports.RegistryStore
}

// NewConfigService wraps store.
func NewConfigService(store ports.RegistryStore) *ConfigService {
	return &ConfigService{store: store}
}

// Get returns the value at keys inside column. Empty keys return the whole document.
func (s *ConfigService) Get(ctx context.Context, windowID, column string, keys []string) (any, error) {
	const op = "get plugin config"

	doc, err := s.load(ctx, op, windowID, column, true)
	if err != nil {
		return nil, err
	}
	value, ok := keypath.Get(doc, keys)
	if !ok {
		return nil, apperrors.NotFound(op, fmt.Sprintf("key %s not found in %s.%s", joinKeys(keys), windowID, column))
	}
	return value, nil
}

// Set stores value at keys inside column, creating intermediate objects. Empty
// keys replace the whole document, which must then be an object.
func (s *ConfigService) Set(ctx context.Context, windowID, column string, keys []string, value any) error {
	const op = "set plugin config"

	doc, err := s.load(ctx, op, windowID, column, false)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		obj, ok := value.(map[string]any)
		if !ok {
			return apperrors.Validation(op, fmt.Sprintf("%s must be a JSON object", column), nil)
		}
		doc = obj
	} else if err := keypath.Set(doc, keys, value); err != nil {
		return apperrors.Validation(op, "cannot set key", err)
	}
	return s.save(ctx, op, windowID, column, doc)
}

// Delete removes keys from column. Empty keys reset the document to {}.
func (s *ConfigService) Delete(ctx context.Context, windowID, column string, keys []string) error {
	const op = "delete plugin config"

	doc, err := s.load(ctx, op, windowID, column, false)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		doc = map[string]any{}
	} else if err := keypath.Delete(doc, keys); err != nil {
		if errors.Is(err, keypath.ErrNotObject) {
			return apperrors.Validation(op, "cannot delete key", err)
		}
		return apperrors.NotFound(op, err.Error())
	}
	return s.save(ctx, op, windowID, column, doc)
}

func (s *ConfigService) load(ctx context.Context, op, windowID, column string, readable bool) (map[string]any, error) {
	if err := plugin.ValidateWindowID(windowID); err != nil {
		return nil, err
	}
	if !editable(column) && !(readable && column == ports.ColumnData) {
		return nil, apperrors.Validation(op, fmt.Sprintf("column %q is not editable; use info or config", column), nil)
	}

	row, err := s.store.Get(ctx, windowID)
	if err != nil {
		return nil, err
	}
	raw, _ := row.Column(column)
	doc := map[string]any{}
	if len(raw) > 0 {
		if err := codec.Unmarshal(raw, &doc); err != nil {
			return nil, apperrors.Validation(op, fmt.Sprintf("%s.%s is not a JSON object", windowID, column), err)
		}
	}
	return doc, nil
}

func (s *ConfigService) save(ctx context.Context, op, windowID, column string, doc map[string]any) error {
	raw, err := codec.Marshal(doc)
	if err != nil {
		return apperrors.Validation(op, "encode document", err)
	}
	return s.store.UpdateColumn(ctx, windowID, column, json.RawMessage(raw))
}

func editable(column string) bool {
	return column == ports.ColumnInfo || column == ports.ColumnConfig
}

func joinKeys(keys []string) string {
	if len(keys) == 0 {
		return "(root)"
	}
	out := keys[0]
	for _, k := range keys[1:] {
		out += "." + k
	}
	return out
}
