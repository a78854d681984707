package ports

import (
	"context"
	"encoding/json"
)

// Registry columns that hold JSON documents.
const (
	ColumnInfo   = "info"
	ColumnConfig = "config"
	ColumnData   = "data"
)

// Row is one plugin_config record. Info, Config and Data are serialized JSON.
type Row struct {
	WindowID string          `json:"windowId"`
	Info     json.RawMessage `json:"info"`
	Config   json.RawMessage `json:"config"`
	Data     json.RawMessage `json:"data"`
}

// Column returns the raw document stored in column.
func (r *Row) Column(column string) (json.RawMessage, bool) {
	switch column {
	case ColumnInfo:
		return r.Info, true
	case ColumnConfig:
		return r.Config, true
	case ColumnData:
		return r.Data, true
	default:
		return nil, false
	}
}

// RegistryStore persists plugin_config rows. Implementations must be safe for
// concurrent use. Error mapping:
//   - missing rows → apperrors NotFound
//   - connection, transaction or query failures → apperrors Storage
type RegistryStore interface {
	// KnownIDs returns every window_id in one query.
	KnownIDs(ctx context.Context) (map[string]struct{}, error)
	// InsertBatch writes rows in a single transaction.
	InsertBatch(ctx context.Context, rows []Row) error
	// DeleteBatch removes ids in a single transaction.
	DeleteBatch(ctx context.Context, ids []string) error
	Get(ctx context.Context, id string) (*Row, error)
	// List returns all rows ordered by window_id.
	List(ctx context.Context) ([]Row, error)
	// UpdateColumn replaces the JSON document in column for id.
	UpdateColumn(ctx context.Context, id, column string, doc json.RawMessage) error
	Close() error
}
