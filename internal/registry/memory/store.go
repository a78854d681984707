// Package memory is an in-process registry store used by tests and dry runs.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// Store implements ports.RegistryStore over a map. Every call to InsertBatch,
// DeleteBatch or UpdateColumn that changes data counts as one write transaction.
type Store struct {
	mu     sync.RWMutex
	rows   map[string]ports.Row
	writes atomic.Int64

	// FailWrites makes every write return a Storage error when set.
	FailWrites error
}

// New returns a Store seeded with rows.
func New(rows ...ports.Row) *Store {
	s := &Store{rows: make(map[string]ports.Row, len(rows))}
	for _, r := range rows {
		s.rows[r.WindowID] = cloneRow(r)
	}
	return s
}

// Writes returns the number of write transactions committed so far.
func (s *Store) Writes() int64 {
	return s.writes.Load()
}

// KnownIDs implements ports.RegistryStore.
func (s *Store) KnownIDs(context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]struct{}, len(s.rows))
	for id := range s.rows {
		ids[id] = struct{}{}
	}
	return ids, nil
}

// InsertBatch implements ports.RegistryStore. Existing ids are left untouched.
func (s *Store) InsertBatch(_ context.Context, rows []ports.Row) error {
	if len(rows) == 0 {
		return nil
	}
	if s.FailWrites != nil {
		return apperrors.Storage("insert registry rows", "write", s.FailWrites)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		if _, exists := s.rows[r.WindowID]; exists {
			continue
		}
		s.rows[r.WindowID] = cloneRow(r)
	}
	s.writes.Add(1)
	return nil
}

// DeleteBatch implements ports.RegistryStore.
func (s *Store) DeleteBatch(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if s.FailWrites != nil {
		return apperrors.Storage("delete registry rows", "write", s.FailWrites)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.rows, id)
	}
	s.writes.Add(1)
	return nil
}

// Get implements ports.RegistryStore.
func (s *Store) Get(_ context.Context, id string) (*ports.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, apperrors.NotFound("get registry row", fmt.Sprintf("plugin %s is not registered", id))
	}
	out := cloneRow(row)
	return &out, nil
}

// List implements ports.RegistryStore.
func (s *Store) List(context.Context) ([]ports.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ports.Row, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, cloneRow(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WindowID < out[j].WindowID })
	return out, nil
}

// UpdateColumn implements ports.RegistryStore.
func (s *Store) UpdateColumn(_ context.Context, id, column string, doc json.RawMessage) error {
	const op = "update registry row"
	if s.FailWrites != nil {
		return apperrors.Storage(op, "write", s.FailWrites)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return apperrors.NotFound(op, fmt.Sprintf("plugin %s is not registered", id))
	}
	value := append(json.RawMessage(nil), doc...)
	switch column {
	case ports.ColumnInfo:
		row.Info = value
	case ports.ColumnConfig:
		row.Config = value
	case ports.ColumnData:
		row.Data = value
	default:
		return apperrors.Validation(op, fmt.Sprintf("unknown column %q", column), nil)
	}
	s.rows[id] = row
	s.writes.Add(1)
	return nil
}

// Close implements ports.RegistryStore.
func (s *Store) Close() error { return nil }

func cloneRow(r ports.Row) ports.Row {
	return ports.Row{
		WindowID: r.WindowID,
		Info:     orEmpty(r.Info),
		Config:   orEmpty(r.Config),
		Data:     orEmpty(r.Data),
	}
}

func orEmpty(doc json.RawMessage) json.RawMessage {
	if len(doc) == 0 {
		return json.RawMessage("{}")
	}
	return append(json.RawMessage(nil), doc...)
}

var _ ports.RegistryStore = (*Store)(nil)
