// Package sqlite stores the plugin registry in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // database/sql driver "sqlite"

	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
	"github.com/alexisbeaulieu97/mhplugin/internal/registry/migrations"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// Pool limits for the connection pool backing a Store.
const (
	MaxOpenConns    = 10
	MaxIdleConns    = 2
	ConnMaxLifetime = time.Hour
	ConnMaxIdleTime = 10 * time.Minute
)

// Store implements ports.RegistryStore on SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the database file if needed, applies migrations, and returns a
// pooled store.
func Open(ctx context.Context, path string) (*Store, error) {
	const op = "open sqlite registry"

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, apperrors.Storage(op, "resolve database path", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, apperrors.Storage(op, "create database directory", err)
	}

	if err := migrations.Up("sqlite://" + filepath.ToSlash(abs)); err != nil {
		return nil, apperrors.Storage(op, "migrate schema", err)
	}

	dsn := "file:" + filepath.ToSlash(abs) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.Storage(op, "open database", err)
	}
	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)
	db.SetConnMaxLifetime(ConnMaxLifetime)
	db.SetConnMaxIdleTime(ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, apperrors.Storage(op, "connect", err)
	}
	return &Store{db: db, path: abs}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// KnownIDs implements ports.RegistryStore.
func (s *Store) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT window_id FROM plugin_config`)
	if err != nil {
		return nil, apperrors.Storage("query registry ids", "query", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Storage("query registry ids", "scan", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("query registry ids", "iterate", err)
	}
	return ids, nil
}

// InsertBatch implements ports.RegistryStore.
func (s *Store) InsertBatch(ctx context.Context, batch []ports.Row) error {
	if len(batch) == 0 {
		return nil
	}
	return s.inTx(ctx, "insert registry rows", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO plugin_config (window_id, info, config, data) VALUES (?, ?, ?, ?)
			 ON CONFLICT(window_id) DO NOTHING`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, row := range batch {
			if _, err := stmt.ExecContext(ctx, row.WindowID, text(row.Info), text(row.Config), text(row.Data)); err != nil {
				return fmt.Errorf("insert %s: %w", row.WindowID, err)
			}
		}
		return nil
	})
}

// DeleteBatch implements ports.RegistryStore.
func (s *Store) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.inTx(ctx, "delete registry rows", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM plugin_config WHERE window_id = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, id); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
		}
		return nil
	})
}

// Get implements ports.RegistryStore.
func (s *Store) Get(ctx context.Context, id string) (*ports.Row, error) {
	var info, config, data string
	err := s.db.QueryRowContext(ctx,
		`SELECT info, config, data FROM plugin_config WHERE window_id = ?`, id).
		Scan(&info, &config, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("get registry row", fmt.Sprintf("plugin %s is not registered", id))
	}
	if err != nil {
		return nil, apperrors.Storage("get registry row", "query", err)
	}
	return &ports.Row{
		WindowID: id,
		Info:     json.RawMessage(info),
		Config:   json.RawMessage(config),
		Data:     json.RawMessage(data),
	}, nil
}

// List implements ports.RegistryStore.
func (s *Store) List(ctx context.Context) ([]ports.Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT window_id, info, config, data FROM plugin_config ORDER BY window_id`)
	if err != nil {
		return nil, apperrors.Storage("list registry rows", "query", err)
	}
	defer rows.Close()

	var out []ports.Row
	for rows.Next() {
		var id, info, config, data string
		if err := rows.Scan(&id, &info, &config, &data); err != nil {
			return nil, apperrors.Storage("list registry rows", "scan", err)
		}
		out = append(out, ports.Row{
			WindowID: id,
			Info:     json.RawMessage(info),
			Config:   json.RawMessage(config),
			Data:     json.RawMessage(data),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("list registry rows", "iterate", err)
	}
	return out, nil
}

// UpdateColumn implements ports.RegistryStore.
func (s *Store) UpdateColumn(ctx context.Context, id, column string, doc json.RawMessage) error {
	const op = "update registry row"

	query, ok := updateQueries[column]
	if !ok {
		return apperrors.Validation(op, fmt.Sprintf("unknown column %q", column), nil)
	}
	res, err := s.db.ExecContext(ctx, query, text(doc), id)
	if err != nil {
		return apperrors.Storage(op, "exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage(op, "rows affected", err)
	}
	if n == 0 {
		return apperrors.NotFound(op, fmt.Sprintf("plugin %s is not registered", id))
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

var updateQueries = map[string]string{
	ports.ColumnInfo:   `UPDATE plugin_config SET info = ? WHERE window_id = ?`,
	ports.ColumnConfig: `UPDATE plugin_config SET config = ? WHERE window_id = ?`,
	ports.ColumnData:   `UPDATE plugin_config SET data = ? WHERE window_id = ?`,
}

func (s *Store) inTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Storage(op, "begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return apperrors.Storage(op, "write", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Storage(op, "commit", err)
	}
	return nil
}

func text(doc json.RawMessage) string {
	if len(doc) == 0 {
		return "{}"
	}
	return string(doc)
}

var _ ports.RegistryStore = (*Store)(nil)
