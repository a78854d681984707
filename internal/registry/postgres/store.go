// Package postgres stores the plugin registry in PostgreSQL through pgxpool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
	"github.com/alexisbeaulieu97/mhplugin/internal/registry/migrations"
	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

// Pool limits applied on top of the DSN.
const (
	MaxConns        = 10
	MinConns        = 2
	MaxConnLifetime = time.Hour
	MaxConnIdleTime = 10 * time.Minute
)

// Store implements ports.RegistryStore on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open migrates the schema and connects a pool to dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	const op = "open postgres registry"

	migrateURL, err := MigrationURL(dsn)
	if err != nil {
		return nil, apperrors.Validation(op, "invalid dsn", err)
	}
	if err := migrations.Up(migrateURL); err != nil {
		return nil, apperrors.Storage(op, "migrate schema", err)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apperrors.Validation(op, "invalid dsn", err)
	}
	cfg.MaxConns = MaxConns
	cfg.MinConns = MinConns
	cfg.MaxConnLifetime = MaxConnLifetime
	cfg.MaxConnIdleTime = MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, apperrors.Storage(op, "create pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.Storage(op, "ping", err)
	}
	return &Store{pool: pool}, nil
}

// MigrationURL rewrites a postgres:// DSN into the pgx5:// form golang-migrate expects.
func MigrationURL(dsn string) (string, error) {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix), nil
		}
	}
	if strings.HasPrefix(dsn, "pgx5://") {
		return dsn, nil
	}
	return "", fmt.Errorf("expected a postgres:// url, got %q", redact(dsn))
}

// KnownIDs implements ports.RegistryStore.
func (s *Store) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT window_id FROM plugin_config`)
	if err != nil {
		return nil, apperrors.Storage("query registry ids", "query", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperrors.Storage("query registry ids", "scan", err)
	}

	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return known, nil
}

// InsertBatch implements ports.RegistryStore.
func (s *Store) InsertBatch(ctx context.Context, rows []ports.Row) error {
	if len(rows) == 0 {
		return nil
	}
	return s.inTx(ctx, "insert registry rows", func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, row := range rows {
			batch.Queue(
				`INSERT INTO plugin_config (window_id, info, config, data) VALUES ($1, $2, $3, $4)
				 ON CONFLICT (window_id) DO NOTHING`,
				row.WindowID, text(row.Info), text(row.Config), text(row.Data))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// DeleteBatch implements ports.RegistryStore.
func (s *Store) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.inTx(ctx, "delete registry rows", func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM plugin_config WHERE window_id = ANY($1)`, ids)
		return err
	})
}

// Get implements ports.RegistryStore.
func (s *Store) Get(ctx context.Context, id string) (*ports.Row, error) {
	var info, config, data string
	err := s.pool.QueryRow(ctx,
		`SELECT info, config, data FROM plugin_config WHERE window_id = $1`, id).
		Scan(&info, &config, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("get registry row", fmt.Sprintf("plugin %s is not registered", id))
	}
	if err != nil {
		return nil, apperrors.Storage("get registry row", "query", err)
	}
	return &ports.Row{WindowID: id, Info: []byte(info), Config: []byte(config), Data: []byte(data)}, nil
}

// List implements ports.RegistryStore.
func (s *Store) List(ctx context.Context) ([]ports.Row, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT window_id, info, config, data FROM plugin_config ORDER BY window_id`)
	if err != nil {
		return nil, apperrors.Storage("list registry rows", "query", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (ports.Row, error) {
		var id, info, config, data string
		if err := r.Scan(&id, &info, &config, &data); err != nil {
			return ports.Row{}, err
		}
		return ports.Row{WindowID: id, Info: []byte(info), Config: []byte(config), Data: []byte(data)}, nil
	})
	if err != nil {
		return nil, apperrors.Storage("list registry rows", "scan", err)
	}
	return out, nil
}

// UpdateColumn implements ports.RegistryStore.
func (s *Store) UpdateColumn(ctx context.Context, id, column string, doc json.RawMessage) error {
	const op = "update registry row"

	var query string
	switch column {
	case ports.ColumnInfo:
		query = `UPDATE plugin_config SET info = $1 WHERE window_id = $2`
	case ports.ColumnConfig:
		query = `UPDATE plugin_config SET config = $1 WHERE window_id = $2`
	case ports.ColumnData:
		query = `UPDATE plugin_config SET data = $1 WHERE window_id = $2`
	default:
		return apperrors.Validation(op, fmt.Sprintf("unknown column %q", column), nil)
	}

	tag, err := s.pool.Exec(ctx, query, text(doc), id)
	if err != nil {
		return apperrors.Storage(op, "exec", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(op, fmt.Sprintf("plugin %s is not registered", id))
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) inTx(ctx context.Context, op string, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperrors.Storage(op, "begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return apperrors.Storage(op, "write", err)
	}
	if err := tx.Commit(ctx); err != nil {
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

func redact(dsn string) string {
	if at := strings.LastIndex(dsn, "@"); at >= 0 {
		return "***" + dsn[at:]
	}
	return dsn
}

var _ ports.RegistryStore = (*Store)(nil)
