// Package postgres provides the Postgres-backed jam store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jamscout/jamscout/internal/jam"
	"github.com/jamscout/jamscout/internal/store"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

var errNotConfigured = errors.New("postgres store is not configured")

// Store persists jams in Postgres across the jams, owners, and jam_owners
// tables.
type Store struct {
	pool dbPool
	now  func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.url is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, now: time.Now}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for
// testing).
func NewWithPool(pool dbPool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool, now: time.Now}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const (
	createJamsTable = `
CREATE TABLE IF NOT EXISTS jams (
	jam_id      TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	start_ts    TIMESTAMPTZ NOT NULL,
	duration    INTEGER NOT NULL CHECK (duration >= 0),
	gametype    INTEGER NOT NULL DEFAULT 0,
	hashtag     TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT ''
)`

	createOwnersTable = `
CREATE TABLE IF NOT EXISTS owners (
	owner_id TEXT PRIMARY KEY,
	name     TEXT NOT NULL DEFAULT ''
)`

	createJamOwnersTable = `
CREATE TABLE IF NOT EXISTS jam_owners (
	jam_id   TEXT NOT NULL REFERENCES jams (jam_id) ON DELETE CASCADE,
	owner_id TEXT NOT NULL REFERENCES owners (owner_id),
	PRIMARY KEY (jam_id, owner_id)
)`
)

// Init creates the schema if it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return &store.StorageError{Op: "init schema", Err: errNotConfigured}
	}
	for _, stmt := range []string{createJamsTable, createOwnersTable, createJamOwnersTable} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return &store.StorageError{Op: "init schema", Err: err}
		}
	}
	return nil
}

const upsertJamSQL = `
INSERT INTO jams (jam_id, name, start_ts, duration, gametype, hashtag, description)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (jam_id) DO UPDATE SET
	name        = EXCLUDED.name,
	start_ts    = EXCLUDED.start_ts,
	duration    = EXCLUDED.duration,
	gametype    = EXCLUDED.gametype,
	hashtag     = EXCLUDED.hashtag,
	description = EXCLUDED.description`

// UpsertJam writes the jam row and replaces its owner associations in one
// transaction. Owner rows are created lazily and never deleted here.
func (s *Store) UpsertJam(ctx context.Context, j *jam.Jam) error {
	if s == nil || s.pool == nil {
		return &store.StorageError{Op: "upsert jam", Err: errNotConfigured}
	}
	if err := j.Validate(); err != nil {
		return fmt.Errorf("upsert jam: %w", err)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &store.StorageError{Op: "begin upsert", Err: err}
	}
	if err := upsertJamTx(ctx, tx, j); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return &store.StorageError{Op: "commit upsert", Err: err}
	}
	return nil
}

func upsertJamTx(ctx context.Context, tx pgx.Tx, j *jam.Jam) error {
	if _, err := tx.Exec(ctx, upsertJamSQL,
		j.ID, j.Name, j.Start, j.DurationDays, int(j.Category), j.Hashtag, j.Description,
	); err != nil {
		return &store.StorageError{Op: "upsert jam row", Err: err}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM jam_owners WHERE jam_id = $1`, j.ID); err != nil {
		return &store.StorageError{Op: "clear jam owners", Err: err}
	}
	for _, o := range j.Owners {
		if _, err := tx.Exec(ctx,
			`INSERT INTO owners (owner_id, name) VALUES ($1, $2) ON CONFLICT (owner_id) DO NOTHING`,
			o.ID, o.Name,
		); err != nil {
			return &store.StorageError{Op: "insert owner", Err: err}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO jam_owners (jam_id, owner_id) VALUES ($1, $2)`,
			j.ID, o.ID,
		); err != nil {
			return &store.StorageError{Op: "link owner", Err: err}
		}
	}
	return nil
}

const selectJamSQL = `
SELECT jam_id, name, start_ts, duration, gametype, hashtag, description
FROM jams
WHERE jam_id = $1`

const selectJamOwnersSQL = `
SELECT o.owner_id, o.name
FROM owners o
JOIN jam_owners jo ON jo.owner_id = o.owner_id
WHERE jo.jam_id = $1
ORDER BY o.owner_id`

// LoadJam returns one jam with its owners, or store.ErrNotFound.
func (s *Store) LoadJam(ctx context.Context, id string) (*jam.Jam, error) {
	if s == nil || s.pool == nil {
		return nil, &store.StorageError{Op: "load jam", Err: errNotConfigured}
	}
	var (
		j        jam.Jam
		gametype int
	)
	row := s.pool.QueryRow(ctx, selectJamSQL, id)
	if err := row.Scan(&j.ID, &j.Name, &j.Start, &j.DurationDays, &gametype, &j.Hashtag, &j.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, &store.StorageError{Op: "load jam", Err: err}
	}
	j.Start = j.Start.UTC()
	j.Category = jam.Category(gametype)
	if !j.Category.Valid() {
		j.Category = jam.CategoryUnclassified
	}

	rows, err := s.pool.Query(ctx, selectJamOwnersSQL, id)
	if err != nil {
		return nil, &store.StorageError{Op: "load jam owners", Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		var o jam.Owner
		if err := rows.Scan(&o.ID, &o.Name); err != nil {
			return nil, &store.StorageError{Op: "scan jam owner", Err: err}
		}
		j.Owners = append(j.Owners, o)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StorageError{Op: "load jam owners", Err: err}
	}
	return &j, nil
}

// DeleteJam removes a jam; the jam_owners rows go with it via the cascade.
// Owner rows stay because other jams may reference them.
func (s *Store) DeleteJam(ctx context.Context, id string) error {
	if s == nil || s.pool == nil {
		return &store.StorageError{Op: "delete jam", Err: errNotConfigured}
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM jams WHERE jam_id = $1`, id)
	if err != nil {
		return &store.StorageError{Op: "delete jam", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// jamEndExpr computes a jam's end instant from its stored start and
// duration.
const jamEndExpr = `j.start_ts + j.duration * INTERVAL '1 day'`

// QueryJams returns the IDs of jams matching f, ordered by end time then
// ID.
func (s *Store) QueryJams(ctx context.Context, f store.Filter) ([]string, error) {
	if s == nil || s.pool == nil {
		return nil, &store.StorageError{Op: "query jams", Err: errNotConfigured}
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("query jams: %w", err)
	}

	query := `SELECT j.jam_id FROM jams j`
	var (
		where []string
		args  []any
	)
	switch {
	case f.Category != nil:
		args = append(args, int(*f.Category))
		where = append(where, fmt.Sprintf("j.gametype = $%d", len(args)))
	case f.OwnerID != "":
		query += ` JOIN jam_owners jo ON jo.jam_id = j.jam_id`
		args = append(args, f.OwnerID)
		where = append(where, fmt.Sprintf("jo.owner_id = $%d", len(args)))
	case f.JamID != "":
		args = append(args, f.JamID)
		where = append(where, fmt.Sprintf("j.jam_id = $%d", len(args)))
	}
	switch f.Temporal {
	case store.TemporalCurrent:
		args = append(args, s.now().UTC())
		where = append(where, fmt.Sprintf("%s > $%d", jamEndExpr, len(args)))
	case store.TemporalPast:
		args = append(args, s.now().UTC())
		where = append(where, fmt.Sprintf("%s < $%d", jamEndExpr, len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + jamEndExpr + ", j.jam_id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &store.StorageError{Op: "query jams", Err: err}
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &store.StorageError{Op: "scan jam id", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StorageError{Op: "query jams", Err: err}
	}
	return ids, nil
}

// KnownIDs returns the set of every stored jam ID.
func (s *Store) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	if s == nil || s.pool == nil {
		return nil, &store.StorageError{Op: "list known jams", Err: errNotConfigured}
	}
	rows, err := s.pool.Query(ctx, `SELECT jam_id FROM jams`)
	if err != nil {
		return nil, &store.StorageError{Op: "list known jams", Err: err}
	}
	defer rows.Close()
	known := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &store.StorageError{Op: "scan known jam", Err: err}
		}
		known[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, &store.StorageError{Op: "list known jams", Err: err}
	}
	return known, nil
}
