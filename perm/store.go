package perm

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store persists permission grants in SQLite.
//
// All grants are loaded into a Set when the store opens, and writes go to
// the database before the cache, so HasPermission never touches the database
// and is cheap enough to call from jump handlers.
type Store struct {
	sqlDB *sql.DB
	cache *Set
	owned bool
}

// Open opens a SQLite permission store at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s, err := New(context.Background(), sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New returns a Store bound to an existing database handle.
// The schema is migrated and every grant is loaded.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{sqlDB: db, cache: NewSet()}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// load fills the cache from the database.
func (s *Store) load(ctx context.Context) error {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT player_id, permission FROM permissions`)
	if err != nil {
		return fmt.Errorf("load permissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rawID, permission string
		if err := rows.Scan(&rawID, &permission); err != nil {
			return fmt.Errorf("load permissions: scan: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return fmt.Errorf("load permissions: player id %q: %w", rawID, err)
		}
		s.cache.Grant(id, permission)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load permissions: %w", err)
	}
	return nil
}

// Close closes the SQLite handle if the store opened it.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil || !s.owned {
		return nil
	}
	return s.sqlDB.Close()
}

// Grant stores a permission for a player. Granting a held permission is a
// no-op.
func (s *Store) Grant(ctx context.Context, id uuid.UUID, permission string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	permission = normalize(permission)
	if permission == "" {
		return fmt.Errorf("permission is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO permissions (player_id, permission, granted_at) VALUES (?, ?, ?)`,
		id.String(), permission, time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("grant %q: %w", permission, err)
	}

	s.cache.Grant(id, permission)
	return nil
}

// Revoke deletes a permission of a player. It returns false if the player
// did not hold it.
func (s *Store) Revoke(ctx context.Context, id uuid.UUID, permission string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	permission = normalize(permission)

	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM permissions WHERE player_id = ? AND permission = ?`,
		id.String(), permission)
	if err != nil {
		return false, fmt.Errorf("revoke %q: %w", permission, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke %q: rows affected: %w", permission, err)
	}

	s.cache.Revoke(id, permission)
	return n > 0, nil
}

// HasPermission reports whether the player holds the permission.
// Served from memory.
func (s *Store) HasPermission(id uuid.UUID, permission string) bool {
	return s.cache.HasPermission(id, permission)
}

// Permissions returns the player's grants in sorted order.
func (s *Store) Permissions(id uuid.UUID) []string {
	return s.cache.Permissions(id)
}
