package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a persistent association from (namespace, source path) to a
// serialized derived result and the source modification time observed when
// it was produced. It is a weak, invalidate-on-timestamp association, never
// an ownership relation.
type Store interface {
	// Get returns the stored artifact for path if its recorded
	// modification time is at least mtime; otherwise ok is false.
	Get(ctx context.Context, namespace, path string, mtime time.Time) (data []byte, ok bool, err error)

	// Put records the artifact for path at the given modification time.
	Put(ctx context.Context, namespace, path string, mtime time.Time, data []byte) error

	Close() error
}

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// StoreConfig holds SQLite store configuration.
type StoreConfig struct {
	Path string
}

// NewSQLiteStore creates a store instance. Call Init before use.
func NewSQLiteStore(cfg StoreConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &SQLiteStore{path: cfg.Path}, nil
}

// Init opens the database, enables WAL mode, and runs migrations.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	s.db = db

	if err := s.migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}
	return nil
}

// migrate applies the embedded schema migrations.
func (s *SQLiteStore) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, namespace, path string, mtime time.Time) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, fmt.Errorf("database not initialized")
	}
	var (
		data     []byte
		recorded int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, mtime_ns FROM manifests WHERE namespace = ? AND path = ?`,
		namespace, path,
	).Scan(&data, &recorded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cache entry: %w", err)
	}
	if recorded < mtime.UnixNano() {
		// Stale: the source changed since the artifact was produced.
		return nil, false, nil
	}
	return data, true, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, namespace, path string, mtime time.Time, data []byte) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO manifests (namespace, path, mtime_ns, data, stored_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (namespace, path) DO UPDATE SET
		   mtime_ns = excluded.mtime_ns,
		   data = excluded.data,
		   stored_at = excluded.stored_at`,
		namespace, path, mtime.UnixNano(), data, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Purge removes every entry under a namespace, for session cleanup.
func (s *SQLiteStore) Purge(ctx context.Context, namespace string) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM manifests WHERE namespace = ?`, namespace)
	if err != nil {
		return 0, fmt.Errorf("failed to purge namespace: %w", err)
	}
	return res.RowsAffected()
}
