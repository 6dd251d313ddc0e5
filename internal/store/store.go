package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const kvTable = "kv"

// SQLiteKV is a KV backed by a single SQLite table.
type SQLiteKV struct {
	db  *sql.DB
	drv *entsql.Driver
}

// Open creates a SQLiteKV connected to the database at dsn.
// It applies the pragmas and creates the table if needed.
func Open(dsn string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &SQLiteKV{db: db, drv: entsql.OpenDB(dialect.SQLite, db)}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *SQLiteKV) DB() *sql.DB {
	return s.db
}

func (s *SQLiteKV) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args := s.builder().
		Select("value").
		From(entsql.Table(kvTable)).
		Where(entsql.EQ("key", key)).
		Query()

	rows, err := s.drv.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("query %s: %w", key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, rows.Err()
	}
	var value []byte
	if err := rows.Scan(&value); err != nil {
		return nil, false, fmt.Errorf("scan %s: %w", key, err)
	}
	return value, true, rows.Err()
}

func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	query, args := s.builder().
		Insert(kvTable).
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := s.drv.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	query, args := s.builder().
		Delete(kvTable).
		Where(entsql.EQ("key", key)).
		Query()

	if _, err := s.drv.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	query, args := s.builder().
		Select("key").
		From(entsql.Table(kvTable)).
		Where(entsql.HasPrefix("key", prefix)).
		OrderBy("key").
		Query()

	rows, err := s.drv.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list keys %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteKV) Close() error {
	return s.drv.Close()
}

// applyPragmas configures SQLite for single-user use.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. PREPBUDDY_DB environment variable
// 2. $XDG_DATA_HOME/prepbuddy/prepbuddy.db
// 3. ~/.local/share/prepbuddy/prepbuddy.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("PREPBUDDY_DB"); p != "" {
		return p, ensureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "prepbuddy", "prepbuddy.db")
	return p, ensureDir(p)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
