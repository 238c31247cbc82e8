// Package sqlite implements the RunStore and PRStore ports on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// DB provides dual reader/writer database connections with WAL mode enabled.
// The writer connection is limited to a single connection to avoid "database
// is locked" errors; the reader pool allows up to 4 concurrent readers.
//
// DB also caches the column set of each table, queried once per handle. The
// repositories restrict every write to the intersection of record fields and
// actual columns, so an externally extended schema needs no code change here.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string

	mu      sync.Mutex
	columns map[string]map[string]bool
}

// NewDB creates a dual-connection SQLite database with WAL mode, busy timeout,
// synchronous NORMAL, foreign keys enabled, and a 64MB cache. The parent
// directory of dbPath is created if absent; this is the only filesystem side
// effect of the persistence layer.
func NewDB(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		dbPath,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.Ping(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("ping writer: %w", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	if err := reader.Ping(); err != nil {
		reader.Close()
		writer.Close()
		return nil, fmt.Errorf("ping reader: %w", err)
	}

	return &DB{
		Writer:  writer,
		Reader:  reader,
		path:    dbPath,
		columns: make(map[string]map[string]bool),
	}, nil
}

// Columns returns the set of columns actually present on the given table,
// cached for the lifetime of this handle.
func (db *DB) Columns(ctx context.Context, table string) (map[string]bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if cols, ok := db.columns[table]; ok {
		return cols, nil
	}

	// PRAGMA arguments cannot be bound; table names here are internal
	// constants, never user input.
	rows, err := db.Reader.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("introspect table %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid      int
			name     string
			colType  string
			notNull  int
			dflt     sql.NullString
			pkColumn int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pkColumn); err != nil {
			return nil, fmt.Errorf("scan table_info for %s: %w", table, err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table_info for %s: %w", table, err)
	}

	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}

	db.columns[table] = cols
	return cols, nil
}

// Close closes both reader and writer connections. Returns the first error
// encountered.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}
