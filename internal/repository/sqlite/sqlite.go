// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// SCHEMA:
// Tables are created by goose migrations embedded from ./migrations. goose
// records applied versions in goose_db_version, so New is safe to call on an
// existing database file.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a sql.DB connection pool and provides repository methods.
//
// One *DB implements every repository interface (users, items, history and
// the sweep's notification queries). Keeping them on one struct means a
// transaction can span the grocery_items and shopping_history tables.
type DB struct {
	conn *sql.DB
	now  func() time.Time // only used for created_at on users
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/grocery.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests; lost on close)
//
// CONNECTION PRAGMAS:
// PRAGMAs set with conn.Exec only apply to whichever pooled connection ran
// them. modernc reads `_pragma=` query parameters and applies them to every
// connection it opens, so they go in the DSN instead.
func New(dbPath string) (*DB, error) {
	dsn := dbPath + "?_time_format=sqlite&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if dbPath != ":memory:" {
		// WAL lets readers (HTTP requests) run while the sweep writes.
		dsn += "&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == ":memory:" {
		// Each connection to ":memory:" is a separate, empty database.
		// Pin the pool to one connection so every query sees the same tables.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

func (db *DB) migrate() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db.conn, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlitedriver.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
