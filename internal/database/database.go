package database

import (
	"database/sql"
	"database/sql/driver"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// caseFoldFunc names the SQL function that lowercases text with Unicode rules.
// SQLite's own lower() and LIKE only fold ASCII.
const caseFoldFunc = "casefold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(caseFoldFunc, 1, caseFold)
}

func caseFold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

const (
	maxAttempts = 3
	baseBackoff = 100 * time.Millisecond
)

// Open opens a SQLite database at the given path and runs migrations.
// Opening and migrating are retried a bounded number of times with
// increasing backoff; a failure after the last attempt is returned.
func Open(dbPath string) (*sql.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		db, err := open(dbPath)
		if err == nil {
			return db, nil
		}
		lastErr = err
		if attempt < maxAttempts {
			slog.Warn("database provisioning failed, retrying", "attempt", attempt, "error", err)
			time.Sleep(baseBackoff * time.Duration(attempt))
		}
	}
	return nil, lastErr
}

func open(dbPath string) (*sql.DB, error) {
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if dbPath != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
