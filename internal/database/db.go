// Package database provides database connection and initialization functionality.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver ("pgx")
	_ "github.com/mattn/go-sqlite3"    // cgo SQLite driver ("sqlite3")
	_ "modernc.org/sqlite"             // Pure Go SQLite driver ("sqlite")
)

//go:embed schemas/*.sql
var schemaFS embed.FS

// Driver names registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverSQLite3  = "sqlite3"
	DriverPostgres = "pgx"
)

// DatabaseProfile defines different configuration profiles for databases
type DatabaseProfile string

const (
	// ProfileLedger - Maximum safety, for the audit log
	ProfileLedger DatabaseProfile = "ledger"
	// ProfileCache - Maximum speed, the upstream API is the source of truth
	ProfileCache DatabaseProfile = "cache"
	// ProfileStandard - Balanced configuration
	ProfileStandard DatabaseProfile = "standard"
)

// ErrSnapshotUnsupported is returned by Snapshot for server databases.
var ErrSnapshotUnsupported = errors.New("snapshot is only supported for sqlite databases")

// DB wraps the database connection with dialect awareness
type DB struct {
	conn    *sql.DB
	driver  string
	dsn     string
	profile DatabaseProfile
	name    string // Database name for logging
}

// Config holds database configuration
type Config struct {
	Driver  string // sqlite (default), sqlite3 or pgx
	DSN     string // File path for SQLite, connection URL for PostgreSQL
	Profile DatabaseProfile
	Name    string // Friendly name for logging (e.g., "cache")
}

// New opens a pooled connection and verifies it with a ping.
func New(cfg Config) (*DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}

	connStr := cfg.DSN
	switch cfg.Driver {
	case DriverSQLite, DriverSQLite3:
		if !strings.HasPrefix(cfg.DSN, "file:") {
			absPath, err := filepath.Abs(cfg.DSN)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
			cfg.DSN = absPath
		}
		connStr = buildSQLiteConnectionString(cfg.Driver, cfg.DSN, cfg.Profile)
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database %s: postgres requires a DSN", cfg.Name)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	conn, err := sql.Open(cfg.Driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}

	configureConnectionPool(conn, cfg.Profile)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{
		conn:    conn,
		driver:  cfg.Driver,
		dsn:     cfg.DSN,
		profile: cfg.Profile,
		name:    cfg.Name,
	}, nil
}

// buildSQLiteConnectionString appends profile PRAGMAs using each driver's own syntax.
func buildSQLiteConnectionString(driver, path string, profile DatabaseProfile) string {
	var sync, vacuum string
	switch profile {
	case ProfileLedger:
		sync, vacuum = "FULL", "NONE"
	case ProfileCache:
		sync, vacuum = "OFF", "FULL"
	default:
		sync, vacuum = "NORMAL", "INCREMENTAL"
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	if driver == DriverSQLite3 {
		return path + sep + strings.Join([]string{
			"_journal_mode=WAL",
			"_synchronous=" + sync,
			"_auto_vacuum=" + strings.ToLower(vacuum),
			"_foreign_keys=1",
			"_busy_timeout=5000",
		}, "&")
	}

	return path + sep + strings.Join([]string{
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(" + sync + ")",
		"_pragma=auto_vacuum(" + vacuum + ")",
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_pragma=temp_store(MEMORY)",
	}, "&")
}

// configureConnectionPool sets up connection pool for long-term operation
func configureConnectionPool(conn *sql.DB, profile DatabaseProfile) {
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	if profile == ProfileCache {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(2)
	}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name for logging
func (db *DB) Name() string {
	return db.name
}

// Driver returns the database/sql driver name
func (db *DB) Driver() string {
	return db.driver
}

// Profile returns the database profile
func (db *DB) Profile() DatabaseProfile {
	return db.profile
}

// Path returns the SQLite file path (empty for PostgreSQL)
func (db *DB) Path() string {
	if db.IsPostgres() {
		return ""
	}
	return db.dsn
}

// IsPostgres reports whether the connection uses the PostgreSQL dialect.
func (db *DB) IsPostgres() bool {
	return db.driver == DriverPostgres
}

// Migrate applies the embedded schema for the connection's dialect.
// Every statement is idempotent, so Migrate is safe to run on each start.
func (db *DB) Migrate() error {
	schemaFile := "schemas/sqlite.sql"
	if db.IsPostgres() {
		schemaFile = "schemas/postgres.sql"
	}

	content, err := schemaFS.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read schema %s: %w", schemaFile, err)
	}

	return WithTransaction(db.conn, func(tx *sql.Tx) error {
		for _, stmt := range splitStatements(string(content)) {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to execute schema %s for %s: %w", schemaFile, db.name, err)
			}
		}
		return nil
	})
}

// splitStatements breaks a schema file into single statements. Comment
// lines are dropped before splitting, so they may contain semicolons.
// String literals must not.
func splitStatements(schema string) []string {
	var code []string
	for _, line := range strings.Split(schema, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "--") {
			code = append(code, line)
		}
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(code, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// BeginTx starts a new transaction with options
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return db.conn.BeginTx(ctx, opts)
}

// WithTx runs fn inside a transaction bound to ctx. See WithTransaction.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return withTx(ctx, db.conn, fn)
}

// WithTransaction executes a function within a database transaction.
// If the function returns an error or panics, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func WithTransaction(db *sql.DB, fn func(*sql.Tx) error) error {
	return withTx(context.Background(), db, fn)
}

func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
		} else if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback also failed: %v)", err, rollbackErr)
			} else {
				err = fmt.Errorf("transaction failed: %w", err)
			}
		} else if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return err
}

// ExecContext executes a rebound query with context
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.conn.ExecContext(ctx, db.Rebind(query), args...)
}

// QueryContext executes a rebound query with context
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, db.Rebind(query), args...)
}

// QueryRowContext executes a rebound query that returns at most one row
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRowContext(ctx, db.Rebind(query), args...)
}

// HealthCheck pings the database and, for SQLite, runs an integrity check.
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed for %s: %w", db.name, err)
	}

	if db.IsPostgres() {
		var one int
		if err := db.conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			return fmt.Errorf("probe query failed for %s: %w", db.name, err)
		}
		return nil
	}

	var integrityResult string
	if err := db.conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		return fmt.Errorf("integrity check query failed for %s: %w", db.name, err)
	}
	if integrityResult != "ok" {
		return fmt.Errorf("integrity check failed for %s: %s", db.name, integrityResult)
	}

	return nil
}

// QuickCheck performs a quick health check (just ping, no integrity check)
func (db *DB) QuickCheck(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Snapshot writes a consistent copy of a SQLite database to dest.
func (db *DB) Snapshot(ctx context.Context, dest string) error {
	if db.IsPostgres() {
		return ErrSnapshotUnsupported
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	// VACUUM INTO refuses to overwrite an existing file.
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear snapshot target: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("snapshot failed for %s: %w", db.name, err)
	}
	return nil
}

// Stats returns database statistics
type Stats struct {
	SizeBytes    int64
	WALSizeBytes int64
	PageCount    int64
	PageSize     int64
}

// GetStats retrieves SQLite file statistics. PostgreSQL connections report zeroes.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	if db.IsPostgres() {
		return stats, nil
	}

	if fileInfo, err := os.Stat(db.dsn); err == nil {
		stats.SizeBytes = fileInfo.Size()
	}
	if fileInfo, err := os.Stat(db.dsn + "-wal"); err == nil {
		stats.WALSizeBytes = fileInfo.Size()
	}
	if err := db.conn.QueryRowContext(ctx, "PRAGMA page_count").Scan(&stats.PageCount); err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, "PRAGMA page_size").Scan(&stats.PageSize); err != nil {
		return nil, fmt.Errorf("failed to get page size: %w", err)
	}

	return stats, nil
}
