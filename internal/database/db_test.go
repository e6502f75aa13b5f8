package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T, driver string) *DB {
	t.Helper()

	db, err := New(Config{
		Driver:  driver,
		DSN:     filepath.Join(t.TempDir(), "cache.db"),
		Profile: ProfileCache,
		Name:    "cache",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(Config{Driver: "oracle", DSN: "x", Name: "cache"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestNew_PostgresRequiresDSN(t *testing.T) {
	_, err := New(Config{Driver: DriverPostgres, Name: "cache"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a DSN")
}

func TestMigrate_BothSQLiteDrivers(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverSQLite3} {
		t.Run(driver, func(t *testing.T) {
			db := newSQLite(t, driver)

			for _, table := range []string{"positions", "transactions", "sync_logs", "settings", "orders"} {
				var name string
				err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
				require.NoError(t, err, table)
				assert.Equal(t, table, name)
			}

			// Re-running is a no-op
			require.NoError(t, db.Migrate())
		})
	}
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := newSQLite(t, DriverSQLite)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)", "user_id", "U1", 1)
		return err
	})
	require.NoError(t, err)

	var value string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", "user_id").Scan(&value))
	assert.Equal(t, "U1", value)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := newSQLite(t, DriverSQLite)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)", "user_id", "U1", 1); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM settings").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTx_RecoversPanic(t *testing.T) {
	db := newSQLite(t, DriverSQLite)

	err := db.WithTx(context.Background(), func(tx *sql.Tx) error {
		panic("bad state")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction: bad state")
}

func TestWithTransaction_NilDB(t *testing.T) {
	err := WithTransaction(nil, func(tx *sql.Tx) error { return nil })
	require.Error(t, err)
}

func TestRebind(t *testing.T) {
	sqliteDB := &DB{driver: DriverSQLite}
	pgDB := &DB{driver: DriverPostgres}

	query := "SELECT id FROM positions WHERE account_id = ? AND currency = ?"
	assert.Equal(t, query, sqliteDB.Rebind(query))
	assert.Equal(t, "SELECT id FROM positions WHERE account_id = $1 AND currency = $2", pgDB.Rebind(query))

	assert.Equal(t, "SELECT '?' FROM t WHERE a = $1", pgDB.Rebind("SELECT '?' FROM t WHERE a = ?"))
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("-- comment\nCREATE TABLE a (x INT);\n\nCREATE INDEX i ON a(x);\n")
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x INT)", stmts[0])
	assert.Equal(t, "CREATE INDEX i ON a(x)", stmts[1])
}

func TestSplitStatements_SemicolonInComment(t *testing.T) {
	stmts := splitStatements("-- text survives; REAL would not\nCREATE TABLE a (x TEXT);\n  -- trailing; note\n")
	require.Len(t, stmts, 1)
	assert.Equal(t, "CREATE TABLE a (x TEXT)", stmts[0])
}

func TestSplitStatements_EmbeddedSchemas(t *testing.T) {
	for _, file := range []string{"schemas/sqlite.sql", "schemas/postgres.sql"} {
		content, err := schemaFS.ReadFile(file)
		require.NoError(t, err)

		stmts := splitStatements(string(content))
		require.NotEmpty(t, stmts, file)
		for _, stmt := range stmts {
			assert.Regexp(t, `^CREATE `, stmt, file)
		}
	}
}

func TestSnapshot(t *testing.T) {
	db := newSQLite(t, DriverSQLite)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)", "account_id", "A1", 1)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "snap", "copy.db")
	require.NoError(t, db.Snapshot(ctx, dest))
	// A second snapshot to the same path replaces the first
	require.NoError(t, db.Snapshot(ctx, dest))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	copyDB, err := New(Config{DSN: dest, Name: "copy"})
	require.NoError(t, err)
	defer copyDB.Close()

	var value string
	require.NoError(t, copyDB.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", "account_id").Scan(&value))
	assert.Equal(t, "A1", value)
}

func TestSnapshot_PostgresUnsupported(t *testing.T) {
	db := &DB{driver: DriverPostgres}
	assert.ErrorIs(t, db.Snapshot(context.Background(), "x"), ErrSnapshotUnsupported)
}

func TestHealthCheckAndStats(t *testing.T) {
	db := newSQLite(t, DriverSQLite3)
	ctx := context.Background()

	require.NoError(t, db.HealthCheck(ctx))
	require.NoError(t, db.QuickCheck(ctx))

	stats, err := db.GetStats(ctx)
	require.NoError(t, err)
	assert.Greater(t, stats.PageSize, int64(0))
	assert.Greater(t, stats.PageCount, int64(0))
}
