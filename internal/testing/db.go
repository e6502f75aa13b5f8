// Package testing provides testing utilities and helpers for the bankmirror project.
package testing

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/aristath/bankmirror/internal/database"
)

// NewTestDB creates a migrated SQLite database in a temporary file.
// driver is "sqlite" (pure Go) or "sqlite3" (cgo); empty means "sqlite".
// Temporary files are used because every pooled connection to an in-memory
// database would see its own empty database.
// The cleanup function is idempotent and can be called multiple times safely.
func NewTestDB(t *testing.T, driver string) (*database.DB, func()) {
	t.Helper()

	if driver == "" {
		driver = database.DriverSQLite
	}

	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", driver))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Driver:  driver,
		DSN:     tmpPath,
		Profile: database.ProfileStandard,
		Name:    "cache",
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	closed := false
	return db, func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database: %v", err)
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(tmpPath + suffix); err != nil && !os.IsNotExist(err) {
				t.Logf("Warning: Failed to remove temporary database file %s: %v", tmpPath+suffix, err)
			}
		}
	}
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, db *database.DB, table string) int {
	t.Helper()

	var n int
	if err := db.Conn().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return n
}

// GetRawConnection returns the underlying sql.DB for direct assertions.
func GetRawConnection(db *database.DB) *sql.DB {
	return db.Conn()
}
