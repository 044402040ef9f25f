package sqlite

import (
	"path/filepath"
	"testing"
)

// setupTestDB opens a migrated database in a temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
