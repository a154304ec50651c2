package db

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New("mongodb", "mongodb://localhost")
	if err == nil || !strings.Contains(err.Error(), "unsupported DB driver") {
		t.Fatalf("err = %v, want unsupported driver error", err)
	}
}

func TestMigrate_SQLiteFile(t *testing.T) {
	conn, err := New("sqlite3", filepath.Join(t.TempDir(), "elogbook.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer conn.Close()

	if err := Migrate(conn, "sqlite3"); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// A second run has nothing to apply.
	if err := Migrate(conn, "sqlite3"); err != nil {
		t.Fatalf("Migrate again: %v", err)
	}

	for _, table := range []string{"entries", "attachments", "sessions"} {
		var n int
		if err := conn.Get(&n, `SELECT COUNT(*) FROM `+table); err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestMigrate_UnknownDialect(t *testing.T) {
	if err := Migrate(nil, "oracle"); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}
