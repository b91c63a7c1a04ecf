package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO session_values (key, value) VALUES ('userType', 'marketer')`); err != nil {
		t.Fatalf("insert into migrated table: %v", err)
	}
	var v string
	if err := db.QueryRow(`SELECT value FROM session_values WHERE key = 'userType'`).Scan(&v); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v != "marketer" {
		t.Errorf("value = %q, want marketer", v)
	}
}

func TestOpenIsIdempotentOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	db.Close()
}

func TestMigrateReportsVersion(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	version, err := Migrate(context.Background(), db)
	if err != nil {
		t.Fatalf("migrate again: %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
}

func TestDSNSkipsWALInMemory(t *testing.T) {
	if got := dsn(":memory:"); strings.Contains(got, "journal_mode") {
		t.Errorf("dsn(:memory:) = %q, want no journal_mode", got)
	}
	if got := dsn("agent.db"); !strings.Contains(got, "journal_mode%28WAL%29") {
		t.Errorf("dsn(agent.db) = %q, want WAL pragma", got)
	}
}
