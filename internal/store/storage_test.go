package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/fieldtrack/internal/database"
)

func setupSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db)
}

func storages(t *testing.T) map[string]Storage {
	return map[string]Storage{
		"memory": NewMemoryStore(),
		"sqlite": setupSQLiteStore(t),
	}
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "userType"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("get missing: err = %v, want ErrNotFound", err)
			}

			if err := s.Set(ctx, "userType", "marketer"); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := s.Set(ctx, "userType", "hr"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			v, err := s.Get(ctx, "userType")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if v != "hr" {
				t.Errorf("value = %q, want hr", v)
			}

			if err := s.Remove(ctx, "userType"); err != nil {
				t.Fatalf("remove: %v", err)
			}
			if _, err := s.Get(ctx, "userType"); !errors.Is(err, ErrNotFound) {
				t.Errorf("after remove: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStorageClear(t *testing.T) {
	ctx := context.Background()
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			s.Set(ctx, "a", "1")
			s.Set(ctx, "b", "2")

			if err := s.Clear(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			for _, k := range []string{"a", "b"} {
				if _, err := s.Get(ctx, k); !errors.Is(err, ErrNotFound) {
					t.Errorf("key %q survived clear: err = %v", k, err)
				}
			}
		})
	}
}

func TestHashKey(t *testing.T) {
	if got := HashKey(""); got != "fieldtrack:session:default" {
		t.Errorf("HashKey(\"\") = %q", got)
	}
	if got := HashKey("tablet-7"); got != "fieldtrack:session:tablet-7" {
		t.Errorf("HashKey(tablet-7) = %q", got)
	}
}

func TestOpenSQLite(t *testing.T) {
	kv, closeFn, err := Open(context.Background(), Options{Kind: "sqlite", DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()

	if _, ok := kv.(*SQLiteStore); !ok {
		t.Fatalf("store = %T, want *SQLiteStore", kv)
	}
	if err := kv.Set(context.Background(), "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	if _, _, err := Open(context.Background(), Options{Kind: "etcd"}); err == nil {
		t.Fatal("expected error for unknown store kind")
	}
}
