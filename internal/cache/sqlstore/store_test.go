package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dynsite/dynsite/internal/cache"
	"github.com/dynsite/dynsite/internal/cache/cachetest"
)

func TestSQLiteStoreContract(t *testing.T) {
	cachetest.RunContract(t, func(t *testing.T) cache.Store {
		return newSQLiteStore(t)
	})
}

func TestSQLiteStoreRegistered(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "pages.db")
	store, err := cache.Open("sqlite", cache.Options{DSN: dsn})
	if err != nil {
		t.Fatalf("open via registry: %v", err)
	}
	defer store.Close()

	if err := store.Put(context.Background(), "/", "home"); err != nil {
		t.Fatalf("put error: %v", err)
	}
	got, err := store.Get(context.Background(), "")
	if err != nil || got != "home" {
		t.Fatalf("root lookup = %q, %v", got, err)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "pages.db")
	first, err := OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Put(context.Background(), "/contact", "<p>call us</p>"); err != nil {
		t.Fatalf("put error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, err := second.Get(context.Background(), "/contact")
	if err != nil || got != "<p>call us</p>" {
		t.Fatalf("reopened lookup = %q, %v", got, err)
	}
}

func TestSQLiteGetEmptyKey(t *testing.T) {
	store := newSQLiteStore(t)
	_, err := store.Get(context.Background(), "/???")
	var readErr *cache.ReadError
	if !errors.As(err, &readErr) || !errors.Is(err, cache.ErrEmptyKey) {
		t.Fatalf("expected ReadError wrapping ErrEmptyKey, got %v", err)
	}
}

func TestOpenSQLiteRequiresDSN(t *testing.T) {
	if _, err := OpenSQLite("  "); err == nil {
		t.Fatalf("empty dsn should fail")
	}
}

func TestWithSQLitePragmas(t *testing.T) {
	if got := withSQLitePragmas("pages.db"); got != "pages.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)" {
		t.Fatalf("unexpected dsn %q", got)
	}
	if got := withSQLitePragmas("file:pages.db?mode=rwc"); got != "file:pages.db?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)" {
		t.Fatalf("unexpected dsn %q", got)
	}
	custom := "pages.db?_pragma=foreign_keys(1)"
	if got := withSQLitePragmas(custom); got != custom {
		t.Fatalf("custom pragmas should be kept, got %q", got)
	}
}

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
