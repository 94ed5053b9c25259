// Package cachetest holds the behaviour every cache.Store backend must share.
package cachetest

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/dynsite/dynsite/internal/cache"
)

// RunContract 针对 newStore 返回的后端执行通用读写/枚举用例。
func RunContract(t *testing.T, newStore func(t *testing.T) cache.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		store := newStore(t)
		if _, err := store.Get(ctx, "/missing"); !errors.Is(err, cache.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		ok, err := store.Exists(ctx, "/missing")
		if err != nil || ok {
			t.Fatalf("Exists on missing entry = %v, %v", ok, err)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		store := newStore(t)
		payload := "<h1>About</h1><p>ünïcödé</p>"
		if err := store.Put(ctx, "/about-us", payload); err != nil {
			t.Fatalf("put error: %v", err)
		}
		got, err := store.Get(ctx, "/about-us")
		if err != nil {
			t.Fatalf("get error: %v", err)
		}
		if got != payload {
			t.Fatalf("payload mismatch: %q", got)
		}
		ok, err := store.Exists(ctx, "/about-us/")
		if err != nil || !ok {
			t.Fatalf("Exists after put = %v, %v", ok, err)
		}
	})

	t.Run("overwrite replaces", func(t *testing.T) {
		store := newStore(t)
		if err := store.Put(ctx, "/contact", "first"); err != nil {
			t.Fatalf("put error: %v", err)
		}
		if err := store.Put(ctx, "/contact", "second"); err != nil {
			t.Fatalf("put error: %v", err)
		}
		got, err := store.Get(ctx, "/contact")
		if err != nil || got != "second" {
			t.Fatalf("expected last write to win, got %q (%v)", got, err)
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		store := newStore(t)
		err := store.Put(ctx, "/???", "x")
		var writeErr *cache.WriteError
		if !errors.As(err, &writeErr) {
			t.Fatalf("expected WriteError, got %v", err)
		}
	})

	t.Run("keys enumerates entries", func(t *testing.T) {
		store := newStore(t)
		for _, p := range []string{"/", "/contact", "/services/ev-chargers"} {
			if err := store.Put(ctx, p, "content "+p); err != nil {
				t.Fatalf("put %s: %v", p, err)
			}
		}

		for round := 0; round < 2; round++ {
			var keys []string
			for key, err := range store.Keys(ctx) {
				if err != nil {
					t.Fatalf("keys error: %v", err)
				}
				keys = append(keys, key)
			}
			sort.Strings(keys)
			want := []string{"contact", "index", "services_ev-chargers"}
			if len(keys) != len(want) {
				t.Fatalf("round %d: expected %v, got %v", round, want, keys)
			}
			for i := range want {
				if keys[i] != want[i] {
					t.Fatalf("round %d: expected %v, got %v", round, want, keys)
				}
			}
		}

		count, err := cache.CountKeys(ctx, store)
		if err != nil || count != 3 {
			t.Fatalf("CountKeys = %d, %v", count, err)
		}
	})

	t.Run("keys stops early", func(t *testing.T) {
		store := newStore(t)
		for _, p := range []string{"/a", "/b", "/c"} {
			if err := store.Put(ctx, p, p); err != nil {
				t.Fatalf("put %s: %v", p, err)
			}
		}
		seen := 0
		for range store.Keys(ctx) {
			seen++
			break
		}
		if seen != 1 {
			t.Fatalf("expected to stop after one key, saw %d", seen)
		}
	})
}
