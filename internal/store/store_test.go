package store

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "qg:")
	t.Cleanup(func() { r.Close() })
	return r, mr
}

// backends runs fn against every KV implementation.
func backends(t *testing.T, fn func(t *testing.T, kv KV)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newTestStore(t)) })
	t.Run("redis", func(t *testing.T) {
		r, _ := newTestRedis(t)
		fn(t, r)
	})
}

func TestKVCRUD(t *testing.T) {
	backends(t, func(t *testing.T, kv KV) {
		ctx := context.Background()

		// Missing key.
		if _, err := kv.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
		}

		if err := kv.Set(ctx, "a", "1"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := kv.Set(ctx, "a", "2"); err != nil {
			t.Fatalf("Set overwrite: %v", err)
		}
		v, err := kv.Get(ctx, "a")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if v != "2" {
			t.Errorf("Get = %q, want %q", v, "2")
		}

		if err := kv.Delete(ctx, "a"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := kv.Delete(ctx, "a"); err != nil {
			t.Fatalf("Delete twice: %v", err)
		}
		if _, err := kv.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
		}
	})
}

func TestKVListKeysWithPrefix(t *testing.T) {
	backends(t, func(t *testing.T, kv KV) {
		ctx := context.Background()
		for _, k := range []string{"3pmo_test_b", "3pmo_test_a", "3pmo_current_test", "3pmo_test%_x", "other"} {
			if err := kv.Set(ctx, k, "v"); err != nil {
				t.Fatalf("Set %s: %v", k, err)
			}
		}
		got, err := kv.ListKeysWithPrefix(ctx, "3pmo_test_")
		if err != nil {
			t.Fatalf("ListKeysWithPrefix: %v", err)
		}
		want := []string{"3pmo_test_a", "3pmo_test_b"}
		if !slices.Equal(got, want) {
			t.Errorf("ListKeysWithPrefix = %v, want %v", got, want)
		}

		none, err := kv.ListKeysWithPrefix(ctx, "missing_")
		if err != nil {
			t.Fatalf("ListKeysWithPrefix: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no keys, got %v", none)
		}
	})
}

func TestRedisNamespace(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()
	if err := r.Set(ctx, "3pmo_current_test", "T1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := mr.Get("qg:3pmo_current_test"); err != nil || got != "T1" {
		t.Errorf("raw key = %q, %v, want namespaced value", got, err)
	}
	mr.Set("3pmo_current_test", "outside")
	if v, _ := r.Get(ctx, "3pmo_current_test"); v != "T1" {
		t.Errorf("Get = %q, want value inside namespace", v)
	}
}

func TestEscapeGlob(t *testing.T) {
	if got := escapeGlob(`a*b?[c]\`); got != `a\*b\?\[c\]\\` {
		t.Errorf("escapeGlob = %q", got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "state.db")
	kv, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	if _, ok := kv.(*Store); !ok {
		t.Errorf("Open(%q) = %T, want *Store", path, kv)
	}
	kv.Close()

	mr := miniredis.RunT(t)
	kv, err = Open(ctx, "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("Open redis: %v", err)
	}
	if _, ok := kv.(*Redis); !ok {
		t.Errorf("Open(redis) = %T, want *Redis", kv)
	}
	kv.Close()
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if v, err := s.Get(ctx, "k"); err != nil || v != "v" {
		t.Errorf("Get after reopen = %q, %v", v, err)
	}
}
