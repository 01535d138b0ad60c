// Package store persists per-test grading state in a key-value store.
// SQLite is the default backend; Redis is used for redis:// locations.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by KV.Get for a missing key.
var ErrNotFound = errors.New("key not found")

// KV is the only persistence capability the grader needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	ListKeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

var (
	_ KV = (*Store)(nil)
	_ KV = (*Redis)(nil)
)

// Open picks a backend from location: a redis:// or rediss:// URL opens a
// Redis client, anything else is a SQLite file path.
func Open(ctx context.Context, location string) (KV, error) {
	if strings.HasPrefix(location, "redis://") || strings.HasPrefix(location, "rediss://") {
		opts, err := redis.ParseURL(location)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		r := NewRedis(redis.NewClient(opts), "")
		if err := r.Ping(ctx); err != nil {
			r.Close()
			return nil, err
		}
		return r, nil
	}
	return New(location)
}
