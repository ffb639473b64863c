// Package cache provides byte caches that hold offline copies of session and
// template lists.
//
// Three backends implement [Cache]:
//   - [FileCache]: one JSON file per key under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance
//   - [NewNullCache]: stores nothing
//
// [Open] selects a backend by name and wraps it with [Instrument] so every
// backend reports hits, misses and writes to the observability hooks.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/blurtapp/blurt/pkg/errors"
)

// Cache stores opaque values by key.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Options configures [Open].
type Options struct {
	Backend   string
	Dir       string
	RedisAddr string
}

// Open creates the configured backend, instrumented with observability hooks.
// An empty backend selects the file cache.
func Open(ctx context.Context, opts Options) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch opts.Backend {
	case "", BackendFile:
		c, err = NewFileCache(opts.Dir)
	case BackendRedis:
		c, err = NewRedisCache(ctx, RedisOptions{Addr: opts.RedisAddr})
	case BackendNone:
		c = NewNullCache()
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (want %s, %s or %s)",
			opts.Backend, BackendFile, BackendRedis, BackendNone)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", opts.Backend, err)
	}
	return Instrument(c), nil
}

// NewNullCache returns a cache that stores nothing. Every Get misses.
func NewNullCache() Cache { return nullCache{} }

type nullCache struct{}

func (nullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (nullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nullCache) Delete(context.Context, string) error                     { return nil }
func (nullCache) Close() error                                             { return nil }
