package cache

import (
	"context"
	"strings"
	"time"

	"github.com/blurtapp/blurt/pkg/observability"
)

// Instrument reports hits, misses and writes of c to the registered
// observability cache hooks, labelled by [KeyType].
func Instrument(c Cache) Cache {
	if _, ok := c.(instrumented); ok {
		return c
	}
	return instrumented{Cache: c}
}

type instrumented struct {
	Cache
}

func (c instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, hit, err
}

func (c instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}

// KeyType is the first segment after [KeyPrefix], or the whole key when it
// does not carry the prefix.
func KeyType(key string) string {
	rest, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok {
		return key
	}
	kind, _, _ := strings.Cut(rest, ":")
	return kind
}
