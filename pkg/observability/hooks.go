// Package observability lets callers watch board, store and cache events
// without the libraries depending on a logging or metrics backend.
//
// Every hook defaults to a no-op. The CLI registers a logging
// implementation when run with -v:
//
//	observability.SetBoardHooks(myBoardHooks{})
//	observability.SetStoreHooks(myStoreHooks{})
//
// Libraries report through the getters:
//
//	start := time.Now()
//	err := store.Save(ctx, sess)
//	observability.Store().OnSave(ctx, "file", "session", time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Board Hooks
// =============================================================================

// BoardHooks receives events from the interactive note board.
type BoardHooks interface {
	// OnNoteAdded records a new blurt; count is the note total afterwards.
	OnNoteAdded(ctx context.Context, sessionID string, count int)

	// OnDragReleased records the end of a drag and whether inertia followed.
	OnDragReleased(ctx context.Context, sessionID, noteID string, inertia bool)

	// OnFinalized records a completed session and how long the session ran.
	OnFinalized(ctx context.Context, sessionID string, notes int, elapsed time.Duration)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from session and template persistence.
// backend names the store ("file", "mongo", "offline"); kind is "session"
// or "template".
type StoreHooks interface {
	OnSave(ctx context.Context, backend, kind string, duration time.Duration, err error)
	OnLoad(ctx context.Context, backend, kind string, count int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBoardHooks is a no-op implementation of BoardHooks.
type NoopBoardHooks struct{}

func (NoopBoardHooks) OnNoteAdded(context.Context, string, int)                {}
func (NoopBoardHooks) OnDragReleased(context.Context, string, string, bool)    {}
func (NoopBoardHooks) OnFinalized(context.Context, string, int, time.Duration) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnSave(context.Context, string, string, time.Duration, error)      {}
func (NoopStoreHooks) OnLoad(context.Context, string, string, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Registry
// =============================================================================

// registry holds the active hooks. Setters run at startup; getters run on
// every event, so reads take the shared lock.
var registry = struct {
	sync.RWMutex
	board BoardHooks
	store StoreHooks
	cache CacheHooks
}{
	board: NoopBoardHooks{},
	store: NoopStoreHooks{},
	cache: NoopCacheHooks{},
}

// SetBoardHooks registers board hooks. A nil h is ignored.
func SetBoardHooks(h BoardHooks) {
	if h == nil {
		return
	}
	registry.Lock()
	registry.board = h
	registry.Unlock()
}

// SetStoreHooks registers store hooks. Call it before opening any store.
// A nil h is ignored.
func SetStoreHooks(h StoreHooks) {
	if h == nil {
		return
	}
	registry.Lock()
	registry.store = h
	registry.Unlock()
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h == nil {
		return
	}
	registry.Lock()
	registry.cache = h
	registry.Unlock()
}

// Board returns the registered board hooks.
func Board() BoardHooks {
	registry.RLock()
	defer registry.RUnlock()
	return registry.board
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	registry.RLock()
	defer registry.RUnlock()
	return registry.store
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	registry.RLock()
	defer registry.RUnlock()
	return registry.cache
}

// Reset restores the no-op hooks. Tests use it to undo registrations.
func Reset() {
	registry.Lock()
	defer registry.Unlock()
	registry.board = NoopBoardHooks{}
	registry.store = NoopStoreHooks{}
	registry.cache = NoopCacheHooks{}
}
