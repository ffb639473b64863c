package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/blurtapp/blurt/pkg/observability"
)

// logHooks logs every observability event at debug level.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.BoardHooks = logHooks{}
	_ observability.StoreHooks = logHooks{}
	_ observability.CacheHooks = logHooks{}
)

// registerLogHooks routes board, store and cache events to l.
func registerLogHooks(l *log.Logger) {
	h := logHooks{logger: l}
	observability.SetBoardHooks(h)
	observability.SetStoreHooks(h)
	observability.SetCacheHooks(h)
}

func (h logHooks) OnNoteAdded(_ context.Context, sessionID string, count int) {
	h.logger.Debug("note added", "session", sessionID, "notes", count)
}

func (h logHooks) OnDragReleased(_ context.Context, sessionID, noteID string, inertia bool) {
	h.logger.Debug("drag released", "session", sessionID, "note", noteID, "inertia", inertia)
}

func (h logHooks) OnFinalized(_ context.Context, sessionID string, notes int, elapsed time.Duration) {
	h.logger.Debug("session finalized", "session", sessionID, "notes", notes, "elapsed", elapsed.Round(time.Second))
}

func (h logHooks) OnSave(_ context.Context, backend, kind string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("save failed", "backend", backend, "kind", kind, "took", d, "err", err)
		return
	}
	h.logger.Debug("saved", "backend", backend, "kind", kind, "took", d)
}

func (h logHooks) OnLoad(_ context.Context, backend, kind string, count int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "backend", backend, "kind", kind, "took", d, "err", err)
		return
	}
	h.logger.Debug("loaded", "backend", backend, "kind", kind, "count", count, "took", d)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "key", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "key", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "key", keyType, "bytes", size)
}
