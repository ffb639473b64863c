package session

import (
	"context"
	"encoding/json"

	"github.com/blurtapp/blurt/pkg/cache"
)

// Offline keeps per-user copies of the cloud lists so the app stays
// readable without a connection. Every read failure yields an empty list.
type Offline struct {
	cache cache.Cache
}

// NewOffline wraps c. A nil cache stores nothing.
func NewOffline(c cache.Cache) *Offline {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Offline{cache: c}
}

// LastUserID returns the user whose lists were cached most recently.
func (o *Offline) LastUserID(ctx context.Context) string {
	data, hit, err := o.cache.Get(ctx, cache.LastUserKey)
	if err != nil || !hit {
		return ""
	}
	return string(data)
}

// CacheSessions stores the session list of userID and remembers the user.
func (o *Offline) CacheSessions(ctx context.Context, userID string, sessions []Session) error {
	return o.put(ctx, userID, cache.SessionsKey(userID), sessions)
}

// Sessions returns the cached session list of userID.
func (o *Offline) Sessions(ctx context.Context, userID string) []Session {
	var sessions []Session
	if !o.read(ctx, userID, cache.SessionsKey(userID), &sessions) || sessions == nil {
		return []Session{}
	}
	for i := range sessions {
		sessions[i].Normalize()
	}
	return sessions
}

// CacheTemplates stores the template list of userID and remembers the user.
func (o *Offline) CacheTemplates(ctx context.Context, userID string, templates []Template) error {
	return o.put(ctx, userID, cache.TemplatesKey(userID), templates)
}

// Templates returns the cached template list of userID.
func (o *Offline) Templates(ctx context.Context, userID string) []Template {
	var templates []Template
	if !o.read(ctx, userID, cache.TemplatesKey(userID), &templates) || templates == nil {
		return []Template{}
	}
	return templates
}

func (o *Offline) put(ctx context.Context, userID, key string, v any) error {
	if userID == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := o.cache.Set(ctx, cache.LastUserKey, []byte(userID), 0); err != nil {
		return err
	}
	return o.cache.Set(ctx, key, data, 0)
}

func (o *Offline) read(ctx context.Context, userID, key string, v any) bool {
	if userID == "" {
		return false
	}
	data, hit, err := o.cache.Get(ctx, key)
	if err != nil || !hit {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
