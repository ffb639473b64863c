package session

import (
	"context"
	"testing"

	"github.com/blurtapp/blurt/pkg/cache"
)

func TestOfflineRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	o := NewOffline(c)

	if o.LastUserID(ctx) != "" {
		t.Error("empty cache should have no last user")
	}
	if got := o.Sessions(ctx, "u1"); got == nil || len(got) != 0 {
		t.Errorf("Sessions on empty cache = %v", got)
	}

	sessions := []Session{{ID: "s1", Title: "one"}}
	if err := o.CacheSessions(ctx, "u1", sessions); err != nil {
		t.Fatalf("CacheSessions: %v", err)
	}
	if err := o.CacheTemplates(ctx, "u2", []Template{{ID: "t1"}}); err != nil {
		t.Fatalf("CacheTemplates: %v", err)
	}

	if got := o.LastUserID(ctx); got != "u2" {
		t.Errorf("LastUserID = %q, want u2", got)
	}
	got := o.Sessions(ctx, "u1")
	if len(got) != 1 || got[0].ID != "s1" || got[0].Notes == nil {
		t.Errorf("Sessions(u1) = %+v", got)
	}
	if len(o.Sessions(ctx, "u2")) != 0 {
		t.Error("u2 should have no cached sessions")
	}
	if len(o.Templates(ctx, "u2")) != 1 {
		t.Error("u2 templates missing")
	}
	if len(o.Sessions(ctx, "")) != 0 {
		t.Error("empty user should read nothing")
	}
}

func TestOfflineCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, cache.SessionsKey("u"), []byte("not json"), 0); err != nil {
		t.Fatal(err)
	}

	if got := NewOffline(c).Sessions(ctx, "u"); got == nil || len(got) != 0 {
		t.Errorf("corrupt entry = %v, want empty list", got)
	}
}

func TestOfflineNilCache(t *testing.T) {
	ctx := context.Background()
	o := NewOffline(nil)
	if err := o.CacheSessions(ctx, "u", []Session{{ID: "x"}}); err != nil {
		t.Fatal(err)
	}
	if len(o.Sessions(ctx, "u")) != 0 {
		t.Error("nil cache should store nothing")
	}
}
