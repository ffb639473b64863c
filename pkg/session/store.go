package session

import (
	"cmp"
	"context"
	"slices"
)

// Store persists sessions.
//
// Get returns (nil, nil) when the session does not exist; callers decide
// whether that is an error.
type Store interface {
	List(ctx context.Context) ([]Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// TemplateStore persists session templates. Save upserts by id.
type TemplateStore interface {
	ListTemplates(ctx context.Context) ([]Template, error)
	SaveTemplate(ctx context.Context, t Template) error
	DeleteTemplate(ctx context.Context, id string) error
}

// Backend is a store for both sessions and templates.
type Backend interface {
	Store
	TemplateStore
}

// SortByStart orders sessions newest first by start time.
func SortByStart(sessions []Session) {
	slices.SortStableFunc(sessions, func(a, b Session) int {
		return cmp.Compare(b.StartedAtMs, a.StartedAtMs)
	})
}

// SortByActivity orders sessions newest first by end time, or start time
// while still running.
func SortByActivity(sessions []Session) {
	slices.SortStableFunc(sessions, func(a, b Session) int {
		return cmp.Compare(b.SortKey(), a.SortKey())
	})
}

// SortTemplates orders templates most recently updated first.
func SortTemplates(templates []Template) {
	slices.SortStableFunc(templates, func(a, b Template) int {
		return cmp.Compare(b.UpdatedAtMs, a.UpdatedAtMs)
	})
}
