package session

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/blurtapp/blurt/pkg/errors"
)

// RepositoryOptions configures [NewRepository].
type RepositoryOptions struct {
	Mode StorageMode

	// Local is the file store. It is always required: it serves local mode
	// and cloud modes without a cloud store, and receives hybrid mirrors.
	Local Backend

	// Cloud is the remote store. When nil, cloud-backed modes behave as if
	// the cloud were unavailable.
	Cloud Backend

	// Offline holds per-user copies of cloud lists. Nil disables them.
	Offline *Offline

	UserID string

	// StartOffline begins without network access; see [Repository.SetOnline].
	StartOffline bool

	Now    func() time.Time
	Logger *log.Logger
}

// Repository routes session and template reads and writes to the right
// store for the storage mode, user and connectivity, and keeps the last
// loaded lists in memory.
//
// In cloud-backed modes without a signed-in user or network the repository
// is read-only and serves the offline copies.
type Repository struct {
	mode    StorageMode
	local   Backend
	cloud   Backend
	offline *Offline
	now     func() time.Time
	logger  *log.Logger

	mu        sync.Mutex
	userID    string
	online    bool
	sessions  []Session
	templates []Template
}

// NewRepository creates a repository. Call [Repository.Refresh] to load the
// initial lists.
func NewRepository(opts RepositoryOptions) *Repository {
	r := &Repository{
		mode:      opts.Mode,
		local:     opts.Local,
		cloud:     opts.Cloud,
		offline:   opts.Offline,
		now:       opts.Now,
		logger:    opts.Logger,
		userID:    opts.UserID,
		online:    !opts.StartOffline,
		sessions:  []Session{},
		templates: []Template{},
	}
	if r.mode == "" {
		r.mode = DefaultMode
	}
	if r.offline == nil {
		r.offline = NewOffline(nil)
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	if u, ok := r.cloud.(interface{ SetUser(string) }); ok && r.userID != "" {
		u.SetUser(r.userID)
	}
	return r
}

// Mode returns the configured storage mode.
func (r *Repository) Mode() StorageMode { return r.mode }

// CloudActive reports whether reads come from the cloud side.
func (r *Repository) CloudActive() bool {
	return r.mode.CloudBacked() && r.cloud != nil
}

// CloudWritable reports whether cloud writes are currently possible.
func (r *Repository) CloudWritable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cloudWritableLocked()
}

// OfflineReadOnly reports whether the repository only serves cached data.
func (r *Repository) OfflineReadOnly() bool {
	return r.CloudActive() && !r.CloudWritable()
}

func (r *Repository) cloudWritableLocked() bool {
	return r.CloudActive() && r.userID != "" && r.online
}

// SetOnline records a connectivity change.
func (r *Repository) SetOnline(online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online = online
}

// SetUser switches the signed-in user. An empty id signs out.
func (r *Repository) SetUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userID = userID
	if u, ok := r.cloud.(interface{ SetUser(string) }); ok {
		u.SetUser(userID)
	}
}

// UserID returns the signed-in user, if any.
func (r *Repository) UserID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userID
}

// cacheUser is the user whose offline copies are read: the signed-in user,
// or whoever was cached last.
func (r *Repository) cacheUser(ctx context.Context) string {
	if u := r.UserID(); u != "" {
		return u
	}
	return r.offline.LastUserID(ctx)
}

// Refresh reloads sessions and templates concurrently.
func (r *Repository) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := r.RefreshSessions(ctx)
		return err
	})
	g.Go(func() error {
		_, err := r.RefreshTemplates(ctx)
		return err
	})
	return g.Wait()
}

// RefreshSessions reloads the session list. On failure the offline copy is
// served and the error is returned alongside it.
func (r *Repository) RefreshSessions(ctx context.Context) ([]Session, error) {
	next, err := r.loadSessions(ctx)
	if err != nil {
		next = r.offline.Sessions(ctx, r.cacheUser(ctx))
		if r.CloudActive() {
			err = errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeNetwork), err, "session sync failed")
		} else {
			err = errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInternal), err, "local session load failed")
		}
	}

	r.mu.Lock()
	r.sessions = next
	r.mu.Unlock()
	return slices.Clone(next), err
}

func (r *Repository) loadSessions(ctx context.Context) ([]Session, error) {
	switch {
	case !r.CloudActive():
		return r.local.List(ctx)
	case r.OfflineReadOnly():
		return r.offline.Sessions(ctx, r.cacheUser(ctx)), nil
	}
	next, err := r.cloud.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.offline.CacheSessions(ctx, r.UserID(), next); err != nil {
		r.logger.Warn("cache sessions", "err", err)
	}
	return next, nil
}

// RefreshTemplates reloads the template list with the same fallback rules
// as [Repository.RefreshSessions].
func (r *Repository) RefreshTemplates(ctx context.Context) ([]Template, error) {
	next, err := r.loadTemplates(ctx)
	if err != nil {
		next = r.offline.Templates(ctx, r.cacheUser(ctx))
		if r.CloudActive() {
			err = errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeNetwork), err, "template sync failed")
		} else {
			err = errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInternal), err, "local template load failed")
		}
	}

	r.mu.Lock()
	r.templates = next
	r.mu.Unlock()
	return slices.Clone(next), err
}

func (r *Repository) loadTemplates(ctx context.Context) ([]Template, error) {
	switch {
	case !r.CloudActive():
		return r.local.ListTemplates(ctx)
	case r.OfflineReadOnly():
		return r.offline.Templates(ctx, r.cacheUser(ctx)), nil
	}
	next, err := r.cloud.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.offline.CacheTemplates(ctx, r.UserID(), next); err != nil {
		r.logger.Warn("cache templates", "err", err)
	}
	return next, nil
}

// Sessions returns the last loaded sessions, most recent activity first.
func (r *Repository) Sessions() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.sessions)
}

// Templates returns the last loaded templates.
func (r *Repository) Templates() []Template {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.templates)
}

// GetSession looks in memory first, then the offline copy or the store.
func (r *Repository) GetSession(ctx context.Context, id string) (*Session, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	i := slices.IndexFunc(r.sessions, func(s Session) bool { return s.ID == id })
	if i >= 0 {
		found := r.sessions[i].Clone()
		r.mu.Unlock()
		return &found, nil
	}
	r.mu.Unlock()

	var (
		sess *Session
		err  error
	)
	switch {
	case r.OfflineReadOnly():
		cached := r.offline.Sessions(ctx, r.cacheUser(ctx))
		if j := slices.IndexFunc(cached, func(s Session) bool { return s.ID == id }); j >= 0 {
			sess = &cached[j]
		}
	case r.CloudActive():
		sess, err = r.cloud.Get(ctx, id)
	default:
		sess, err = r.local.Get(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	return sess, nil
}

// Latest returns the session with the most recent activity.
func (r *Repository) Latest() (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) == 0 {
		return Session{}, false
	}
	best := r.sessions[0]
	for _, s := range r.sessions[1:] {
		if s.SortKey() > best.SortKey() {
			best = s
		}
	}
	return best.Clone(), true
}

// StartSession creates and persists a new in-progress session. The session
// is returned even when persisting fails.
func (r *Repository) StartSession(ctx context.Context, title, prompt string, durationSec int) (*Session, error) {
	if r.OfflineReadOnly() {
		return nil, errors.New(errors.ErrCodeReadOnly, "cloud sync is unavailable while offline or signed out")
	}
	if err := errors.ValidateTitle(title); err != nil {
		return nil, err
	}
	if err := errors.ValidateDuration(durationSec); err != nil {
		return nil, err
	}

	sess := New(strings.TrimSpace(title), strings.TrimSpace(prompt), durationSec, r.now())
	if err := r.SaveSession(ctx, sess); err != nil {
		return sess, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInternal), err, "session save failed")
	}
	return sess, nil
}

// SaveSession updates the in-memory list and persists sess. The local list
// keeps the new state even when persisting fails.
func (r *Repository) SaveSession(ctx context.Context, sess *Session) error {
	if err := errors.ValidateSessionID(sess.ID); err != nil {
		return err
	}
	snapshot := sess.Clone()
	snapshot.Normalize()

	r.mu.Lock()
	r.sessions = slices.DeleteFunc(r.sessions, func(s Session) bool { return s.ID == snapshot.ID })
	r.sessions = append(r.sessions, snapshot)
	SortByActivity(r.sessions)
	writable := r.cloudWritableLocked()
	userID := r.userID
	list := slices.Clone(r.sessions)
	r.mu.Unlock()

	switch {
	case !r.CloudActive():
		return r.local.Save(ctx, &snapshot)
	case !writable:
		return errors.New(errors.ErrCodeReadOnly, "cloud is read-only right now; reconnect and sign in to save changes")
	}

	if err := r.cloud.Save(ctx, &snapshot); err != nil {
		return err
	}
	if err := r.offline.CacheSessions(ctx, userID, list); err != nil {
		r.logger.Warn("cache sessions", "err", err)
	}
	r.mirror(func() error { return r.local.Save(ctx, &snapshot) }, "session", snapshot.ID)
	return nil
}

// SaveTemplate assigns an id when missing, stamps the update time and
// persists the template.
func (r *Repository) SaveTemplate(ctx context.Context, t Template) (Template, error) {
	if t.ID == "" {
		t.ID = NewID()
	}
	if err := errors.ValidateTemplateID(t.ID); err != nil {
		return t, err
	}
	t.UpdatedAtMs = r.now().UnixMilli()
	t.Normalize(r.now())

	r.mu.Lock()
	r.templates = slices.DeleteFunc(r.templates, func(x Template) bool { return x.ID == t.ID })
	r.templates = append(r.templates, t)
	SortTemplates(r.templates)
	writable := r.cloudWritableLocked()
	userID := r.userID
	list := slices.Clone(r.templates)
	r.mu.Unlock()

	switch {
	case !r.CloudActive():
		return t, r.local.SaveTemplate(ctx, t)
	case !writable:
		return t, errors.New(errors.ErrCodeReadOnly, "cloud is read-only right now; reconnect and sign in to save templates")
	}

	if err := r.cloud.SaveTemplate(ctx, t); err != nil {
		return t, err
	}
	if err := r.offline.CacheTemplates(ctx, userID, list); err != nil {
		r.logger.Warn("cache templates", "err", err)
	}
	r.mirror(func() error { return r.local.SaveTemplate(ctx, t) }, "template", t.ID)
	return t, nil
}

// DeleteTemplate removes a template from memory and the store.
func (r *Repository) DeleteTemplate(ctx context.Context, id string) error {
	r.mu.Lock()
	r.templates = slices.DeleteFunc(r.templates, func(x Template) bool { return x.ID == id })
	writable := r.cloudWritableLocked()
	r.mu.Unlock()

	switch {
	case !r.CloudActive():
		return r.local.DeleteTemplate(ctx, id)
	case !writable:
		return errors.New(errors.ErrCodeReadOnly, "cloud is read-only right now; reconnect and sign in to delete templates")
	}

	if err := r.cloud.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	r.mirror(func() error { return r.local.DeleteTemplate(ctx, id) }, "template", id)
	return nil
}

// mirror copies a cloud write to the local store in hybrid mode. Failures
// are logged and otherwise ignored.
func (r *Repository) mirror(write func() error, kind, id string) {
	if r.mode != ModeHybrid || r.local == nil {
		return
	}
	if err := write(); err != nil {
		r.logger.Warn("local mirror failed", "kind", kind, "id", id, "err", err)
	}
}

// Close closes the underlying stores.
func (r *Repository) Close() error {
	var errs []error
	if r.local != nil {
		errs = append(errs, r.local.Close())
	}
	if r.cloud != nil {
		errs = append(errs, r.cloud.Close())
	}
	return errors.Join(errs...)
}
