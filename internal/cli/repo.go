package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/blurtapp/blurt/pkg/cache"
	"github.com/blurtapp/blurt/pkg/errors"
	"github.com/blurtapp/blurt/pkg/session"
)

// connectTimeout bounds the initial cloud connection.
const connectTimeout = 10 * time.Second

// workspace bundles the repository with the offline cache it owns.
type workspace struct {
	repo  *session.Repository
	cache cache.Cache
}

func (w *workspace) Close() error {
	err := w.repo.Close()
	if w.cache != nil {
		if cerr := w.cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// openWorkspace builds the repository for the configured storage mode and
// loads the session and template lists.
//
// A cloud store that cannot be reached leaves the repository offline, so
// cached lists stay readable while writes are refused.
func (c *CLI) openWorkspace(ctx context.Context) (*workspace, error) {
	logger := loggerFromContext(ctx)

	dataDir, err := c.cfg.DataDir()
	if err != nil {
		return nil, err
	}
	local, err := session.NewFileStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	ws := &workspace{}
	opts := session.RepositoryOptions{
		Mode:   c.cfg.Mode(),
		Local:  local,
		UserID: c.cfg.Cloud.UserID,
		Logger: logger,
	}

	if opts.Mode.CloudBacked() {
		ws.cache = c.openCache(ctx)
		opts.Offline = session.NewOffline(ws.cache)

		if c.cfg.Cloud.MongoURI == "" {
			logger.Warn("no mongo URI configured; using local storage", "mode", opts.Mode)
		} else {
			connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
			cloud, err := connectCloud(connectCtx, func(ctx context.Context) (*session.MongoStore, error) {
				return session.NewMongoStore(ctx, c.cfg.MongoOptions())
			})
			cancel()
			if err != nil {
				logger.Warn("cloud unavailable; working offline", "err", err)
				opts.Cloud = offlineBackend{}
				opts.StartOffline = true
			} else {
				opts.Cloud = cloud
			}
		}
	}

	ws.repo = session.NewRepository(opts)
	if err := ws.repo.Refresh(ctx); err != nil {
		logger.Warn("refresh", "err", err)
	}
	logger.Debug("repository ready", "mode", opts.Mode, "dir", local.Path(),
		"writable", !ws.repo.OfflineReadOnly())
	return ws, nil
}

// connectCloud calls connect until it succeeds, backing off between
// retryable failures.
func connectCloud(ctx context.Context, connect func(context.Context) (*session.MongoStore, error)) (*session.MongoStore, error) {
	var cloud *session.MongoStore
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		cloud, err = connect(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cloud, nil
}

// openCache opens the configured offline cache, falling back to no cache.
func (c *CLI) openCache(ctx context.Context) cache.Cache {
	opts, err := c.cfg.CacheOptions()
	if err == nil {
		var cc cache.Cache
		if cc, err = cache.Open(ctx, opts); err == nil {
			return cc
		}
	}
	loggerFromContext(ctx).Warn("offline cache disabled", "err", err)
	return cache.NewNullCache()
}

// offlineBackend stands in for a cloud store that could not be reached.
// The repository starts offline, so it only serves cached lists; a direct
// call still fails cleanly.
type offlineBackend struct{}

var errUnreachable = errors.New(errors.ErrCodeNetwork, "cloud store is unreachable")

func (offlineBackend) List(context.Context) ([]session.Session, error) { return nil, errUnreachable }
func (offlineBackend) Get(context.Context, string) (*session.Session, error) {
	return nil, errUnreachable
}
func (offlineBackend) Save(context.Context, *session.Session) error { return errUnreachable }
func (offlineBackend) Delete(context.Context, string) error         { return errUnreachable }
func (offlineBackend) Close() error                                 { return nil }
func (offlineBackend) ListTemplates(context.Context) ([]session.Template, error) {
	return nil, errUnreachable
}
func (offlineBackend) SaveTemplate(context.Context, session.Template) error { return errUnreachable }
func (offlineBackend) DeleteTemplate(context.Context, string) error         { return errUnreachable }
