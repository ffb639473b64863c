package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/blurtapp/blurt/pkg/cache"
)

// SaveFunc persists one session snapshot.
type SaveFunc func(ctx context.Context, sess *Session) error

// Saver persists session snapshots in the background so the interactive
// board never waits on storage.
//
// Saves of the same session run one at a time in submission order; while
// one is in flight only the newest queued snapshot is kept. Retryable
// failures are retried with the configured policy, and anything that still
// fails is logged and dropped.
type Saver struct {
	save   SaveFunc
	retry  cache.RetryPolicy
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*Session
	running map[string]bool
	onSaved func(sess *Session, err error)
}

// SaverOption configures a [Saver].
type SaverOption func(*Saver)

// WithRetryPolicy overrides [cache.DefaultRetry].
func WithRetryPolicy(p cache.RetryPolicy) SaverOption {
	return func(s *Saver) { s.retry = p }
}

// WithSaverLogger sets the logger used for failed saves.
func WithSaverLogger(l *log.Logger) SaverOption {
	return func(s *Saver) { s.logger = l }
}

// WithSaveResult registers a callback invoked after every save attempt
// finishes, on the saver's goroutine.
func WithSaveResult(fn func(sess *Session, err error)) SaverOption {
	return func(s *Saver) { s.onSaved = fn }
}

// NewSaver creates a saver that calls save for every snapshot.
func NewSaver(save SaveFunc, opts ...SaverOption) *Saver {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Saver{
		save:    save,
		retry:   cache.DefaultRetry,
		logger:  log.Default(),
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]*Session),
		running: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save queues a copy of sess and returns immediately.
func (s *Saver) Save(sess Session) {
	snapshot := sess.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	s.pending[snapshot.ID] = &snapshot
	if s.running[snapshot.ID] {
		return
	}
	s.running[snapshot.ID] = true
	s.wg.Add(1)
	go s.drain(snapshot.ID)
}

func (s *Saver) drain(id string) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		next := s.pending[id]
		delete(s.pending, id)
		if next == nil {
			delete(s.running, id)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		start := time.Now()
		err := s.retry.Do(s.ctx, func() error { return s.save(s.ctx, next) })
		if err != nil {
			s.logger.Warn("save session failed", "id", id, "notes", len(next.Notes), "err", err)
		} else {
			s.logger.Debug("saved session", "id", id, "notes", len(next.Notes), "took", time.Since(start))
		}
		if s.onSaved != nil {
			s.onSaved(next, err)
		}
	}
}

// Wait blocks until every queued snapshot has been handled or ctx ends.
func (s *Saver) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close waits up to timeout for queued saves, then abandons the rest.
func (s *Saver) Close(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := s.Wait(ctx)
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	return err
}
