package session

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/blurtapp/blurt/pkg/cache"
)

func TestSaverCoalescesPendingSnapshots(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var (
		mu    sync.Mutex
		saved []int
	)
	save := func(_ context.Context, s *Session) error {
		if len(s.Notes) == 1 {
			close(started)
			<-release
		}
		mu.Lock()
		saved = append(saved, len(s.Notes))
		mu.Unlock()
		return nil
	}
	s := NewSaver(save, WithSaverLogger(quietLogger))

	sess := Session{ID: "s1", Notes: []Note{{ID: "n1"}}}
	s.Save(sess)
	<-started
	for i := 2; i <= 4; i++ {
		sess.Notes = append(sess.Notes, Note{ID: NewID()})
		s.Save(sess)
	}
	close(release)

	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(saved) != 2 || saved[0] != 1 || saved[1] != 4 {
		t.Errorf("saved snapshots = %v, want [1 4]", saved)
	}
}

func TestSaverSnapshotIsIsolated(t *testing.T) {
	got := make(chan string, 1)
	s := NewSaver(func(_ context.Context, sess *Session) error {
		got <- sess.Notes[0].Text
		return nil
	}, WithSaverLogger(quietLogger))

	sess := Session{ID: "s1", Notes: []Note{{ID: "n", Text: "before"}}}
	s.Save(sess)
	sess.Notes[0].Text = "after"

	if text := <-got; text != "before" {
		t.Errorf("saved text = %q, want before", text)
	}
	_ = s.Close(time.Second)
}

func TestSaverRetriesRetryableErrors(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts int
		results  []error
	)
	save := func(context.Context, *Session) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return cache.Retryable(stderrors.New("flaky"))
		}
		return nil
	}
	s := NewSaver(save,
		WithSaverLogger(quietLogger),
		WithRetryPolicy(cache.RetryPolicy{Attempts: 3, Delay: time.Millisecond}),
		WithSaveResult(func(_ *Session, err error) {
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}),
	)
	s.Save(Session{ID: "s1"})
	if err := s.Close(5 * time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(results) != 1 || results[0] != nil {
		t.Errorf("results = %v, want one success", results)
	}
}

func TestSaverReportsPermanentFailure(t *testing.T) {
	boom := stderrors.New("disk full")
	var (
		mu    sync.Mutex
		calls int
		last  error
	)
	s := NewSaver(func(context.Context, *Session) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return boom
	},
		WithSaverLogger(quietLogger),
		WithRetryPolicy(cache.RetryPolicy{Attempts: 3, Delay: time.Millisecond}),
		WithSaveResult(func(_ *Session, err error) {
			mu.Lock()
			last = err
			mu.Unlock()
		}),
	)
	s.Save(Session{ID: "s1"})
	if err := s.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1 for a non-retryable error", calls)
	}
	if !stderrors.Is(last, boom) {
		t.Errorf("result error = %v, want %v", last, boom)
	}
}

func TestSaverIgnoresSavesAfterClose(t *testing.T) {
	calls := 0
	s := NewSaver(func(context.Context, *Session) error {
		calls++
		return nil
	}, WithSaverLogger(quietLogger))
	if err := s.Close(time.Second); err != nil {
		t.Fatal(err)
	}
	s.Save(Session{ID: "late"})
	if err := s.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}
