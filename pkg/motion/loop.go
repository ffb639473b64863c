package motion

import (
	"cmp"
	"slices"
	"time"
)

// Handle identifies a pending frame request or timer.
type Handle uint64

// FrameFunc receives the host time of the frame being drawn.
type FrameFunc func(now time.Duration)

// Scheduler delivers frame callbacks and timers on a host-driven clock.
type Scheduler interface {
	// RequestFrame runs fn on the next frame.
	RequestFrame(fn FrameFunc) Handle

	// AfterFunc runs fn on the first frame at least d from now.
	AfterFunc(d time.Duration, fn func()) Handle

	// Cancel drops a pending request. Unknown or spent handles are ignored.
	Cancel(h Handle)

	// Now returns the time of the most recent frame.
	Now() time.Duration
}

type entry struct {
	handle Handle
	due    time.Duration
	frame  FrameFunc
	timer  func()
}

// Loop is a [Scheduler] advanced explicitly by its owner.
// It is not safe for concurrent use.
type Loop struct {
	now    time.Duration
	next   Handle
	frames []entry
	timers []entry
	live   map[Handle]struct{}
}

// NewLoop creates an idle loop at time zero.
func NewLoop() *Loop {
	return &Loop{live: make(map[Handle]struct{})}
}

// Now returns the time passed to the latest Advance.
func (l *Loop) Now() time.Duration { return l.now }

// RequestFrame implements [Scheduler].
func (l *Loop) RequestFrame(fn FrameFunc) Handle {
	h := l.register()
	l.frames = append(l.frames, entry{handle: h, frame: fn})
	return h
}

// AfterFunc implements [Scheduler].
func (l *Loop) AfterFunc(d time.Duration, fn func()) Handle {
	h := l.register()
	l.timers = append(l.timers, entry{handle: h, due: l.now + max(0, d), timer: fn})
	return h
}

// Cancel implements [Scheduler].
func (l *Loop) Cancel(h Handle) {
	delete(l.live, h)
}

// Pending reports how many frame requests and timers are still scheduled.
func (l *Loop) Pending() int { return len(l.live) }

// Step advances the loop by d.
func (l *Loop) Step(d time.Duration) { l.Advance(l.now + d) }

// Advance moves the clock to now and runs due timers, then the frame
// callbacks requested before this call. Work scheduled by those callbacks
// waits for the next Advance. Time never runs backwards; an earlier now is
// treated as the current time.
func (l *Loop) Advance(now time.Duration) {
	l.now = max(l.now, now)

	var due, waiting []entry
	for _, t := range l.timers {
		if _, ok := l.live[t.handle]; !ok {
			continue
		}
		if t.due <= l.now {
			due = append(due, t)
		} else {
			waiting = append(waiting, t)
		}
	}
	l.timers = waiting
	slices.SortStableFunc(due, func(a, b entry) int {
		if c := cmp.Compare(a.due, b.due); c != 0 {
			return c
		}
		return cmp.Compare(a.handle, b.handle)
	})
	for _, t := range due {
		if l.consume(t.handle) {
			t.timer()
		}
	}

	frames := l.frames
	l.frames = nil
	for _, f := range frames {
		if l.consume(f.handle) {
			f.frame(l.now)
		}
	}
}

func (l *Loop) register() Handle {
	l.next++
	l.live[l.next] = struct{}{}
	return l.next
}

func (l *Loop) consume(h Handle) bool {
	if _, ok := l.live[h]; !ok {
		return false
	}
	delete(l.live, h)
	return true
}

var _ Scheduler = (*Loop)(nil)
