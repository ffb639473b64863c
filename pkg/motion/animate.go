package motion

import "time"

// Frame describes one animation tick.
type Frame struct {
	// Progress is elapsed/duration clamped to [0, 1]. It is 1 for
	// non-positive durations.
	Progress float64

	// Elapsed is the time since the first frame.
	Elapsed time.Duration

	// Delta is the time since the previous frame. It is zero on the first.
	Delta time.Duration
}

// CancelFunc stops an animation. Calling it after the animation has finished
// or been cancelled does nothing.
type CancelFunc func()

// Animate calls onFrame once per frame until duration has elapsed, then calls
// onDone(true). Cancelling calls onDone(false) and no further frames run.
// onDone runs exactly once either way. The first frame fixes the start time,
// so an animation requested mid-frame starts at progress 0. Either callback
// may be nil.
func Animate(s Scheduler, duration time.Duration, onFrame func(Frame), onDone func(completed bool)) CancelFunc {
	var (
		handle  Handle
		started bool
		done    bool
		startAt time.Duration
		lastAt  time.Duration
	)

	finish := func(completed bool) {
		if done {
			return
		}
		done = true
		if onDone != nil {
			onDone(completed)
		}
	}

	var tick FrameFunc
	tick = func(now time.Duration) {
		if done {
			return
		}
		if !started {
			started = true
			startAt, lastAt = now, now
		}
		elapsed := now - startAt
		delta := now - lastAt
		lastAt = now

		progress := 1.0
		if duration > 0 {
			progress = min(1, float64(elapsed)/float64(duration))
		}
		if onFrame != nil {
			onFrame(Frame{Progress: progress, Elapsed: elapsed, Delta: delta})
		}
		if done {
			// onFrame cancelled us.
			return
		}
		if progress >= 1 {
			finish(true)
			return
		}
		handle = s.RequestFrame(tick)
	}

	handle = s.RequestFrame(tick)

	return func() {
		if done {
			return
		}
		s.Cancel(handle)
		finish(false)
	}
}
