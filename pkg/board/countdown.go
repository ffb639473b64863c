package board

import (
	"time"

	"github.com/blurtapp/blurt/pkg/motion"
)

// Countdown is a one-second session timer on a [motion.Scheduler].
// Its completion callback fires at most once between resets.
type Countdown struct {
	sched      motion.Scheduler
	onComplete func()

	remaining int
	paused    bool
	complete  bool
	fired     bool
	ticking   bool
	timer     motion.Handle
}

// NewCountdown starts a countdown of seconds. onComplete may be nil.
func NewCountdown(s motion.Scheduler, seconds int, onComplete func()) *Countdown {
	c := &Countdown{sched: s, onComplete: onComplete}
	c.Reset(seconds)
	return c
}

// Remaining returns the whole seconds left.
func (c *Countdown) Remaining() int { return c.remaining }

// Paused reports whether the countdown is paused.
func (c *Countdown) Paused() bool { return c.paused }

// Complete reports whether the countdown has run out or was stopped early.
func (c *Countdown) Complete() bool { return c.complete }

// TogglePause pauses or resumes. A resumed countdown waits a full second
// before its next tick. It has no effect once complete.
func (c *Countdown) TogglePause() {
	if c.complete {
		return
	}
	c.paused = !c.paused
	if c.paused {
		c.halt()
		return
	}
	c.schedule()
}

// StopEarly completes the countdown immediately.
func (c *Countdown) StopEarly() {
	if c.complete {
		return
	}
	c.halt()
	c.remaining = 0
	c.paused = false
	c.complete = true
	c.fire()
}

// Reset restarts the countdown from seconds and re-arms completion.
func (c *Countdown) Reset(seconds int) {
	c.halt()
	c.remaining = seconds
	c.paused = false
	c.complete = false
	c.fired = false
	c.schedule()
}

// Stop cancels the pending tick without completing.
func (c *Countdown) Stop() { c.halt() }

func (c *Countdown) schedule() {
	c.ticking = true
	c.timer = c.sched.AfterFunc(time.Second, c.tick)
}

func (c *Countdown) halt() {
	if c.ticking {
		c.sched.Cancel(c.timer)
		c.ticking = false
	}
}

func (c *Countdown) tick() {
	c.ticking = false
	if c.remaining <= 1 {
		c.remaining = 0
		c.complete = true
		c.fire()
		return
	}
	c.remaining--
	c.schedule()
}

func (c *Countdown) fire() {
	if c.fired {
		return
	}
	c.fired = true
	if c.onComplete != nil {
		c.onComplete()
	}
}
