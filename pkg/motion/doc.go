// Package motion provides the time-driven primitives behind canvas animation.
//
// # Clock model
//
// Nothing in this package reads the wall clock or starts goroutines. A host
// (a terminal UI, a test, a browser bridge) owns a [Loop] and calls
// [Loop.Advance] once per display refresh with its own monotonic time.
// Frame callbacks requested through [Scheduler.RequestFrame] run on the next
// Advance; timers registered with [Scheduler.AfterFunc] run on the first
// Advance at or after their due time. Everything therefore executes on the
// host's goroutine, one callback at a time.
//
// # Animations
//
// [Animate] drives a callback on every frame for a fixed duration and
// reports completion or cancellation exactly once. A [Group] collects the
// cancel functions of in-flight animations so an owner can tear them all
// down at once.
//
//	cancel := motion.Animate(loop, 220*time.Millisecond,
//	    func(f motion.Frame) { v = motion.StepVelocity(v, 7.5, f.Delta) },
//	    func(completed bool) { ... },
//	)
//
// [EaseOutCubic] and [EaseOutQuint] shape linear progress.
// [StepVelocity] applies per-frame exponential decay; because it is applied
// per tick, total travel depends on frame granularity.
package motion
