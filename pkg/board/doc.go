// Package board implements the interactive note canvas of a running session.
//
// A [Board] owns the note list of one session and applies every change to it
// as a whole-list read-modify-write, handing the resulting snapshot to the
// host's change callback. It never blocks and never waits on persistence.
//
// # Lifecycle
//
// While the countdown runs, new blurts are placed with [layout.Place] and fly
// in from the launch origin. Notes can be dragged at any time before the
// session finishes:
//
//	idle -> dragging -> (settling | inertia -> settling) -> idle
//
// When the countdown completes (or [Board.Finalize] is called) every running
// animation and settle timer is cancelled, the notes are packed with
// [layout.Pack] and morph into their grid slots, and the finished session and
// its [session.Summary] are reported.
//
// A board created for a session that has already finished is in review mode:
// notes can still be rearranged, releases settle without inertia, and each
// release persists the session again.
//
// # Time
//
// All motion runs on a [motion.Scheduler] supplied by the host, normally a
// [motion.Loop] advanced once per display frame. Wall-clock timestamps stored
// on notes and sessions come from [Options.Now].
//
// A Board is not safe for concurrent use; drive it from one goroutine.
package board
