package board

import (
	"math"
	"time"

	"github.com/blurtapp/blurt/pkg/layout"
	"github.com/blurtapp/blurt/pkg/motion"
	"github.com/blurtapp/blurt/pkg/observability"
)

type dragState struct {
	id     string
	offset layout.Point
	height float64
}

type sample struct {
	pos layout.Point
	at  time.Duration
}

// dragBlocked reports whether pointer input should be ignored.
func (b *Board) dragBlocked() bool {
	if b.closed {
		return true
	}
	if b.review {
		return false
	}
	return b.finishing || (b.countdown != nil && b.countdown.Complete())
}

// PointerDown starts dragging the note with id. pointer is the canvas-local
// pointer position; the note keeps its offset to it while dragging. A drag
// still in progress is settled in place first.
func (b *Board) PointerDown(id string, pointer layout.Point) bool {
	if b.dragBlocked() {
		return false
	}
	if b.drag != nil {
		prev := b.drag.id
		b.drag, b.samples = nil, nil
		if b.index(prev) >= 0 {
			b.setEffects(prev, func(fx *Effects) { fx.Dragging = false })
			b.rest(prev, false)
		}
	}
	i := b.index(id)
	if i < 0 {
		return false
	}
	if cancel, ok := b.inertia[id]; ok {
		cancel()
	}

	note := b.notes[i]
	pos := layout.Point{X: note.X, Y: note.Y}
	b.drag = &dragState{
		id:     id,
		offset: pointer.Sub(pos),
		height: layout.Height(note.Text),
	}
	b.samples = []sample{{pos: pos, at: b.pointer()}}
	b.setEffects(id, func(fx *Effects) { *fx = Effects{Dragging: true} })
	return true
}

// PointerMove moves the dragged note under the pointer, kept inside the
// canvas.
func (b *Board) PointerMove(pointer layout.Point) {
	if b.drag == nil || b.dragBlocked() {
		return
	}
	i := b.index(b.drag.id)
	if i < 0 {
		b.drag = nil
		return
	}

	pos := layout.Clamp(pointer.Sub(b.drag.offset), b.canvas, b.drag.height)
	now := b.pointer()
	b.samples = append(b.samples, sample{pos: pos, at: now})
	kept := b.samples[:0]
	for _, s := range b.samples {
		if now-s.at <= sampleWindow {
			kept = append(kept, s)
		}
	}
	b.samples = kept

	b.notes[i].X, b.notes[i].Y = pos.X, pos.Y
}

// PointerUp releases the dragged note. A fast release glides on with
// inertia; anything else settles in place. Either way the notes are
// persisted once the note comes to rest.
func (b *Board) PointerUp() {
	if b.drag == nil || b.dragBlocked() {
		b.drag = nil
		return
	}
	drag := *b.drag
	b.drag = nil
	samples := b.samples
	b.samples = nil
	b.setEffects(drag.id, func(fx *Effects) { fx.Dragging = false })

	if b.review || b.reduced || len(samples) < 2 {
		b.rest(drag.id, false)
		return
	}

	v, ok := releaseVelocity(samples)
	if !ok || math.Hypot(v.X, v.Y) < InertiaMinSpeed {
		b.rest(drag.id, false)
		return
	}
	b.glide(drag, v)
}

// releaseVelocity measures px/s between the latest sample and the newest
// one at least anchorAge older, or the oldest sample if none is. It reports
// false when no time elapsed between the two.
func releaseVelocity(samples []sample) (layout.Point, bool) {
	latest := samples[len(samples)-1]
	anchor := samples[0]
	for i := len(samples) - 1; i >= 0; i-- {
		if latest.at-samples[i].at >= anchorAge {
			anchor = samples[i]
			break
		}
	}
	if latest.at <= anchor.at {
		return layout.Point{}, false
	}
	dt := (latest.at - anchor.at).Seconds()
	d := latest.pos.Sub(anchor.pos)
	return layout.Point{X: d.X / dt, Y: d.Y / dt}, true
}

// glide runs the inertia animation for a released note.
func (b *Board) glide(drag dragState, v layout.Point) {
	id := drag.id
	b.setEffects(id, func(fx *Effects) { fx.Inertia = true })

	var untrack func()
	cancel := motion.Animate(b.sched, InertiaDuration,
		func(f motion.Frame) {
			v.X = motion.StepVelocity(v.X, InertiaFriction, f.Delta)
			v.Y = motion.StepVelocity(v.Y, InertiaFriction, f.Delta)
			i := b.index(id)
			if i < 0 {
				return
			}
			dt := f.Delta.Seconds()
			next := layout.Point{X: b.notes[i].X + v.X*dt, Y: b.notes[i].Y + v.Y*dt}
			pos := layout.Clamp(next, b.canvas, drag.height)
			b.notes[i].X, b.notes[i].Y = pos.X, pos.Y
		},
		func(completed bool) {
			untrack()
			delete(b.inertia, id)
			b.setEffects(id, func(fx *Effects) { fx.Inertia = false })
			if completed {
				b.rest(id, true)
			}
		},
	)
	untrack = b.track(cancel)
	b.inertia[id] = cancel
}

// rest settles a note that stopped moving and persists the notes.
func (b *Board) rest(id string, afterInertia bool) {
	b.settle(id)
	b.emit()
	observability.Board().OnDragReleased(b.ctx, b.sess.ID, id, afterInertia)
}
