package board

import (
	"time"

	"github.com/blurtapp/blurt/pkg/layout"
	"github.com/blurtapp/blurt/pkg/motion"
	"github.com/blurtapp/blurt/pkg/observability"
	"github.com/blurtapp/blurt/pkg/session"
)

// Finalize ends the session now. It completes the countdown if it is still
// running; the countdown's completion performs the finalization.
func (b *Board) Finalize() {
	if b.countdown != nil && !b.countdown.Complete() {
		b.countdown.StopEarly()
		return
	}
	b.finalize()
}

// MorphDurationFor is the total finalize morph time for n notes.
func MorphDurationFor(n int) time.Duration {
	return MorphDuration + time.Duration(max(0, n-1))*MorphStagger
}

// finalize packs the notes into the grid, morphs them there and reports the
// finished session. It runs at most once per session.
func (b *Board) finalize() {
	if b.finalized || b.closed {
		return
	}
	b.finalized = true
	b.finishing = true
	b.drag = nil
	b.samples = nil
	b.clearAnimations()
	clear(b.fx)

	start := session.CloneNotes(b.notes)
	arranged := layout.Pack(start, b.canvas.Width)
	summary := b.Summary()

	if b.reduced || len(start) == 0 {
		b.notes = arranged.Notes
		b.finish(summary)
		return
	}

	from := make(map[string]layout.Point, len(start))
	for _, n := range start {
		from[n.ID] = layout.Point{X: n.X, Y: n.Y}
	}

	var untrack func()
	cancel := motion.Animate(b.sched, MorphDurationFor(len(arranged.Notes)),
		func(f motion.Frame) {
			next := make([]session.Note, len(arranged.Notes))
			for i, target := range arranged.Notes {
				src, ok := from[target.ID]
				if !ok {
					src = layout.Point{X: target.X, Y: target.Y}
				}
				offset := time.Duration(i) * MorphStagger
				p := min(1, max(0, float64(f.Elapsed-offset)/float64(MorphDuration)))
				e := motion.EaseOutCubic(p)
				target.X = motion.Lerp(src.X, target.X, e)
				target.Y = motion.Lerp(src.Y, target.Y, e)
				next[i] = target
			}
			b.notes = next
		},
		func(completed bool) {
			untrack()
			if !completed {
				return
			}
			b.notes = arranged.Notes
			b.finish(summary)
		},
	)
	untrack = b.track(cancel)
}

// finish stamps the end time, persists the finished session and reports its
// summary.
func (b *Board) finish(summary session.Summary) {
	ended := b.now()
	endedMs := ended.UnixMilli()
	b.sess.EndedAtMs = &endedMs
	b.emit()

	elapsed := ended.Sub(time.UnixMilli(b.sess.StartedAtMs))
	observability.Board().OnFinalized(b.ctx, b.sess.ID, len(b.notes), elapsed)
	b.logger.Debug("session finalized", "id", b.sess.ID, "notes", summary.TotalNotes, "words", summary.TotalWords)

	if b.onFinish != nil {
		b.onFinish(summary)
	}
}
