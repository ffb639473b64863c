package board

import (
	"slices"

	"github.com/blurtapp/blurt/pkg/layout"
	"github.com/blurtapp/blurt/pkg/motion"
	"github.com/blurtapp/blurt/pkg/session"
)

// launch hides note and flies a ghost from the launch origin to it along a
// quadratic curve.
func (b *Board) launch(note session.Note) {
	start := b.launchOrigin()
	target := layout.Point{X: note.X, Y: note.Y}
	control := layout.Point{
		X: (start.X + target.X) / 2,
		Y: min(start.Y, target.Y) - launchLift,
	}

	b.hidden[note.ID] = true
	b.ghosts = append(b.ghosts, Ghost{
		ID:      note.ID,
		Text:    note.Text,
		Pos:     start,
		Scale:   1,
		Opacity: 0.92,
	})

	var untrack func()
	cancel := motion.Animate(b.sched, LaunchDuration,
		func(f motion.Frame) {
			e := motion.EaseOutQuint(f.Progress)
			b.updateGhost(note.ID, func(g *Ghost) {
				g.Pos = quadratic(start, control, target, e)
				g.Scale = 1 - 0.08*e
				g.Opacity = 0.92 - 0.3*e
				g.Blur = 2.5 * e
			})
		},
		func(completed bool) {
			untrack()
			delete(b.launches, note.ID)
			b.ghosts = slices.DeleteFunc(b.ghosts, func(g Ghost) bool { return g.ID == note.ID })
			delete(b.hidden, note.ID)
			if completed {
				b.landed(note.ID)
			}
		},
	)
	untrack = b.track(cancel)
	b.launches[note.ID] = cancel
}

func (b *Board) updateGhost(id string, update func(*Ghost)) {
	if i := slices.IndexFunc(b.ghosts, func(g Ghost) bool { return g.ID == id }); i >= 0 {
		update(&b.ghosts[i])
	}
}

// quadratic evaluates the Bézier curve through p0, p1, p2 at t.
func quadratic(p0, p1, p2 layout.Point, t float64) layout.Point {
	u := 1 - t
	return layout.Point{
		X: u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
		Y: u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
	}
}
