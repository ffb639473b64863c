package layout

import (
	"math"
	"math/rand/v2"

	"github.com/blurtapp/blurt/pkg/session"
)

const (
	// PlacementNoteHeight is the collision height used by [Place]. It is
	// deliberately independent of the text estimate.
	PlacementNoteHeight = 72.0

	// MaxPlacementAttempts bounds the random search before falling back.
	MaxPlacementAttempts = 120

	fallbackGap = 8.0
)

// Place picks a top-left position for a new note on a canvas that already
// holds existing.
//
// Up to [MaxPlacementAttempts] uniformly random candidates inside the padded
// canvas are tried; the first whose box misses every existing box wins.
// Otherwise the note goes to grid slot len(existing), counted left to right
// and top to bottom, clamped into the canvas. A nil rng uses the global
// generator.
func Place(canvas Size, existing []session.Note, rng *rand.Rand) Point {
	minX, minY := Padding, Padding
	maxX := max(Padding, canvas.Width-NoteWidth-Padding)
	maxY := max(Padding, canvas.Height-PlacementNoteHeight-Padding)

	next := rand.Float64
	if rng != nil {
		next = rng.Float64
	}

	for range MaxPlacementAttempts {
		candidate := Point{
			X: math.Floor(next()*(maxX-minX+1) + minX),
			Y: math.Floor(next()*(maxY-minY+1) + minY),
		}
		if !collides(candidate, existing) {
			return candidate
		}
	}

	return FallbackSlot(canvas, len(existing))
}

// FallbackSlot is the deterministic position of the index-th note when random
// placement gives up.
func FallbackSlot(canvas Size, index int) Point {
	maxX := max(Padding, canvas.Width-NoteWidth-Padding)
	maxY := max(Padding, canvas.Height-PlacementNoteHeight-Padding)
	columns := FallbackColumns(canvas.Width)
	row, column := index/columns, index%columns
	return Point{
		X: min(maxX, Padding+float64(column)*(NoteWidth+fallbackGap)),
		Y: min(maxY, Padding+float64(row)*(PlacementNoteHeight+fallbackGap)),
	}
}

// FallbackColumns is the number of fallback slots per row, at least one.
func FallbackColumns(canvasWidth float64) int {
	return max(1, int(math.Floor((canvasWidth-Padding*2)/(NoteWidth+fallbackGap))))
}

func collides(p Point, existing []session.Note) bool {
	candidate := placementRect(p.X, p.Y)
	for _, n := range existing {
		if candidate.Intersects(placementRect(n.X, n.Y)) {
			return true
		}
	}
	return false
}

func placementRect(x, y float64) Rect {
	return Rect{Left: x, Top: y, Right: x + NoteWidth, Bottom: y + PlacementNoteHeight}
}
