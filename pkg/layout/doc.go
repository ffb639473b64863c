// Package layout positions notes on the blurt canvas.
//
// # Overview
//
// Three pure algorithms share one set of geometry constants:
//
//   - [LineCount], [Span] and [Height] estimate how tall a note renders from
//     its text alone. Height is never stored on a note.
//   - [Place] drops a freshly created note at a random free spot, falling
//     back to a deterministic grid slot when the canvas is crowded.
//   - [Pack] arranges every note into a gapless multi-column grid. It runs
//     when a session ends and when the full board is exported.
//
// # Geometry
//
// Notes are [NoteWidth] pixels wide. Their height is a whole number of
// layout units: [Span] units of [NoteBaseHeight] pixels each, where one unit
// holds [LinesPerUnit] wrapped lines of roughly [CharsPerLine] characters.
// [Padding] surrounds the board and [Gap] separates packed notes.
//
// The placement solver checks collisions with the fixed [PlacementNoteHeight]
// rather than the text estimate, so a randomly placed note may touch a tall
// neighbour. Packing and drag clamping use the estimate.
//
// # Determinism
//
// [Pack] depends only on note order, note text and canvas width. [Place]
// draws from the *rand.Rand it is given, so seeded generators reproduce the
// same positions.
package layout
