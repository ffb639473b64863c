package layout

import (
	"math"

	"github.com/blurtapp/blurt/pkg/session"
)

// Arrangement is the result of packing a board.
type Arrangement struct {
	Notes       []session.Note
	BoardHeight float64
}

// Columns returns how many note columns fit in a canvas of the given width,
// never fewer than one.
func Columns(canvasWidth float64) int {
	usable := max(1, canvasWidth-Padding*2)
	return max(1, int(math.Floor((usable+Gap)/(NoteWidth+Gap))))
}

// Pack arranges notes into a dense grid without overlap.
//
// Notes are taken in order; each claims the first column, scanning rows
// downward from the top and columns left to right, whose next [Span] cells
// are all free. The input slice is not modified. BoardHeight is the bottom of
// the lowest note plus [Padding], but never less than [MinCanvasHeight].
func Pack(notes []session.Note, canvasWidth float64) Arrangement {
	grid := newOccupancy(Columns(canvasWidth))
	arranged := make([]session.Note, len(notes))

	for i, n := range notes {
		span := Span(n.Text)
		row, column := grid.claim(span)
		n.X = Padding + float64(column)*(NoteWidth+Gap)
		n.Y = Padding + float64(row)*(NoteBaseHeight+Gap)
		arranged[i] = n
	}

	maxBottom := 0.0
	for _, n := range arranged {
		maxBottom = max(maxBottom, n.Y+Height(n.Text))
	}

	return Arrangement{
		Notes:       arranged,
		BoardHeight: max(MinCanvasHeight, maxBottom+Padding),
	}
}

// occupancy is a lazily grown row-major grid of claimed cells.
type occupancy struct {
	columns int
	rows    [][]bool
}

func newOccupancy(columns int) *occupancy {
	return &occupancy{columns: columns}
}

func (o *occupancy) ensureRow(row int) {
	for len(o.rows) <= row {
		o.rows = append(o.rows, make([]bool, o.columns))
	}
}

func (o *occupancy) free(row, column, span int) bool {
	for r := row; r < row+span; r++ {
		o.ensureRow(r)
		if o.rows[r][column] {
			return false
		}
	}
	return true
}

func (o *occupancy) mark(row, column, span int) {
	for r := row; r < row+span; r++ {
		o.ensureRow(r)
		o.rows[r][column] = true
	}
}

// claim finds and marks the first free run of span cells.
// Rows beyond the current grid are always free, so the scan terminates.
func (o *occupancy) claim(span int) (row, column int) {
	for row = 0; ; row++ {
		for column = 0; column < o.columns; column++ {
			if o.free(row, column, span) {
				o.mark(row, column, span)
				return row, column
			}
		}
	}
}
