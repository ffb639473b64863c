package layout

// Canvas geometry shared by placement, packing and drag clamping.
const (
	NoteWidth       = 220.0
	NoteBaseHeight  = 110.0
	LinesPerUnit    = 4
	Gap             = 12.0
	Padding         = 20.0
	MinCanvasHeight = 460.0

	// CharsPerLine is the wrap budget used by the height estimate.
	CharsPerLine = 24
)

// DefaultCanvas is assumed when the host has not reported a canvas size.
var DefaultCanvas = Size{Width: 960, Height: MinCanvasHeight}

// Point is a canvas-local pixel coordinate.
type Point struct {
	X, Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Size is a canvas extent in pixels.
type Size struct {
	Width, Height float64
}

// Rect is an axis-aligned box. Top is the smaller Y value.
type Rect struct {
	Left, Top     float64
	Right, Bottom float64
}

// Intersects reports whether r and o share interior area.
// Rects that only touch along an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return !(r.Right <= o.Left || o.Right <= r.Left || r.Bottom <= o.Top || o.Bottom <= r.Top)
}

// NoteRect is the bounding box of a note at (x, y) using the text-derived height.
func NoteRect(x, y float64, text string) Rect {
	return Rect{Left: x, Top: y, Right: x + NoteWidth, Bottom: y + Height(text)}
}

// Clamp keeps a note's top-left corner inside the canvas so that a note of
// noteHeight stays fully visible. Canvases smaller than the note pin it to 0.
func Clamp(p Point, canvas Size, noteHeight float64) Point {
	return Point{
		X: max(0, min(canvas.Width-NoteWidth, p.X)),
		Y: max(0, min(canvas.Height-noteHeight, p.Y)),
	}
}
