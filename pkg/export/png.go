package export

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"

	"github.com/blurtapp/blurt/pkg/fonts"
	"github.com/blurtapp/blurt/pkg/layout"
)

// Colors of the exported board.
const (
	BackgroundColor = "#f7f8fc"
	NoteColor       = "#fffef5"
	BorderColor     = "#d9dce8"
	TextColor       = "#1f2430"
)

const (
	fontSize    = 14.0
	lineHeight  = 18.0
	textInset   = 12.0
	noteRadius  = 10.0
	borderWidth = 1.0
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale float64
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// RenderPNG draws the board with every note's wrapped text.
func RenderPNG(b Board, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 2.0}
	for _, opt := range opts {
		opt(&r)
	}

	face, err := fonts.Face(fontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	dc := gg.NewContext(int(b.Width*r.scale), int(b.Height*r.scale))
	dc.Scale(r.scale, r.scale)
	dc.SetHexColor(BackgroundColor)
	dc.Clear()
	dc.SetFontFace(face)
	dc.SetLineWidth(borderWidth)

	for _, n := range b.Notes {
		h := layout.Height(n.Text)
		dc.DrawRoundedRectangle(n.X, n.Y, layout.NoteWidth, h, noteRadius)
		dc.SetHexColor(NoteColor)
		dc.FillPreserve()
		dc.SetHexColor(BorderColor)
		dc.Stroke()

		dc.SetHexColor(TextColor)
		for i, line := range layout.Wrap(n.Text) {
			y := n.Y + textInset + fontSize + float64(i)*lineHeight
			if y > n.Y+h-textInset/2 {
				break
			}
			dc.DrawString(line, n.X+textInset, y)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
