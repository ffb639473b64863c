// Package export renders a whole session board to a static file.
//
// The board is packed with [layout.Pack] at the export width, independent of
// the live canvas, so the image always shows every note without overlap.
//
// # Formats
//
//   - png: raster image drawn with fogleman/gg
//   - svg: vector image laid out by Graphviz with pinned note positions
//   - dot: the Graphviz source of the svg export
//   - json: note boxes with their packed coordinates
//
// # Usage
//
//	b := export.Arrange(sess, 960)
//	data, err := export.Render(ctx, b, export.FormatPNG)
//	if err != nil {
//	    return err
//	}
//	return export.WriteFile(export.FileName(sess.Title, export.FormatPNG), data)
package export

import (
	"context"
	"regexp"
	"strings"

	"github.com/blurtapp/blurt/internal/atomicfile"
	"github.com/blurtapp/blurt/pkg/errors"
	"github.com/blurtapp/blurt/pkg/layout"
	"github.com/blurtapp/blurt/pkg/session"
)

// Format is an export file format.
type Format string

// Supported export formats.
const (
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ValidFormats is the set of supported export formats.
var ValidFormats = map[Format]bool{
	FormatPNG:  true,
	FormatSVG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatJSON:
		return "application/json"
	default:
		return "text/vnd.graphviz"
	}
}

// ParseFormat validates a format name, ignoring case and a leading dot.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	if !ValidFormats[f] {
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported export format %q (use png, svg, dot or json)", s)
	}
	return f, nil
}

// Board is a packed board ready to render.
type Board struct {
	Title  string
	Width  float64
	Height float64
	Notes  []session.Note
}

// Arrange packs the session's notes for a board of the given width.
// A non-positive width uses the default canvas width.
func Arrange(sess session.Session, width float64) Board {
	if width <= 0 {
		width = layout.DefaultCanvas.Width
	}
	arranged := layout.Pack(sess.Notes, width)
	return Board{
		Title:  sess.Title,
		Width:  width,
		Height: arranged.BoardHeight,
		Notes:  arranged.Notes,
	}
}

// Render encodes b in format f.
func Render(ctx context.Context, b Board, f Format) ([]byte, error) {
	switch f {
	case FormatPNG:
		return RenderPNG(b)
	case FormatSVG:
		return RenderSVG(ctx, ToDOT(b))
	case FormatDOT:
		return []byte(ToDOT(b)), nil
	case FormatJSON:
		return EncodeJSON(b)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported export format %q", f)
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// FileName is the download name of a full-board export.
func FileName(title string, f Format) string {
	if strings.TrimSpace(title) == "" {
		title = "untitled"
	}
	return whitespaceRe.ReplaceAllString(title, "_") + "_blurt_full." + string(f)
}

// WriteFile writes an export atomically.
func WriteFile(path string, data []byte) error {
	return atomicfile.Write(path, data, 0o644)
}
