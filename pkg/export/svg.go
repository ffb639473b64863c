package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/blurtapp/blurt/pkg/layout"
)

const (
	// pointsPerInch converts pixel sizes to Graphviz node sizes.
	pointsPerInch = 72.0

	svgFontName = "Helvetica"
)

// ToDOT describes the board as a Graphviz graph with every note pinned at its
// packed position. Graphviz's y axis points up, so rows are flipped. Two
// invisible corner nodes pin the drawing to the full board size.
func ToDOT(b Board) string {
	var buf bytes.Buffer
	buf.WriteString("graph board {\n")
	fmt.Fprintf(&buf, "  label=%s;\n", dotQuote(b.Title))
	buf.WriteString("  labelloc=t;\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", BackgroundColor)
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  notranslate=true;\n")
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fixedsize=true, fillcolor=%q, color=%q, fontcolor=%q, fontsize=%g, fontname=%q];\n",
		NoteColor, BorderColor, TextColor, fontSize, svgFontName)
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  %q [style=invis, shape=point, width=0, pos=\"0,0!\"];\n", "corner-min")
	fmt.Fprintf(&buf, "  %q [style=invis, shape=point, width=0, pos=\"%s,%s!\"];\n", "corner-max", num(b.Width), num(b.Height))

	for _, n := range b.Notes {
		h := layout.Height(n.Text)
		cx := n.X + layout.NoteWidth/2
		cy := b.Height - (n.Y + h/2)
		fmt.Fprintf(&buf, "  %s [label=%s, width=%s, height=%s, pos=\"%s,%s!\"];\n",
			dotQuote(n.ID),
			dotQuote(strings.Join(layout.Wrap(n.Text), "\n")+"\n"),
			num(layout.NoteWidth/pointsPerInch), num(h/pointsPerInch),
			num(cx), num(cy))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// dotQuote quotes s as a DOT string. Each line is left-justified.
func dotQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\l`)
	return `"` + r.Replace(s) + `"`
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG lays out a pinned DOT graph with neato and returns the SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one sized
// in pixels so the SVG scales like the PNG export.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
