package layout

import (
	"math"
	"strings"
	"unicode/utf8"
)

// LineCount estimates how many rendered lines text wraps into.
//
// Each explicit line is wrapped greedily at word boundaries with a budget of
// [CharsPerLine] characters; a blank explicit line counts as one line. Empty
// or whitespace-only text counts as a single line. Word length is measured in
// Unicode code points.
func LineCount(text string) int {
	return len(Wrap(text))
}

// Wrap splits text into the lines counted by [LineCount]. Runs of spaces
// inside a line collapse to one.
func Wrap(text string) []string {
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return []string{""}
	}

	var lines []string
	for _, line := range strings.Split(normalized, "\n") {
		lines = append(lines, wrapLine(line)...)
	}
	return lines
}

func wrapLine(line string) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		lines   []string
		current strings.Builder
		width   int
	)
	for _, word := range words {
		n := utf8.RuneCountInString(word)
		switch {
		case width == 0:
			current.WriteString(word)
			width = n
		case width+1+n <= CharsPerLine:
			current.WriteByte(' ')
			current.WriteString(word)
			width += 1 + n
		default:
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			width = n
		}
	}
	return append(lines, current.String())
}

// Span converts text to whole layout units, never less than one.
func Span(text string) int {
	return max(1, int(math.Ceil(float64(LineCount(text))/LinesPerUnit)))
}

// Height is the pixel height of a note holding text.
func Height(text string) float64 {
	return float64(Span(text)) * NoteBaseHeight
}
