package layout

import (
	"strings"
	"testing"
)

func TestLineCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 1},
		{"whitespace only", "  \t \n  ", 1},
		{"single word", "hello", 1},
		{"exactly at budget", "aaaaaaaaaaa bbbbbbbbbbbb", 1},
		{"one over budget", "aaaaaaaaaaa bbbbbbbbbbbbb", 2},
		{"long word is not split", strings.Repeat("x", 60), 1},
		{"explicit lines", "a\nb\nc", 3},
		{"blank explicit line counts", "a\n\nb", 3},
		{"surrounding whitespace trimmed", "\n\nhello\n\n", 1},
		{"wrap inside explicit line", "the quick brown fox jumps over the lazy dog\nend", 3},
		{"astral characters count once", strings.Repeat("😀", 11) + " " + strings.Repeat("😀", 12), 1},
		{"accented letters count once", strings.Repeat("é", 11) + " " + strings.Repeat("é", 12), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LineCount(tt.text); got != tt.want {
				t.Errorf("LineCount(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestSpanAndHeight(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantSpan int
	}{
		{"empty", "", 1},
		{"four lines", "a\nb\nc\nd", 1},
		{"five lines", "a\nb\nc\nd\ne", 2},
		{"eight lines", "a\nb\nc\nd\ne\nf\ng\nh", 2},
		{"nine lines", "a\nb\nc\nd\ne\nf\ng\nh\ni", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Span(tt.text); got != tt.wantSpan {
				t.Errorf("Span(%q) = %d, want %d", tt.text, got, tt.wantSpan)
			}
			wantHeight := float64(tt.wantSpan) * NoteBaseHeight
			if got := Height(tt.text); got != wantHeight {
				t.Errorf("Height(%q) = %v, want %v", tt.text, got, wantHeight)
			}
		})
	}
}

func TestHeightMonotonic(t *testing.T) {
	texts := []string{
		"",
		"short",
		"a sentence that wraps onto a second line",
		"one\ntwo\nthree\nfour",
		"one\ntwo\nthree\nfour\nfive",
		strings.Repeat("word ", 40),
		strings.Repeat("line\n", 12),
	}

	for _, a := range texts {
		for _, b := range texts {
			if LineCount(a) > LineCount(b) && Height(a) < Height(b) {
				t.Errorf("Height(%q)=%v < Height(%q)=%v despite more lines", a, Height(a), b, Height(b))
			}
		}
	}
}

func TestWrap(t *testing.T) {
	got := Wrap("the quick brown fox jumps over the lazy dog\n\n  end  ")
	want := []string{"the quick brown fox", "jumps over the lazy dog", "", "end"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
	if got := Wrap("   "); len(got) != 1 || got[0] != "" {
		t.Errorf("Wrap(blank) = %q", got)
	}
}
