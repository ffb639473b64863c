package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current on-disk and on-wire session schema.
const SchemaVersion = 1

// Default template values applied when a stored template omits them.
const (
	DefaultTemplateName     = "Template"
	DefaultDurationSec      = 300
	defaultRemainingDisplay = "Finished"
)

// Note is a single positioned blurt on the canvas.
// X and Y are the top-left corner in canvas-local pixels. Height is never
// stored; it is derived from Text by the layout package.
type Note struct {
	ID          string  `json:"id"`
	Text        string  `json:"text"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	CreatedAtMs int64   `json:"createdAtMs"`
}

// Session is one timed free-writing run. It owns its notes exclusively.
// A nil EndedAtMs means the session is still in progress.
type Session struct {
	ID            string `json:"id"`
	SchemaVersion int    `json:"schemaVersion,omitempty"`
	Title         string `json:"title"`
	Prompt        string `json:"prompt,omitempty"`
	DurationSec   int    `json:"durationSec"`
	StartedAtMs   int64  `json:"startedAtMs"`
	EndedAtMs     *int64 `json:"endedAtMs,omitempty"`
	Notes         []Note `json:"notes"`
}

// Summary is handed to the "session finished" collaborator.
type Summary struct {
	TotalNotes     int     `json:"totalNotes"`
	TotalWords     int     `json:"totalWords"`
	NotesPerMinute float64 `json:"notesPerMinute"`
}

// Template holds reusable defaults for starting a session.
type Template struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	TitleDefault       string `json:"titleDefault"`
	PromptDefault      string `json:"promptDefault,omitempty"`
	DurationSecDefault int    `json:"durationSecDefault"`
	UpdatedAtMs        int64  `json:"updatedAtMs"`
}

// New creates an in-progress session started at now.
func New(title, prompt string, durationSec int, now time.Time) *Session {
	return &Session{
		ID:            NewID(),
		SchemaVersion: SchemaVersion,
		Title:         title,
		Prompt:        prompt,
		DurationSec:   durationSec,
		StartedAtMs:   now.UnixMilli(),
		Notes:         []Note{},
	}
}

// NewID returns a fresh random identifier for sessions, notes and templates.
func NewID() string {
	return uuid.NewString()
}

// IsFinished reports whether the session has reached its terminal state.
func (s *Session) IsFinished() bool {
	return s != nil && s.EndedAtMs != nil
}

// SortKey orders sessions by their most recent activity.
func (s *Session) SortKey() int64 {
	if s.EndedAtMs != nil {
		return *s.EndedAtMs
	}
	return s.StartedAtMs
}

// Clone returns a deep copy whose notes may be mutated independently.
func (s Session) Clone() Session {
	out := s
	out.Notes = CloneNotes(s.Notes)
	if s.EndedAtMs != nil {
		ended := *s.EndedAtMs
		out.EndedAtMs = &ended
	}
	return out
}

// WithNotes returns a copy of s carrying notes.
func (s Session) WithNotes(notes []Note) Session {
	out := s.Clone()
	out.Notes = CloneNotes(notes)
	return out
}

// Normalize fills defaults for fields older schema versions left out.
func (s *Session) Normalize() {
	if s.SchemaVersion == 0 {
		s.SchemaVersion = SchemaVersion
	}
	if s.Notes == nil {
		s.Notes = []Note{}
	}
}

// Summary computes the end-of-session statistics.
func (s *Session) Summary() Summary {
	return Summarize(s.Notes, s.DurationSec)
}

// Summarize counts notes and words and derives the rate per minute,
// rounded to two decimals. A non-positive duration yields a zero rate.
func Summarize(notes []Note, durationSec int) Summary {
	words := 0
	for _, n := range notes {
		words += len(strings.Fields(n.Text))
	}
	sum := Summary{TotalNotes: len(notes), TotalWords: words}
	if durationSec > 0 {
		rate := float64(len(notes)) / (float64(durationSec) / 60)
		sum.NotesPerMinute = float64(int64(rate*100+0.5)) / 100
	}
	return sum
}

// FormatRemaining renders the time left as "MM:SS left", or "Finished".
func (s *Session) FormatRemaining(now time.Time) string {
	if s.EndedAtMs != nil {
		return defaultRemainingDisplay
	}
	elapsed := (now.UnixMilli() - s.StartedAtMs) / 1000
	remaining := max(0, int64(s.DurationSec)-elapsed)
	return fmt.Sprintf("%02d:%02d left", remaining/60, remaining%60)
}

// CloneNotes copies a note slice. A nil input yields an empty slice.
func CloneNotes(notes []Note) []Note {
	out := make([]Note, len(notes))
	copy(out, notes)
	return out
}

// Normalize fills defaults for template fields left empty.
func (t *Template) Normalize(now time.Time) {
	if t.Name == "" {
		t.Name = DefaultTemplateName
	}
	if t.DurationSecDefault <= 0 {
		t.DurationSecDefault = DefaultDurationSec
	}
	if t.UpdatedAtMs == 0 {
		t.UpdatedAtMs = now.UnixMilli()
	}
}
