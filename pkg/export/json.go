package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/blurtapp/blurt/pkg/layout"
)

type jsonBoard struct {
	Title  string     `json:"title"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Notes  []jsonNote `json:"notes"`
}

type jsonNote struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// WriteJSON encodes the packed board as indented JSON.
func WriteJSON(b Board, w io.Writer) error {
	out := jsonBoard{
		Title:  b.Title,
		Width:  b.Width,
		Height: b.Height,
		Notes:  make([]jsonNote, len(b.Notes)),
	}
	for i, n := range b.Notes {
		out.Notes[i] = jsonNote{
			ID:     n.ID,
			Text:   n.Text,
			X:      n.X,
			Y:      n.Y,
			Width:  layout.NoteWidth,
			Height: layout.Height(n.Text),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// EncodeJSON returns the output of [WriteJSON].
func EncodeJSON(b Board) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(b, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
