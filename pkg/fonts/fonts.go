// Package fonts provides the font used to draw note text in exported images.
//
// The Go Regular face from golang.org/x/image is compiled into the binary, so
// exports look the same on every machine.
package fonts

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// RegularTTF returns the TTF font data.
func RegularTTF() []byte {
	return goregular.TTF
}

var (
	parsed     *truetype.Font
	parsedErr  error
	parsedOnce sync.Once
)

// Regular returns the parsed font. The result is cached after first use.
func Regular() (*truetype.Font, error) {
	parsedOnce.Do(func() {
		parsed, parsedErr = truetype.Parse(goregular.TTF)
		if parsedErr != nil {
			parsedErr = fmt.Errorf("parse font: %w", parsedErr)
		}
	})
	return parsed, parsedErr
}

// Face returns a face of the regular font at size points and 72 DPI.
func Face(size float64) (font.Face, error) {
	f, err := Regular()
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
