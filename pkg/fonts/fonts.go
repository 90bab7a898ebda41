// Package fonts provides font faces for raster rendering.
//
// The default face is Go Mono, embedded in the binary through
// golang.org/x/image, so rendering works without any installed fonts. A
// system font (for example an OCR-B installation) can be selected by file
// name or path; it is located with go-findfont.
package fonts

import (
	"fmt"
	"os"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
)

// DefaultName is the name reported for the embedded face.
const DefaultName = "Go Mono"

// Set is a parsed font that hands out faces at arbitrary sizes. Faces are
// cached per size; a Set is safe for concurrent use.
type Set struct {
	name string
	ttf  *truetype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// Parsed embedded fonts (computed once on first access).
var (
	monoOnce, boldOnce sync.Once
	mono, bold         *truetype.Font
	monoErr, boldErr   error
)

// Default returns the embedded Go Mono set.
func Default() (*Set, error) {
	monoOnce.Do(func() { mono, monoErr = truetype.Parse(gomono.TTF) })
	if monoErr != nil {
		return nil, fmt.Errorf("parse embedded font: %w", monoErr)
	}
	return newSet(DefaultName, mono), nil
}

// DefaultBold returns the embedded Go Mono Bold set, used for titles.
func DefaultBold() (*Set, error) {
	boldOnce.Do(func() { bold, boldErr = truetype.Parse(gomonobold.TTF) })
	if boldErr != nil {
		return nil, fmt.Errorf("parse embedded font: %w", boldErr)
	}
	return newSet(DefaultName+" Bold", bold), nil
}

// Load returns the set for name. An empty name selects the embedded
// default. Otherwise name is tried as a path, then looked up among the
// system font directories.
func Load(name string) (*Set, error) {
	if name == "" {
		return Default()
	}
	path := name
	if _, err := os.Stat(path); err != nil {
		found, ferr := findfont.Find(name)
		if ferr != nil {
			return nil, fmt.Errorf("font %q: %w", name, ferr)
		}
		path = found
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return newSet(name, f), nil
}

// LoadOrDefault is Load that falls back to the embedded face. The returned
// error, if any, describes why the fallback was taken.
func LoadOrDefault(name string) (*Set, error) {
	s, err := Load(name)
	if err == nil {
		return s, nil
	}
	def, derr := Default()
	if derr != nil {
		return nil, derr
	}
	return def, err
}

func newSet(name string, f *truetype.Font) *Set {
	return &Set{name: name, ttf: f, faces: make(map[float64]font.Face)}
}

// Name returns the font's display name.
func (s *Set) Name() string { return s.name }

// Face returns a face at size points (72 DPI, so points equal pixels).
func (s *Set) Face(size float64) font.Face {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(s.ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	s.faces[size] = f
	return f
}
