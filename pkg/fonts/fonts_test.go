package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

func TestDefault(t *testing.T) {
	s, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	if s.Name() != DefaultName {
		t.Errorf("Name() = %q, want %q", s.Name(), DefaultName)
	}

	face := s.Face(36)
	if face != s.Face(36) {
		t.Error("Face() should cache faces per size")
	}
	w := font.MeasureString(face, "<")
	if w <= 0 {
		t.Errorf("MeasureString(<) = %v, want positive", w)
	}
	// Monospace: every glyph has the same advance.
	if font.MeasureString(face, "W") != w {
		t.Error("default face is not monospace")
	}
}

func TestDefaultBold(t *testing.T) {
	if _, err := DefaultBold(); err != nil {
		t.Fatalf("DefaultBold() error: %v", err)
	}
}

func TestLoadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.ttf")
	if err := os.WriteFile(path, gomono.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%s) error: %v", path, err)
	}
	if s.Name() != path {
		t.Errorf("Name() = %q, want %q", s.Name(), path)
	}
}

func TestLoadEmptyIsDefault(t *testing.T) {
	s, err := Load("")
	if err != nil || s.Name() != DefaultName {
		t.Errorf("Load(\"\") = %v, %v; want default", s, err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	s, err := LoadOrDefault("definitely-not-a-font-9f8e7d.ttf")
	if err == nil {
		t.Error("LoadOrDefault() should report why it fell back")
	}
	if s == nil || s.Name() != DefaultName {
		t.Errorf("LoadOrDefault() = %v, want default set", s)
	}
}
