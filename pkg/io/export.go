package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/idplease/pkg/passport"
)

// Version is the current document format version.
const Version = 1

// Document is a saved lookup.
type Document struct {
	Version    int                `json:"version"`
	Handle     string             `json:"handle"`
	ExportedAt time.Time          `json:"exported_at,omitzero"`
	Resolved   *passport.Resolved `json:"resolved,omitempty"`
	Record     passport.Record    `json:"record"`
}

// Rebuild returns the record for new overrides: built from the resolved
// data when present, otherwise layered onto the saved record.
func (d *Document) Rebuild(ov passport.Overrides) passport.Record {
	if d.Resolved != nil {
		return passport.Build(*d.Resolved, ov)
	}
	return d.Record.With(ov)
}

// WriteRecord encodes doc as indented JSON to w. A zero Version is set to
// the current one.
func WriteRecord(doc Document, w io.Writer) error {
	if doc.Version == 0 {
		doc.Version = Version
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportRecord writes doc to a JSON file at path.
// This is a convenience wrapper around [WriteRecord] for file-based output.
func ExportRecord(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteRecord(doc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
