package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	apperrors "github.com/matzehuels/idplease/pkg/errors"
	"github.com/matzehuels/idplease/pkg/passport"
)

// ReadRecord decodes a saved lookup from r.
//
// ReadRecord returns an ErrCodeInvalidRecord error if the JSON is
// malformed or the version is newer than this build understands. A missing
// version is read as version 1. The nationality is always reset to
// [passport.Nationality]. ReadRecord does not close r.
func ReadRecord(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRecord, err, "decode record")
	}
	if doc.Version == 0 {
		doc.Version = Version
	}
	if doc.Version > Version {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRecord, "record version %d is newer than supported version %d", doc.Version, Version)
	}
	doc.Record.Nationality = passport.Nationality
	if doc.Handle == "" && doc.Resolved != nil {
		doc.Handle = doc.Resolved.Handle
	}
	return &doc, nil
}

// ImportRecord reads a saved lookup from the file at path.
func ImportRecord(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "record %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRecord(f)
}
