// Package pipeline provides the passport pipeline for idplease.
//
// This package implements the complete resolve → build → render pipeline
// used by every CLI command. By centralizing this logic the one-shot render
// command and the interactive editor behave identically.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Resolve: fetch the identity, rating logs and creation date from the
//     6529 API concurrently, then the wallet's ENS name and expiry
//  2. Build: merge resolved values with user overrides into a record
//  3. Render: load the avatar and paint the record as a PNG
//
// Each stage can be run independently or as part of the complete pipeline.
// Only a failed identity lookup aborts a run; every auxiliary lookup
// degrades to an empty field.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner, err := pipeline.NewRunner(cache, nil, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer runner.Close()
//
//	result, err := runner.Execute(ctx, pipeline.Options{Handle: "alice"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(result.Filename, result.PNG, 0o644)
//
// Run individual stages:
//
//	// Resolve only
//	res, err := runner.Resolve(ctx, "alice", false)
//
//	// Re-render with new overrides, no network
//	rec := passport.Build(res.Resolved, overrides)
//	png, hit, err := runner.Render(ctx, rec, avatar.Source{})
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/idplease/pkg/integrations/ens"
	"github.com/matzehuels/idplease/pkg/integrations/seize"
	"github.com/matzehuels/idplease/pkg/io"
	"github.com/matzehuels/idplease/pkg/passport"
	"github.com/matzehuels/idplease/pkg/render/avatar"
	"github.com/matzehuels/idplease/pkg/reputation"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultRunTimeout bounds one complete run.
	DefaultRunTimeout = 60 * time.Second

	// FormatPNG is the only artifact format.
	FormatPNG = "png"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains the inputs of one pipeline run.
type Options struct {
	// Handle is the 6529 profile to look up. Ignored when Document is set.
	Handle string `json:"handle"`

	// Overrides are user-entered values layered over resolved data.
	Overrides passport.Overrides `json:"overrides,omitzero"`

	// Avatar replaces the record's avatar reference, for example with an
	// image already decoded by the caller.
	Avatar avatar.Source `json:"-"`

	// Refresh bypasses cached API responses.
	Refresh bool `json:"refresh,omitempty"`

	// Document re-renders a saved lookup without network access.
	Document *io.Document `json:"-"`

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger `json:"-"`
}

// Resolution is the outcome of the resolve stage.
type Resolution struct {
	RunID      string
	Identity   *seize.Identity
	LogCount   int
	Reputation reputation.Result
	ENS        ens.Resolution
	Resolved   passport.Resolved
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID correlates log lines and hooks of this run.
	RunID string

	// Resolution is nil when the run re-rendered a saved document.
	Resolution *Resolution

	// Record is the merged passport content.
	Record passport.Record

	// PNG is the rendered passport.
	PNG []byte

	// Filename is the suggested output file name.
	Filename string

	// AvatarErr records why the avatar placeholder was drawn, if it was.
	AvatarErr error

	Stats     Stats
	CacheInfo CacheInfo

	// Set when the run re-rendered a saved document, so exporting the
	// result keeps the document's identity and resolved data.
	handle   string
	resolved *passport.Resolved
}

// Document returns the saved-lookup form of the result.
func (r *Result) Document() io.Document {
	doc := io.Document{
		Version:    io.Version,
		Handle:     r.handle,
		ExportedAt: time.Now().UTC(),
		Record:     r.Record,
		Resolved:   r.resolved,
	}
	if doc.Handle == "" {
		doc.Handle = r.Record.Surname
	}
	if r.Resolution != nil {
		res := r.Resolution.Resolved
		doc.Handle = res.Handle
		doc.Resolved = &res
	}
	return doc
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LogCount    int
	ResolveTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether the PNG came from the artifact cache
}
