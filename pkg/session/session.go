// Package session tracks which lookup is current in an interactive session.
//
// A user may submit handles faster than lookups complete. The [Session]
// latch makes sure only the most recently submitted lookup can publish its
// result:
//
//   - Submitting the same handle as the current run is a no-op.
//   - Submitting a different handle cancels the current run's context and
//     starts a new generation.
//   - A result is committed only if its run is still the latest generation;
//     late results from superseded runs are dropped.
//
// The package also provides [FileStore], which persists per-handle override
// drafts so an interactive edit survives restarts.
//
// # Usage
//
//	s := session.New[*pipeline.Result]()
//
//	run, ok := s.Submit(ctx, handle)
//	if !ok {
//	    return // same handle already in flight
//	}
//	go func() {
//	    res, err := runner.Execute(run.Context(), opts)
//	    if err == nil {
//	        s.Commit(run, res)
//	    }
//	}()
package session

import (
	"context"
	"strings"
	"sync"
)

// Run is one submitted lookup.
type Run struct {
	Handle     string
	Generation uint64

	ctx    context.Context
	cancel context.CancelFunc
}

// Context is cancelled when the run is superseded or the session cleared.
func (r *Run) Context() context.Context { return r.ctx }

// Normalize returns the de-duplication key of a handle.
func Normalize(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// Session is a latch over the latest submitted run. The zero value is not
// usable; create one with New. Safe for concurrent use.
type Session[T any] struct {
	mu         sync.Mutex
	generation uint64
	current    *Run
	key        string
	result     T
	hasResult  bool
}

// New creates an empty session.
func New[T any]() *Session[T] {
	return &Session[T]{}
}

// Submit starts a run for handle derived from parent. It returns false,
// and no run, when handle is blank or normalizes to the current run's
// handle. Otherwise the previous run is cancelled and its result, if any,
// discarded.
func (s *Session[T]) Submit(parent context.Context, handle string) (*Run, bool) {
	key := Normalize(handle)
	if key == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.key == key {
		return nil, false
	}
	if s.current != nil {
		s.current.cancel()
	}

	s.generation++
	ctx, cancel := context.WithCancel(parent)
	run := &Run{
		Handle:     strings.TrimSpace(handle),
		Generation: s.generation,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.current = run
	s.key = key
	var zero T
	s.result, s.hasResult = zero, false
	return run, true
}

// Commit stores v as the session result if run is still current. It
// reports whether the result was kept.
func (s *Session[T]) Commit(run *Run, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run == nil || s.current != run || run.Generation != s.generation {
		return false
	}
	s.result, s.hasResult = v, true
	return true
}

// IsCurrent reports whether run is the latest generation.
func (s *Session[T]) IsCurrent(run *Run) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return run != nil && s.current == run
}

// Current returns the latest run, or nil.
func (s *Session[T]) Current() *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Result returns the committed result of the current run.
func (s *Session[T]) Result() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.hasResult
}

// Clear cancels the current run and resets the latch so the same handle
// can be submitted again.
func (s *Session[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.cancel()
	}
	s.generation++
	s.current = nil
	s.key = ""
	var zero T
	s.result, s.hasResult = zero, false
}

// Generation returns the number of runs started or cleared so far.
func (s *Session[T]) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}
