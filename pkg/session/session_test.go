package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/idplease/pkg/passport"
)

func TestSubmitDeduplicates(t *testing.T) {
	s := New[string]()

	run, ok := s.Submit(context.Background(), "Alice")
	if !ok || run == nil {
		t.Fatal("first Submit() should start a run")
	}
	if _, ok := s.Submit(context.Background(), "  alice "); ok {
		t.Error("Submit() of the same normalized handle should be a no-op")
	}
	if _, ok := s.Submit(context.Background(), "   "); ok {
		t.Error("Submit() of a blank handle should be a no-op")
	}
	if run.Handle != "Alice" {
		t.Errorf("Handle = %q, want Alice", run.Handle)
	}
}

func TestSubmitSupersedes(t *testing.T) {
	s := New[string]()

	first, _ := s.Submit(context.Background(), "alice")
	second, ok := s.Submit(context.Background(), "bob")
	if !ok {
		t.Fatal("Submit(bob) should start a run")
	}
	if second.Generation <= first.Generation {
		t.Errorf("generation %d not after %d", second.Generation, first.Generation)
	}

	select {
	case <-first.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("superseded run was not cancelled")
	}
	if second.Context().Err() != nil {
		t.Error("current run should not be cancelled")
	}

	if s.Commit(first, "stale") {
		t.Error("Commit() from superseded run should be dropped")
	}
	if !s.Commit(second, "fresh") {
		t.Error("Commit() from current run should be kept")
	}
	if got, ok := s.Result(); !ok || got != "fresh" {
		t.Errorf("Result() = %q, %v; want fresh", got, ok)
	}
}

func TestSessionOutOfOrderCompletion(t *testing.T) {
	s := New[string]()
	handles := []string{"a", "b", "c", "d"}
	runs := make([]*Run, len(handles))
	for i, h := range handles {
		runs[i], _ = s.Submit(context.Background(), h)
	}

	var wg sync.WaitGroup
	for i := len(runs) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(r *Run) {
			defer wg.Done()
			s.Commit(r, r.Handle)
		}(runs[i])
	}
	wg.Wait()

	if got, _ := s.Result(); got != "d" {
		t.Errorf("Result() = %q, want d (latest submission)", got)
	}
}

func TestClear(t *testing.T) {
	s := New[int]()
	run, _ := s.Submit(context.Background(), "alice")
	s.Commit(run, 1)

	s.Clear()
	if run.Context().Err() == nil {
		t.Error("Clear() should cancel the current run")
	}
	if _, ok := s.Result(); ok {
		t.Error("Clear() should drop the result")
	}
	if s.Current() != nil {
		t.Error("Current() should be nil after Clear()")
	}
	if s.Commit(run, 2) {
		t.Error("Commit() after Clear() should be dropped")
	}

	again, ok := s.Submit(context.Background(), "alice")
	if !ok {
		t.Fatal("Submit() after Clear() should accept the same handle")
	}
	if !s.IsCurrent(again) {
		t.Error("IsCurrent() = false for the latest run")
	}
}

func TestParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New[int]()
	run, _ := s.Submit(ctx, "alice")
	cancel()
	if run.Context().Err() == nil {
		t.Error("run context should inherit parent cancellation")
	}
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	ctx := context.Background()

	if d, err := store.Get(ctx, "alice"); d != nil || err != nil {
		t.Fatalf("Get() on empty store = %v, %v", d, err)
	}

	draft := &Draft{Handle: "Alice", Overrides: passport.Overrides{FirstName: "Ann"}}
	if err := store.Set(ctx, draft); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err := store.Get(ctx, " alice ")
	if err != nil || got == nil {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if got.Overrides.FirstName != "Ann" {
		t.Errorf("FirstName = %q, want Ann", got.Overrides.FirstName)
	}

	if err := store.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if d, _ := store.Get(ctx, "alice"); d != nil {
		t.Error("Get() after Delete() should return nil")
	}
}

func TestFileStoreExpiry(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store.ttl = -time.Minute
	ctx := context.Background()

	store.Set(ctx, &Draft{Handle: "old"})
	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup() error: %v", err)
	}
	if d, _ := store.Get(ctx, "old"); d != nil {
		t.Error("expired draft should be gone")
	}
}

func TestFileStoreClear(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, h := range []string{"alice", "bob"} {
		if err := store.Set(ctx, &Draft{Handle: h, Overrides: passport.Overrides{Authority: "x"}}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if d, _ := store.Get(ctx, "alice"); d != nil {
		t.Error("Get() after Clear() should return nil")
	}
}
