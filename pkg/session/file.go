package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matzehuels/idplease/pkg/cache"
	"github.com/matzehuels/idplease/pkg/passport"
)

// DefaultDraftTTL is how long an untouched draft is kept.
const DefaultDraftTTL = 30 * 24 * time.Hour

// Draft holds the user's overrides for one handle.
type Draft struct {
	Handle    string             `json:"handle"`
	Overrides passport.Overrides `json:"overrides"`
	UpdatedAt time.Time          `json:"updated_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// IsExpired returns true if the draft has expired.
func (d *Draft) IsExpired() bool {
	return !d.ExpiresAt.IsZero() && time.Now().After(d.ExpiresAt)
}

// FileStore keeps drafts as JSON files in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
	ttl     time.Duration
}

// NewFileStore creates a draft store.
// If baseDir is empty, defaults to ~/.config/idplease/drafts/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "idplease", "drafts")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create draft dir: %w", err)
	}
	return &FileStore{baseDir: baseDir, ttl: DefaultDraftTTL}, nil
}

// Handles map to hashed file names so arbitrary input is safe on disk.
func (s *FileStore) draftPath(handle string) string {
	return filepath.Join(s.baseDir, cache.Hash([]byte(Normalize(handle)))[:32]+".json")
}

// Get returns the draft for handle, or nil, nil if there is none. Expired
// drafts are removed and reported as nil, nil.
func (s *FileStore) Get(ctx context.Context, handle string) (*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.draftPath(handle)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read draft file: %w", err)
	}

	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse draft: %w", err)
	}
	if d.IsExpired() {
		os.Remove(path)
		return nil, nil
	}
	return &d, nil
}

// Set stores d, refreshing its timestamps.
func (s *FileStore) Set(ctx context.Context, d *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.UpdatedAt = time.Now()
	d.ExpiresAt = d.UpdatedAt.Add(s.ttl)
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := os.WriteFile(s.draftPath(d.Handle), data, 0o600); err != nil {
		return fmt.Errorf("write draft file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.draftPath(handle)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove draft file: %w", err)
	}
	return nil
}

// Cleanup removes expired drafts.
func (s *FileStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read draft dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var d Draft
		if err := json.Unmarshal(data, &d); err != nil {
			continue
		}
		if d.IsExpired() {
			os.Remove(path)
		}
	}
	return nil
}

// Clear removes every draft and returns how many were deleted.
func (s *FileStore) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("read draft dir: %w", err)
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err != nil {
			return count, fmt.Errorf("remove draft file: %w", err)
		}
		count++
	}
	return count, nil
}

// Path returns the base directory for draft files.
func (s *FileStore) Path() string {
	return s.baseDir
}
