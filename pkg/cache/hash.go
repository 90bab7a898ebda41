package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer builds cache keys for every kind of cached value.
type Keyer interface {
	// HTTPKey returns the key for a cached API response.
	HTTPKey(namespace, key string) string

	// ArtifactKey returns the key for a rendered artifact of a record.
	ArtifactKey(recordHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds the render settings that change artifact bytes.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Font       string `json:"font,omitempty"`
	Background string `json:"background,omitempty"`
	AvatarHash string `json:"avatar_hash,omitempty"`
}

// DefaultKeyer generates keys with fixed prefixes per value kind.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// ArtifactKey hashes the record hash together with the render options.
func (DefaultKeyer) ArtifactKey(recordHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", recordHash, opts)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
