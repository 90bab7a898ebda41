package cache

// ScopedKeyer wraps a Keyer with a prefix, isolating caches that share a
// backend (for example two API hosts writing to the same Redis database).
//
//	staging := NewScopedKeyer(NewDefaultKeyer(), "api.staging.6529.io:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(recordHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(recordHash, opts)
}
