package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/idplease/pkg/cache"
	"github.com/matzehuels/idplease/pkg/integrations/seize"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != filepath.Join(base, appName) {
		t.Errorf("cacheDir() = %q, want under %q", dir, base)
	}
}

func TestDraftsDir(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	if got, want := draftsDir(), filepath.Join(base, appName, "drafts"); got != want {
		t.Errorf("draftsDir() = %q, want %q", got, want)
	}
}

func TestClearFileCache(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)
	ctx := context.Background()

	fc, err := cache.NewFileCache(filepath.Join(base, appName))
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := fc.Set(ctx, k, []byte(`{}`), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	c := New(io.Discard, LogInfo)
	if err := c.clearCache(ctx); err != nil {
		t.Fatalf("clearCache() error: %v", err)
	}
	if _, ok, _ := fc.Get(ctx, "a"); ok {
		t.Error("entry should be gone after clear")
	}
}

func TestNewCacheBackends(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	ctx := context.Background()

	tests := []struct {
		name    string
		backend string
		noCache bool
		want    string
	}{
		{"file", backendFile, false, "*cache.FileCache"},
		{"none", backendNone, false, "cache.NullCache"},
		{"no-cache flag wins", backendFile, true, "cache.NullCache"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(io.Discard, LogInfo)
			c.config = defaultConfig()
			c.config.Cache.Backend = tt.backend

			store, err := c.newCache(ctx, tt.noCache)
			if err != nil {
				t.Fatalf("newCache() error: %v", err)
			}
			defer store.Close()
			if got := fmt.Sprintf("%T", store); got != tt.want {
				t.Errorf("newCache() type = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewCacheRedisUnreachable(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.config = defaultConfig()
	c.config.Cache.Backend = backendRedis
	c.config.Cache.RedisAddr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := c.newCache(ctx, false); err == nil {
		t.Fatal("newCache() should fail when redis is unreachable")
	}
}

func TestCacheKeyerScopesNonDefaultAPI(t *testing.T) {
	def := cacheKeyer(seize.DefaultBaseURL).HTTPKey("seize:", "identity:alice")
	if strings.HasPrefix(def, "localhost") {
		t.Errorf("default API key should not be scoped: %s", def)
	}
	got := cacheKeyer("http://localhost:8080").HTTPKey("seize:", "identity:alice")
	if !strings.HasPrefix(got, "localhost:8080:") {
		t.Errorf("key = %q, want localhost:8080: prefix", got)
	}
	if got == def {
		t.Error("scoped and default keys should differ")
	}
}
