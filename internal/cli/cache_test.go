package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/agentgraph/pkg/cache"
	"github.com/matzehuels/agentgraph/pkg/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	if !strings.HasPrefix(dir, home) {
		t.Errorf("cacheDir() = %q, should be under home %q", dir, home)
	}
	expected := filepath.Join(home, ".cache", "agentgraph")
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDir_XDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(xdg, "agentgraph"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestNewCache(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	c.Config = config.Default()
	c.Config.Cache.Dir = t.TempDir()

	store, err := c.newCache()
	if err != nil {
		t.Fatalf("newCache() error: %v", err)
	}
	if _, ok := store.(*cache.FileCache); !ok {
		t.Errorf("newCache() = %T, want *cache.FileCache", store)
	}

	c.noCache = true
	store, err = c.newCache()
	if err != nil {
		t.Fatalf("newCache() error: %v", err)
	}
	if _, ok := store.(*cache.NullCache); !ok {
		t.Errorf("newCache() with --no-cache = %T, want *cache.NullCache", store)
	}
	if _, ok := store.(cache.Clearer); ok {
		t.Error("NullCache should not be clearable")
	}
}
