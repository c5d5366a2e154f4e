package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/agentgraph/pkg/cache"
	"github.com/matzehuels/agentgraph/pkg/errors"
	"github.com/matzehuels/agentgraph/pkg/layout"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Layout.LayerGap != 120 || cfg.Transition.FPS != 30 {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
[layout]
layer_gap = 160
passes = 4

[layout.footprints.agent]
width = 320
height = 110

[transition]
duration = "1s"
fps = 60

[cache]
backend = "redis"
ttl = "24h"

[cache.redis]
addr = "redis:6379"
db = 2

[scope]
project = "checkout"
dataset = "prod"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Layout.LayerGap != 160 || cfg.Layout.NodeGap != 40 || cfg.Layout.Passes != 4 {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Transition.Duration.Duration != time.Second || cfg.Transition.FPS != 60 {
		t.Errorf("Transition = %+v", cfg.Transition)
	}
	if cfg.Cache.Backend != cache.BackendRedis || cfg.Cache.TTL.Duration != 24*time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.Redis.Addr != "redis:6379" || cfg.Cache.Redis.DB != 2 || cfg.Cache.Redis.Prefix != "agentgraph:" {
		t.Errorf("Cache.Redis = %+v", cfg.Cache.Redis)
	}
	if cfg.Scope.Project != "checkout" || cfg.Scope.Dataset != "prod" {
		t.Errorf("Scope = %+v", cfg.Scope)
	}

	lc := cfg.LayoutEngine()
	if got := lc.Footprints[layout.CategoryAgent]; got != (layout.Footprint{W: 320, H: 110}) {
		t.Errorf("agent footprint = %+v", got)
	}
	if got := lc.Footprints[layout.CategoryTool]; got != layout.DefaultFootprints()[layout.CategoryTool] {
		t.Errorf("tool footprint = %+v, want default", got)
	}

	opts := cfg.CacheOptions()
	if opts.Backend != cache.BackendRedis || opts.Redis.DB != 2 {
		t.Errorf("CacheOptions() = %+v", opts)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", `[layout`},
		{"unknown key", "[layout]\nlayer_gapp = 10\n"},
		{"negative gap", "[layout]\nnode_gap = -1\n"},
		{"bad duration", "[transition]\nduration = \"soon\"\n"},
		{"zero fps", "[transition]\nfps = 0\n"},
		{"unknown backend", "[cache]\nbackend = \"memcached\"\n"},
		{"unknown footprint", "[layout.footprints.robot]\nwidth = 10\nheight = 10\n"},
		{"zero footprint", "[layout.footprints.tool]\nwidth = 0\nheight = 10\n"},
		{"bad scope", "[scope]\nproject = \"../x\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() should fail")
			}
			code := errors.GetCode(err)
			if code != errors.ErrCodeInvalidConfig && code != errors.ErrCodeInvalidScope {
				t.Errorf("Load() code = %s, want INVALID_CONFIG or INVALID_SCOPE", code)
			}
		})
	}
}

func TestTransitionConfig_Frames(t *testing.T) {
	tests := []struct {
		d    time.Duration
		fps  int
		want int
	}{
		{400 * time.Millisecond, 30, 12},
		{time.Second, 60, 60},
		{0, 30, 2},
	}
	for _, tt := range tests {
		tc := TransitionConfig{Duration: Duration{tt.d}, FPS: tt.fps}
		if got := tc.Frames(); got != tt.want {
			t.Errorf("Frames(%v, %d) = %d, want %d", tt.d, tt.fps, got, tt.want)
		}
	}
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("Duration = %v, want 1m30s", d.Duration)
	}
	b, _ := d.MarshalText()
	if string(b) != "1m30s" {
		t.Errorf("MarshalText() = %q", b)
	}
}
