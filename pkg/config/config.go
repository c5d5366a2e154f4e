// Package config loads agentgraph settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/agentgraph/config.toml unless a path is
// given explicitly. Every key is optional; a missing default file yields
// [Default]. A minimal file:
//
//	[layout]
//	layer_gap = 160
//
//	[layout.footprints.agent]
//	width = 320
//	height = 120
//
//	[transition]
//	duration = "600ms"
//	fps = 60
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[scope]
//	project = "checkout"
//	dataset = "prod"
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/agentgraph/pkg/cache"
	"github.com/matzehuels/agentgraph/pkg/errors"
	"github.com/matzehuels/agentgraph/pkg/layout"
)

// Config is the full configuration file.
type Config struct {
	Layout     LayoutConfig     `toml:"layout"`
	Transition TransitionConfig `toml:"transition"`
	Cache      CacheConfig      `toml:"cache"`
	Scope      ScopeConfig      `toml:"scope"`
}

// LayoutConfig mirrors [layout.Config]. Footprint keys are category names:
// tool, llm, agent and user_entry.
type LayoutConfig struct {
	LayerGap     float64                     `toml:"layer_gap"`
	NodeGap      float64                     `toml:"node_gap"`
	ComponentGap float64                     `toml:"component_gap"`
	Passes       int                         `toml:"passes"`
	Footprints   map[string]layout.Footprint `toml:"footprints"`
}

// TransitionConfig controls animation timing.
type TransitionConfig struct {
	Duration Duration `toml:"duration"`
	FPS      int      `toml:"fps"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend string      `toml:"backend"` // file, redis or none
	Dir     string      `toml:"dir"`
	TTL     Duration    `toml:"ttl"`
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	DB       int    `toml:"db"`
	Password string `toml:"password"`
	Prefix   string `toml:"prefix"`
}

// ScopeConfig namespaces cache keys.
type ScopeConfig struct {
	Project string `toml:"project"`
	Dataset string `toml:"dataset"`
}

// Duration is a time.Duration written as a Go duration string ("400ms").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	lc := layout.DefaultConfig()
	fps := make(map[string]layout.Footprint, len(lc.Footprints))
	for c, fp := range lc.Footprints {
		fps[c.String()] = fp
	}
	return Config{
		Layout: LayoutConfig{
			LayerGap:     lc.LayerGap,
			NodeGap:      lc.NodeGap,
			ComponentGap: lc.ComponentGap,
			Passes:       lc.Passes,
			Footprints:   fps,
		},
		Transition: TransitionConfig{
			Duration: Duration{400 * time.Millisecond},
			FPS:      30,
		},
		Cache: CacheConfig{
			Backend: cache.BackendFile,
			TTL:     Duration{7 * 24 * time.Hour},
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "agentgraph:"},
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/agentgraph/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "agentgraph", "config.toml"), nil
}

// Load reads the file at path over [Default] and validates the result. An
// empty path means [DefaultPath], which may be absent; an explicit path must
// exist. Unknown keys are rejected so typos don't silently fall back to
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.WrapFile(errors.ErrCodeInvalidConfig, err, path)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges and names.
func (c Config) Validate() error {
	l := c.Layout
	if l.LayerGap < 0 || l.NodeGap < 0 || l.ComponentGap < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout gaps must not be negative")
	}
	if l.Passes < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.passes must not be negative")
	}
	for _, name := range sortedKeys(l.Footprints) {
		if _, ok := layout.ParseCategory(name); !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown footprint category %q (want tool, llm, agent or user_entry)", name)
		}
		if fp := l.Footprints[name]; fp.W <= 0 || fp.H <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "footprint %q must have positive width and height", name)
		}
	}

	if c.Transition.Duration.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "transition.duration must not be negative")
	}
	if c.Transition.FPS <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "transition.fps must be positive")
	}

	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendRedis, cache.BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}

	if err := errors.ValidateScopeName("project", c.Scope.Project); err != nil {
		return err
	}
	return errors.ValidateScopeName("dataset", c.Scope.Dataset)
}

// LayoutEngine converts the layout section into engine parameters.
// Categories missing from the file keep their default footprints.
func (c Config) LayoutEngine() layout.Config {
	fps := layout.DefaultFootprints()
	for name, fp := range c.Layout.Footprints {
		if cat, ok := layout.ParseCategory(name); ok {
			fps[cat] = fp
		}
	}
	return layout.Config{
		LayerGap:     c.Layout.LayerGap,
		NodeGap:      c.Layout.NodeGap,
		ComponentGap: c.Layout.ComponentGap,
		Passes:       c.Layout.Passes,
		Footprints:   fps,
	}.WithDefaults()
}

// CacheOptions converts the cache section into backend options.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisOptions{
			Addr:     c.Cache.Redis.Addr,
			DB:       c.Cache.Redis.DB,
			Password: c.Cache.Redis.Password,
			Prefix:   c.Cache.Redis.Prefix,
		},
	}
}

// Frames returns the number of animation frames for one transition, at
// least 2.
func (t TransitionConfig) Frames() int {
	n := int(t.Duration.Seconds() * float64(t.FPS))
	return max(n, 2)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
