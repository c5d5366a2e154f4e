// Package cache stores pipeline results (payloads and layouts) keyed by
// content hash.
//
// Three backends implement [Cache]: [FileCache] for local CLI use,
// [RedisCache] for shared deployments and [NullCache] when caching is
// disabled. Keys are built by a [Keyer]; wrap one in a [ScopedKeyer] to
// isolate projects or datasets that share a backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss with ok=false and a nil error. Backends return errors
// only for I/O or transport failures; callers are expected to treat those as
// misses.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) (removed int, err error)
}

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Options selects and configures a backend for [Open].
type Options struct {
	Backend string // file, redis or none (default file)
	Dir     string // FileCache directory
	Redis   RedisOptions
}

// Open builds the backend named by opts.Backend.
func Open(opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		c, err := NewFileCache(opts.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		return NewRedisCache(opts.Redis), nil
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, &UnknownBackendError{Name: opts.Backend}
	}
}

// UnknownBackendError is returned by [Open] for an unrecognised backend name.
type UnknownBackendError struct{ Name string }

func (e *UnknownBackendError) Error() string {
	return "unknown cache backend " + `"` + e.Name + `"`
}

// NullCache stores nothing: every Get misses and writes are dropped. It backs
// --no-cache and the "none" backend.
type NullCache struct{}

// NewNullCache returns a cache that never hits.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error { return nil }
func (*NullCache) Close() error { return nil }
