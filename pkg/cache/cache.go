package cache

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LoaderFunc produces the derived result for a source path.
type LoaderFunc[T any] func(path string) (T, error)

// Codec serializes derived results for a persistent store.
type Codec[T any] struct {
	Marshal   func(T) ([]byte, error)
	Unmarshal func([]byte) (T, error)
}

// Stats counts cache activity. Loads is the number of loader invocations,
// which tests use as the observable parse count.
type Stats struct {
	Hits      int64 `json:"hits"`
	StoreHits int64 `json:"storeHits"`
	Misses    int64 `json:"misses"`
	Loads     int64 `json:"loads"`
}

type entry[T any] struct {
	mtime time.Time
	value T
}

// Cache memoizes loader results per source path, keyed by the modification
// timestamp observed at the last successful load. Entries are never
// proactively evicted within a session; the cache is bounded by the number
// of distinct files. Invalidate exists for external change notification
// (see Watcher), so access is mutex-guarded even though resolution itself
// is single-threaded.
type Cache[T any] struct {
	mu        sync.Mutex
	entries   map[string]entry[T]
	store     Store
	namespace string
	codec     Codec[T]
	log       zerolog.Logger
	metrics   MetricsRecorder
	stats     Stats
}

// MetricsRecorder receives cache activity for metrics export.
type MetricsRecorder interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordLoad()
}

// Option configures a cache.
type Option[T any] func(*Cache[T])

// WithStore attaches a persistent store. Entries are keyed under the given
// namespace so independent sessions sharing one store never collide.
func WithStore[T any](store Store, namespace string, codec Codec[T]) Option[T] {
	return func(c *Cache[T]) {
		c.store = store
		c.namespace = namespace
		c.codec = codec
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics[T any](m MetricsRecorder) Option[T] {
	return func(c *Cache[T]) {
		c.metrics = m
	}
}

// WithCacheLogger sets the cache logger.
func WithCacheLogger[T any](log zerolog.Logger) Option[T] {
	return func(c *Cache[T]) {
		c.log = log
	}
}

// New creates an empty cache.
func New[T any](opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		entries: make(map[string]entry[T]),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrLoad returns the derived result for path. The loader runs only when
// no cached result exists or the file's modification time is newer than the
// one recorded at the last successful load. Store failures degrade to a
// plain load; GetOrLoad never fails solely because the cache is
// unavailable.
func (c *Cache[T]) GetOrLoad(path string, load LoaderFunc[T]) (T, error) {
	info, err := os.Stat(path)
	if err != nil {
		// Let the loader produce the authoritative error for an
		// unreadable source.
		var zero T
		v, lerr := load(path)
		if lerr != nil {
			return zero, lerr
		}
		return v, nil
	}
	mtime := info.ModTime()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[path]; ok && !mtime.After(e.mtime) {
		c.stats.Hits++
		if c.metrics != nil {
			c.metrics.RecordCacheHit()
		}
		return e.value, nil
	}

	if v, ok := c.loadFromStore(path, mtime); ok {
		c.entries[path] = entry[T]{mtime: mtime, value: v}
		c.stats.StoreHits++
		if c.metrics != nil {
			c.metrics.RecordCacheHit()
		}
		return v, nil
	}

	c.stats.Misses++
	if c.metrics != nil {
		c.metrics.RecordCacheMiss()
	}
	v, err := load(path)
	if err != nil {
		var zero T
		return zero, err
	}
	c.stats.Loads++
	if c.metrics != nil {
		c.metrics.RecordLoad()
	}
	c.entries[path] = entry[T]{mtime: mtime, value: v}
	c.saveToStore(path, mtime, v)
	return v, nil
}

// loadFromStore consults the persistent store. Any store or decode failure
// is a miss.
func (c *Cache[T]) loadFromStore(path string, mtime time.Time) (T, bool) {
	var zero T
	if c.store == nil || c.codec.Unmarshal == nil {
		return zero, false
	}
	data, ok, err := c.store.Get(context.Background(), c.namespace, path, mtime)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("cache store read failed, regenerating")
		return zero, false
	}
	if !ok {
		return zero, false
	}
	v, err := c.codec.Unmarshal(data)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("cached artifact unreadable, regenerating")
		return zero, false
	}
	return v, true
}

func (c *Cache[T]) saveToStore(path string, mtime time.Time, v T) {
	if c.store == nil || c.codec.Marshal == nil {
		return
	}
	data, err := c.codec.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("cannot serialize cache entry")
		return
	}
	if err := c.store.Put(context.Background(), c.namespace, path, mtime, data); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("cache store write failed")
	}
}

// Invalidate drops the in-memory entry for path. The next GetOrLoad
// re-checks the store and, if stale, re-runs the loader.
func (c *Cache[T]) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len returns the number of in-memory entries.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
