package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"wikicore/internal/metrics"
)

const defaultSlowValidity = time.Hour

// Option mutates cache configuration.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger used for degraded-path diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSlowTier attaches a slow tier. A nil tier means every slow lookup misses.
func WithSlowTier(tier TransientCache) Option {
	return func(c *Cache) {
		c.slow = tier
	}
}

// WithSlowValidity sets how long slow-tier entries stay valid.
func WithSlowValidity(validity time.Duration) Option {
	return func(c *Cache) {
		if validity > 0 {
			c.slowValidity = validity
		}
	}
}

// Cache is the two-tier TTL cache. It is safe for concurrent use.
type Cache struct {
	logger       *slog.Logger
	clock        func() time.Time
	slow         TransientCache
	slowValidity time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	kind     Kind
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// envelope is the slow-tier record. TTL is the slow validity window;
// FastTTL is the TTL the fast tier gets when repopulated from this record.
type envelope struct {
	Kind     Kind            `json:"kind"`
	Value    json.RawMessage `json:"value"`
	StoredAt time.Time       `json:"stored_at"`
	TTL      time.Duration   `json:"ttl"`
	FastTTL  time.Duration   `json:"fast_ttl"`
}

// New creates an empty cache.
func New(options ...Option) *Cache {
	c := &Cache{
		logger:       slog.Default(),
		clock:        time.Now,
		slowValidity: defaultSlowValidity,
		entries:      make(map[string]*entry),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Get returns the value stored under key if it is still fresh in either
// tier. A kind mismatch, an expired entry, a slow-tier fault or an
// undecodable envelope are all misses.
func Get[T Value](ctx context.Context, c *Cache, key string) (T, bool) {
	kind := KindOf[T]()

	if v, ok := c.getFast(key, kind); ok {
		if typed, ok := v.(T); ok {
			metrics.CacheLookups.WithLabelValues(metrics.TierFast, metrics.ResultHit).Inc()
			return typed, true
		}
	}
	metrics.CacheLookups.WithLabelValues(metrics.TierFast, metrics.ResultMiss).Inc()

	var zero T
	env, ok := c.getSlow(ctx, key, kind)
	if !ok {
		metrics.CacheLookups.WithLabelValues(metrics.TierSlow, metrics.ResultMiss).Inc()
		return zero, false
	}

	var value T
	if err := json.Unmarshal(env.Value, &value); err != nil || isNilPointer(value) {
		c.logger.DebugContext(ctx, "slow cache entry undecodable, treating as miss", "key", key, "error", err)
		metrics.CacheLookups.WithLabelValues(metrics.TierSlow, metrics.ResultMiss).Inc()
		return zero, false
	}
	metrics.CacheLookups.WithLabelValues(metrics.TierSlow, metrics.ResultHit).Inc()

	if env.FastTTL > 0 {
		c.setFast(key, kind, value, env.FastTTL)
	}
	return value, true
}

// Set stores value under key in both tiers. ttl applies to the fast tier;
// the slow tier uses its own validity window. Slow-tier failures are
// dropped.
func Set[T Value](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) {
	if ttl <= 0 || isNilPointer(value) {
		return
	}
	kind := KindOf[T]()
	c.setFast(key, kind, value, ttl)

	if c.slow == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.dropSlowWrite(ctx, key, err)
		return
	}
	data, err := json.Marshal(envelope{
		Kind:     kind,
		Value:    raw,
		StoredAt: c.clock(),
		TTL:      c.slowValidity,
		FastTTL:  ttl,
	})
	if err != nil {
		c.dropSlowWrite(ctx, key, err)
		return
	}
	if err := c.slow.Put(ctx, key, data); err != nil {
		c.dropSlowWrite(ctx, key, err)
	}
}

// Invalidate removes every fast-tier key containing pattern and asks the
// slow tier to drop every key starting with it. Keys are laid out so that
// each pattern the engine uses is also a key prefix.
func (c *Cache) Invalidate(ctx context.Context, pattern string) {
	metrics.CacheInvalidations.Inc()

	c.mu.Lock()
	for key := range c.entries {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	if c.slow == nil {
		return
	}
	if err := c.slow.DeleteAll(ctx, pattern); err != nil {
		c.logger.WarnContext(ctx, "slow cache invalidation failed", "pattern", pattern, "error", err)
	}
}

// Len reports the number of fast-tier entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) getFast(key string, kind Kind) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock().Sub(e.storedAt) >= e.ttl {
		delete(c.entries, key)
		return nil, false
	}
	if e.kind != kind {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) setFast(key string, kind Kind, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = &entry{
		kind:     kind,
		value:    value,
		storedAt: c.clock(),
		ttl:      ttl,
	}
	c.mu.Unlock()
}

func (c *Cache) getSlow(ctx context.Context, key string, kind Kind) (*envelope, bool) {
	if c.slow == nil {
		return nil, false
	}
	data, ok, err := c.slow.Get(ctx, key)
	if err != nil {
		c.logger.DebugContext(ctx, "slow cache read failed, treating as miss", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.DebugContext(ctx, "slow cache envelope corrupt, treating as miss", "key", key, "error", err)
		return nil, false
	}
	if env.Kind != kind || len(env.Value) == 0 {
		return nil, false
	}
	if c.clock().Sub(env.StoredAt) >= env.TTL {
		return nil, false
	}
	return &env, true
}

func (c *Cache) dropSlowWrite(ctx context.Context, key string, err error) {
	metrics.CacheSlowWriteDrops.Inc()
	c.logger.DebugContext(ctx, "slow cache write dropped", "key", key, "error", err)
}

func isNilPointer[T Value](v T) bool {
	var zero T
	return any(v) == any(zero)
}
