// Package wiki implements the wiki read/write orchestration engine: cached
// and deduplicated reads, the save orchestrator, the approval workflow and
// revision numbering.
package wiki

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"wikicore/internal/cache"
	"wikicore/internal/config"
	"wikicore/internal/domain"
	models "wikicore/internal/domain/models/wiki"
	wikiRepo "wikicore/internal/domain/repositories/wiki"
	wikiSvc "wikicore/internal/domain/services/wiki"
	"wikicore/internal/sanitizer"
)

const (
	defaultViewBufferSize    = 1024
	defaultViewFlushInterval = 5 * time.Second
)

// Config tunes an engine. Zero values take defaults.
type Config struct {
	Policy            *config.CachePolicy
	ViewFlushInterval time.Duration
	ViewBufferSize    int
	Clock             func() time.Time
}

// engine implements the wikiSvc.Engine interface
type engine struct {
	store     wikiRepo.Store
	cache     *cache.Cache
	dedup     *cache.Deduplicator
	resolver  wikiSvc.PermissionResolver
	revisions *RevisionManager
	views     *viewRecorder
	sanitizer *sanitizer.TextSanitizer
	policy    *config.CachePolicy
	clock     func() time.Time
	logger    *slog.Logger

	// epoch advances on every invalidation; a fetch that straddles one
	// does not populate the cache.
	epoch atomic.Uint64
}

// NewEngine creates the engine and starts its view-count worker. Close
// must be called to stop it.
func NewEngine(
	store wikiRepo.Store,
	c *cache.Cache,
	resolver wikiSvc.PermissionResolver,
	cfg Config,
	logger *slog.Logger,
) wikiSvc.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Policy == nil {
		cfg.Policy = config.DefaultCachePolicy()
	}
	if cfg.ViewFlushInterval <= 0 {
		cfg.ViewFlushInterval = defaultViewFlushInterval
	}
	if cfg.ViewBufferSize <= 0 {
		cfg.ViewBufferSize = defaultViewBufferSize
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &engine{
		store:     store,
		cache:     c,
		dedup:     cache.NewDeduplicator(logger),
		resolver:  resolver,
		revisions: NewRevisionManager(store.Revisions()),
		views:     newViewRecorder(store.Documents(), cfg.ViewFlushInterval, cfg.ViewBufferSize, logger),
		sanitizer: sanitizer.NewTextSanitizer(),
		policy:    cfg.Policy,
		clock:     cfg.Clock,
		logger:    logger,
	}
}

// Close stops the view worker after flushing buffered counts.
func (e *engine) Close() {
	e.views.Close()
}

func (e *engine) now() time.Time {
	return e.clock().UTC()
}

// cached serves key from the cache, or runs one deduplicated fetch for all
// concurrent callers and caches its result. Errors are never cached.
func cached[T cache.Value](ctx context.Context, e *engine, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if value, ok := cache.Get[T](ctx, e.cache, key); ok {
		return value, nil
	}
	return cache.Do(ctx, e.dedup, key, func(ctx context.Context) (T, error) {
		epoch := e.epoch.Load()
		value, err := fetch(ctx)
		if err != nil {
			return value, err
		}
		if e.epoch.Load() == epoch {
			cache.Set(ctx, e.cache, key, value, ttl)
		}
		return value, nil
	})
}

// invalidate drops every cache entry matching the patterns and detaches
// in-flight fetches under them so later readers see the new state. Every
// pattern is also a key prefix.
func (e *engine) invalidate(ctx context.Context, patterns ...string) {
	e.epoch.Add(1)
	for _, pattern := range patterns {
		e.dedup.ForgetPrefix(pattern)
		e.cache.Invalidate(ctx, pattern)
	}
}

// invalidateAfterWrite drops everything a mutation of the given slugs can
// make stale.
func (e *engine) invalidateAfterWrite(ctx context.Context, pendingChanged bool, slugs ...string) {
	patterns := []string{slugsPattern, searchPattern, recentPattern, statsPattern}
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		patterns = append(patterns, pagePattern(slug))
	}
	if pendingChanged {
		patterns = append(patterns, pendingPattern)
	}
	e.invalidate(ctx, patterns...)
}

// loadActor resolves the acting user. An unknown actor is unauthorized.
func (e *engine) loadActor(ctx context.Context, actorID string) (*models.Actor, error) {
	if actorID == "" {
		return nil, &domain.UnauthorizedError{Message: "authentication required"}
	}
	actor, err := e.store.Actors().GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.UnauthorizedError{Message: "unknown actor"}
		}
		return nil, domain.AsStorage("load actor", err)
	}
	return actor, nil
}
