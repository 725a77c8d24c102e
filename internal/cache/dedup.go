package cache

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"wikicore/internal/metrics"
)

// Deduplicator collapses concurrent fetches sharing a key into one call.
// The in-flight entry is dropped as soon as the call returns, success or
// failure, so a failed fetch never poisons a later retry.
type Deduplicator struct {
	logger *slog.Logger
	group  singleflight.Group

	// inflight counts running fetches per key so ForgetPrefix can find them.
	mu       sync.Mutex
	inflight map[string]int
}

// NewDeduplicator creates a deduplicator.
func NewDeduplicator(logger *slog.Logger) *Deduplicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{logger: logger, inflight: make(map[string]int)}
}

// Do runs fetch once for all concurrent callers of key and hands each of
// them the same result. The fetch runs detached from ctx: a caller whose
// context ends stops waiting and gets ctx.Err(), while the fetch carries on
// for the callers still waiting.
func Do[T any](ctx context.Context, d *Deduplicator, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	detached := context.WithoutCancel(ctx)

	ch := d.group.DoChan(key, func() (any, error) {
		d.track(key)
		defer d.untrack(key)
		return runSafely(detached, d.logger, key, fetch)
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.DedupCalls.WithLabelValues(metrics.DedupShared).Inc()
		} else {
			metrics.DedupCalls.WithLabelValues(metrics.DedupLeader).Inc()
		}
		if res.Err != nil {
			return zero, res.Err
		}
		value, ok := res.Val.(T)
		if !ok {
			// Another caller registered the key with a different result type.
			metrics.DedupCalls.WithLabelValues(metrics.DedupFallback).Inc()
			d.logger.WarnContext(ctx, "deduplicated result has unexpected type, fetching directly",
				"key", key, "type", fmt.Sprintf("%T", res.Val))
			return fetch(ctx)
		}
		return value, nil
	case <-ctx.Done():
		metrics.DedupCalls.WithLabelValues(metrics.DedupAbandoned).Inc()
		return zero, ctx.Err()
	}
}

// ForgetPrefix drops every in-flight key starting with prefix, so the next
// caller of such a key starts a fresh fetch instead of joining the current
// one. Callers already waiting still get the old result.
func (d *Deduplicator) ForgetPrefix(prefix string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.inflight {
		if strings.HasPrefix(key, prefix) {
			d.group.Forget(key)
		}
	}
}

// track registers key before its fetch starts reading, so a ForgetPrefix
// that misses it can only precede the read.
func (d *Deduplicator) track(key string) {
	d.mu.Lock()
	d.inflight[key]++
	d.mu.Unlock()
}

func (d *Deduplicator) untrack(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight[key] <= 1 {
		delete(d.inflight, key)
		return
	}
	d.inflight[key]--
}

// runSafely converts a panic in fetch into an error. Singleflight re-panics
// DoChan panics on a fresh goroutine, which would take the process down.
func runSafely[T any](ctx context.Context, logger *slog.Logger, key string, fetch func(context.Context) (T, error)) (value any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.ErrorContext(ctx, "deduplicated fetch panicked",
				"key", key,
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
			value = nil
			err = fmt.Errorf("fetch %s panicked: %v", key, recovered)
		}
	}()

	return fetch(ctx)
}
