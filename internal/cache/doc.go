// Package cache implements the read-path caches of the wiki engine.
//
// Cache is a two-tier TTL cache. The fast tier is an in-process map with a
// per-call TTL; the optional slow tier is a TransientCache holding JSON
// envelopes valid for a fixed window independent of the fast TTL. Reads go
// fast tier, then slow tier (repopulating the fast tier), then the caller's
// source of truth. The cache is only ever an optimization: slow-tier faults
// and corrupt entries degrade to misses and are never returned to callers.
//
// Deduplicator collapses concurrent identical fetches into one call.
package cache
