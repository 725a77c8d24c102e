package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrQuotaExceeded is returned by a slow tier that has no room for a new key.
var ErrQuotaExceeded = errors.New("cache tier quota exceeded")

// TransientCache is the slow, durable-across-restarts tier. It stores opaque
// bytes by key; any error it returns is treated as a miss or a dropped write.
type TransientCache interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	DeleteAll(ctx context.Context, prefix string) error
}

// MemoryTier is a TransientCache kept in process memory with an optional
// entry limit. Overwriting an existing key never exceeds the quota.
type MemoryTier struct {
	maxEntries int

	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryTier creates a memory tier. maxEntries <= 0 means unbounded.
func NewMemoryTier(maxEntries int) *MemoryTier {
	return &MemoryTier{
		maxEntries: maxEntries,
		entries:    make(map[string][]byte),
	}
}

func (t *MemoryTier) Put(_ context.Context, key string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[key]; !exists && t.maxEntries > 0 && len(t.entries) >= t.maxEntries {
		return ErrQuotaExceeded
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	t.entries[key] = stored
	return nil
}

func (t *MemoryTier) Get(_ context.Context, key string) ([]byte, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	data, ok := t.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (t *MemoryTier) DeleteAll(_ context.Context, prefix string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key := range t.entries {
		if strings.HasPrefix(key, prefix) {
			delete(t.entries, key)
		}
	}
	return nil
}

// Len reports the number of stored entries.
func (t *MemoryTier) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
