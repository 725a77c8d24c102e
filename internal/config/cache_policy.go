package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed cache_policy.yaml
var defaultCachePolicy []byte

// CachePolicy holds the fast-tier TTL of every cached read.
type CachePolicy struct {
	Document         time.Duration `yaml:"document"`
	History          time.Duration `yaml:"history"`
	Slugs            time.Duration `yaml:"slugs"`
	Categories       time.Duration `yaml:"categories"`
	Search           time.Duration `yaml:"search"`
	RecentChanges    time.Duration `yaml:"recent_changes"`
	PendingChanges   time.Duration `yaml:"pending_changes"`
	Stats            time.Duration `yaml:"stats"`
	SlowTierValidity time.Duration `yaml:"slow_tier_validity"`
}

// DefaultCachePolicy returns the embedded policy.
func DefaultCachePolicy() *CachePolicy {
	var policy CachePolicy
	if err := yaml.Unmarshal(defaultCachePolicy, &policy); err != nil {
		panic(fmt.Sprintf("embedded cache policy: %v", err))
	}
	return &policy
}

// LoadCachePolicy reads the embedded policy and overlays the YAML file at
// path when path is non-empty. Keys missing from the file keep their
// defaults.
func LoadCachePolicy(path string) (*CachePolicy, error) {
	policy := DefaultCachePolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache policy: %w", err)
	}
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("parse cache policy %s: %w", path, err)
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("cache policy %s: %w", path, err)
	}

	return policy, nil
}

// Validate rejects non-positive durations.
func (p *CachePolicy) Validate() error {
	fields := map[string]time.Duration{
		"document":           p.Document,
		"history":            p.History,
		"slugs":              p.Slugs,
		"categories":         p.Categories,
		"search":             p.Search,
		"recent_changes":     p.RecentChanges,
		"pending_changes":    p.PendingChanges,
		"stats":              p.Stats,
		"slow_tier_validity": p.SlowTierValidity,
	}
	for name, d := range fields {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}
