// Package auth holds authorization helpers that sit beside the wiki
// permission rules.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ownershipFile is the on-disk layout: resource name to owner actor IDs.
//
//	resources:
//	  Minecraft Hub: [actor-1, actor-2]
type ownershipFile struct {
	Resources map[string][]string `yaml:"resources"`
}

// OwnershipDirectory answers "does this actor own that community resource"
// from a static list. Resource names match case-insensitively.
//
// It replaces the allow-all default once operators know who owns what.
type OwnershipDirectory struct {
	mu     sync.RWMutex
	owners map[string]map[string]bool
	logger *slog.Logger
}

// NewOwnershipDirectory creates an empty directory; every claim is denied
// until owners are loaded.
func NewOwnershipDirectory(logger *slog.Logger) *OwnershipDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &OwnershipDirectory{
		owners: make(map[string]map[string]bool),
		logger: logger,
	}
}

// LoadOwnershipFile reads a YAML ownership file into a new directory
func LoadOwnershipFile(path string, logger *slog.Logger) (*OwnershipDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ownership file: %w", err)
	}

	dir := NewOwnershipDirectory(logger)
	if err := dir.Load(data); err != nil {
		return nil, fmt.Errorf("ownership file %s: %w", path, err)
	}
	return dir, nil
}

// Load replaces the directory contents with the parsed YAML document
func (d *OwnershipDirectory) Load(data []byte) error {
	var file ownershipFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse ownership: %w", err)
	}

	owners := make(map[string]map[string]bool, len(file.Resources))
	for resource, actorIDs := range file.Resources {
		key := normalizeResource(resource)
		if key == "" {
			return fmt.Errorf("resource name must not be empty")
		}
		if owners[key] == nil {
			owners[key] = make(map[string]bool, len(actorIDs))
		}
		for _, actorID := range actorIDs {
			if actorID = strings.TrimSpace(actorID); actorID != "" {
				owners[key][actorID] = true
			}
		}
	}

	d.mu.Lock()
	d.owners = owners
	d.mu.Unlock()

	d.logger.Info("ownership directory loaded", "resources", len(owners))
	return nil
}

// Grant records actorID as an owner of resource
func (d *OwnershipDirectory) Grant(resource, actorID string) {
	key := normalizeResource(resource)
	if key == "" || actorID == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.owners[key] == nil {
		d.owners[key] = make(map[string]bool)
	}
	d.owners[key][actorID] = true
}

// Owns reports whether actorID owns resource. Its signature matches the
// wiki OwnershipChecker so the method value can be passed directly.
func (d *OwnershipDirectory) Owns(ctx context.Context, actorID, resource string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.owners[normalizeResource(resource)][actorID]
}

func normalizeResource(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
