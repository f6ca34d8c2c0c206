// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdiddy/requirements-engine/pkg/types"
)

const defaultCacheSize = 256

// Cached serves Get from an LRU cache in front of another store. Artifacts
// are immutable, so cached entries never go stale.
type Cached struct {
	Artifacts
	cache *lru.Cache[string, types.Artifact]
}

// NewCached wraps next with a cache of size entries. A non-positive size
// uses 256.
func NewCached(next Artifacts, size int) (*Cached, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, types.Artifact](size)
	if err != nil {
		return nil, fmt.Errorf("creating artifact cache: %w", err)
	}
	return &Cached{Artifacts: next, cache: cache}, nil
}

// Get returns a copy of the cached artifact, loading it on a miss.
func (c *Cached) Get(ctx context.Context, id string) (*types.Artifact, error) {
	if a, ok := c.cache.Get(id); ok {
		return &a, nil
	}
	a, err := c.Artifacts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, *a)
	return a, nil
}

// Create persists a and caches it.
func (c *Cached) Create(ctx context.Context, a *types.Artifact) error {
	if err := c.Artifacts.Create(ctx, a); err != nil {
		return err
	}
	c.cache.Add(a.ID, *a)
	return nil
}

// CreateWithAudit persists a and r and caches a.
func (c *Cached) CreateWithAudit(ctx context.Context, a *types.Artifact, r *types.AuditRecord) error {
	if err := c.Artifacts.CreateWithAudit(ctx, a, r); err != nil {
		return err
	}
	c.cache.Add(a.ID, *a)
	return nil
}

// Len reports the number of cached artifacts.
func (c *Cached) Len() int { return c.cache.Len() }
