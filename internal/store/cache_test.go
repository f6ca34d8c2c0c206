// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// countingStore counts Get calls that reach the underlying store.
type countingStore struct {
	Artifacts
	gets int
}

func (c *countingStore) Get(ctx context.Context, id string) (*types.Artifact, error) {
	c.gets++
	return c.Artifacts.Get(ctx, id)
}

func TestCachedGet(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Artifacts: testStore(t)}
	c, err := NewCached(inner, 2)
	require.NoError(t, err)

	require.NoError(t, inner.Create(ctx, artifact("b1", types.KindBusiness, "", t0)))

	for range 3 {
		a, err := c.Get(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "b1", a.ID)
	}
	assert.Equal(t, 1, inner.gets)
	assert.Equal(t, 1, c.Len())
}

func TestCachedReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c, err := NewCached(testStore(t), 0)
	require.NoError(t, err)
	require.NoError(t, c.Create(ctx, artifact("b1", types.KindBusiness, "", t0)))

	a, err := c.Get(ctx, "b1")
	require.NoError(t, err)
	a.Title = "mutated"

	again, err := c.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Title b1", again.Title)
}

func TestCachedWritesPopulate(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Artifacts: testStore(t)}
	c, err := NewCached(inner, 8)
	require.NoError(t, err)

	require.NoError(t, c.CreateWithAudit(ctx, artifact("b1", types.KindBusiness, "", t0), audit("", types.BackendLocal, "llama", 1)))
	_, err = c.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 0, inner.gets)
}

func TestCachedMissesAreNotCached(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Artifacts: testStore(t)}
	c, err := NewCached(inner, 8)
	require.NoError(t, err)

	for range 2 {
		_, err := c.Get(ctx, "nope")
		assert.ErrorIs(t, err, reqerr.ErrNotFound)
	}
	assert.Equal(t, 2, inner.gets)

	// Lineage and the other reads pass through.
	require.NoError(t, c.Create(ctx, artifact("b1", types.KindBusiness, "", t0)))
	lineage, err := c.Lineage(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, lineage, 1)
}
