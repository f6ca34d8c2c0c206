// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/requirements-engine/internal/prompt"
	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// fakeBackend returns fixed content and counts calls.
type fakeBackend struct {
	name  types.BackendChoice
	err   error
	calls int
}

func (f *fakeBackend) Name() types.BackendChoice { return f.name }

func (f *fakeBackend) Generate(_ context.Context, _ prompt.Payload) (Result, error) {
	f.calls++
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{Content: "# Doc", Backend: f.name, Model: "fake"}, nil
}

func (f *fakeBackend) GenerateStream(_ context.Context, _ prompt.Payload) Stream {
	f.calls++
	return errStream{err: f.err}
}

func TestRegistryLookup(t *testing.T) {
	local := &fakeBackend{name: types.BackendLocal}
	cloud := &fakeBackend{name: types.BackendCloud}
	reg := NewRegistry(local, cloud)

	got, err := reg.Lookup(types.BackendLocal)
	require.NoError(t, err)
	assert.Same(t, local, got)

	got, err = reg.Lookup(types.BackendCloud)
	require.NoError(t, err)
	assert.Same(t, cloud, got)

	_, err = NewRegistry(local).Lookup(types.BackendCloud)
	assert.ErrorIs(t, err, reqerr.ErrInvalidInput)
}

func TestFromConfig(t *testing.T) {
	for _, provider := range []types.CloudProvider{"", types.ProviderOpenAI, types.ProviderGemini} {
		reg, err := FromConfig(context.Background(), types.BackendConfig{
			Cloud: types.CloudBackendConfig{Provider: provider},
		}, log.New(&bytes.Buffer{}, "", 0))
		require.NoError(t, err, "provider %q", provider)

		for _, choice := range []types.BackendChoice{types.BackendLocal, types.BackendCloud} {
			b, err := reg.Lookup(choice)
			require.NoError(t, err)
			assert.Equal(t, choice, b.Name())
		}
	}

	_, err := FromConfig(context.Background(), types.BackendConfig{
		Cloud: types.CloudBackendConfig{Provider: "anthropic"},
	}, nil)
	assert.Error(t, err)
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	ok := WithLogging(&fakeBackend{name: types.BackendLocal}, logger)
	res, err := ok.Generate(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, "# Doc", res.Content)
	assert.Contains(t, buf.String(), "backend request (local)")
	assert.NotContains(t, buf.String(), "error")

	buf.Reset()
	failing := WithLogging(&fakeBackend{name: types.BackendCloud, err: reqerr.New(reqerr.ErrBackendQuota, "quota")}, logger)
	s := failing.GenerateStream(context.Background(), testPayload())
	assert.False(t, s.Next())
	assert.False(t, s.Next())
	assert.True(t, errors.Is(s.Err(), reqerr.ErrBackendQuota))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("backend stream error (cloud)")))
}
