// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"fmt"
	"log"

	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// Registry is the fixed mapping from backend choice to implementation,
// built once at startup.
type Registry struct {
	backends map[types.BackendChoice]Backend
}

// NewRegistry indexes backends by Name. A later backend with the same name
// replaces an earlier one.
func NewRegistry(backends ...Backend) Registry {
	m := make(map[types.BackendChoice]Backend, len(backends))
	for _, b := range backends {
		m[b.Name()] = b
	}
	return Registry{backends: m}
}

// Lookup returns the backend for choice.
func (r Registry) Lookup(choice types.BackendChoice) (Backend, error) {
	b, ok := r.backends[choice]
	if !ok {
		return nil, reqerr.New(reqerr.ErrInvalidInput, "backend %q is not configured", choice)
	}
	return b, nil
}

// FromConfig builds the local backend and the cloud backend for the
// configured provider, each wrapped with request logging. A nil logger uses
// log.Default().
func FromConfig(ctx context.Context, cfg types.BackendConfig, logger *log.Logger) (Registry, error) {
	local := NewLocalBackend(cfg.Local)

	var cloud Backend
	switch cfg.Cloud.Provider {
	case types.ProviderOpenAI, "":
		cloud = NewOpenAIBackend(cfg.Cloud)
	case types.ProviderGemini:
		cloud = NewGeminiBackend(ctx, cfg.Cloud)
	default:
		return Registry{}, fmt.Errorf("unknown cloud provider %q (want openai or gemini)", cfg.Cloud.Provider)
	}

	return NewRegistry(WithLogging(local, logger), WithLogging(cloud, logger)), nil
}
