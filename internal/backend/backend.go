// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backend is the uniform interface over the two text-generation
// backends (local and cloud). Each backend offers a blocking and an
// incremental calling convention and normalizes its failures into the
// reqerr taxonomy, so callers never branch on backend identity.
// Implements: docs/ARCHITECTURE § Backends.
package backend

import (
	"context"
	"strings"
	"time"

	"github.com/pdiddy/requirements-engine/internal/prompt"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// Result is the outcome of a blocking generation.
type Result struct {
	Content string
	Backend types.BackendChoice
	Model   string

	// Tokens is the total token count reported by the backend, or 0.
	Tokens int
}

// Fragment is one incremental piece of generated text.
type Fragment struct {
	Text    string
	Backend types.BackendChoice
	Model   string
}

// Stream is a finite, pull-based sequence of fragments. It is not
// restartable. Next advances and reports whether Current holds a fragment;
// once Next returns false, Err reports why (nil on clean completion). Close
// abandons the in-flight call and must be called exactly once by the
// consumer; stopping early is how a consumer cancels.
type Stream interface {
	Next() bool
	Current() Fragment
	Err() error
	Close() error
}

// Backend generates text from a compiled payload. Implementations do not
// retry.
type Backend interface {
	Name() types.BackendChoice
	Generate(ctx context.Context, p prompt.Payload) (Result, error)
	GenerateStream(ctx context.Context, p prompt.Payload) Stream
}

// ApproxTokens is a rough token count used when a backend reports none:
// the number of whitespace-delimited words.
func ApproxTokens(text string) int {
	return len(strings.Fields(text))
}

// errStream is a Stream that fails before yielding anything.
type errStream struct{ err error }

func (s errStream) Next() bool        { return false }
func (s errStream) Current() Fragment { return Fragment{} }
func (s errStream) Err() error        { return s.err }
func (s errStream) Close() error      { return nil }

// callContext applies the per-backend timeout. A zero timeout leaves ctx
// unbounded.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func orDefault(reported, fallback string) string {
	if reported != "" {
		return reported
	}
	return fallback
}
