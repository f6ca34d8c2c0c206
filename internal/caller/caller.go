// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package caller carries the opaque caller identity supplied by the
// authentication layer. It performs no authorization.
package caller

import "context"

type ctxKey struct{}

// WithID returns a context carrying the caller identity id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// ID returns the caller identity on ctx, or "" when none was attached.
func ID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
