// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reqerr defines the error taxonomy shared by every pipeline stage.
// Adapters normalize backend and store failures into these kinds at their
// boundary so callers never branch on backend identity.
package reqerr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a malformed request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceNotFound marks a derived request whose source artifact is absent.
	ErrSourceNotFound = errors.New("source artifact not found")

	// ErrWrongArtifactKind marks a derived request whose source has the wrong kind.
	ErrWrongArtifactKind = errors.New("wrong artifact kind")

	// ErrBackendAuth marks rejected cloud credentials.
	ErrBackendAuth = errors.New("backend authentication failed")

	// ErrBackendQuota marks a rate-limited or exhausted cloud account.
	ErrBackendQuota = errors.New("backend quota exceeded")

	// ErrBackendUnavailable marks an unreachable backend or a missing model.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrPersistence marks a store write that failed after generation succeeded.
	ErrPersistence = errors.New("persistence failed")

	// ErrNotFound is returned by stores for an unknown artifact id.
	ErrNotFound = errors.New("not found")
)

// Error pairs a taxonomy sentinel with its cause. errors.Is matches both.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap attaches kind to err. A nil err yields nil.
func Wrap(kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// New builds an error of the given kind from a formatted message.
func New(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Classified reports whether err already carries one of the taxonomy kinds.
func Classified(err error) bool {
	return Code(err) != "internal"
}

// codes maps each kind to the stable identifier used in events and JSON.
var codes = []struct {
	kind error
	code string
}{
	{ErrInvalidInput, "invalid_input"},
	{ErrSourceNotFound, "source_not_found"},
	{ErrWrongArtifactKind, "wrong_artifact_kind"},
	{ErrBackendAuth, "backend_auth"},
	{ErrBackendQuota, "backend_quota"},
	{ErrBackendUnavailable, "backend_unavailable"},
	{ErrPersistence, "persistence"},
	{ErrNotFound, "not_found"},
}

// Code returns the stable snake_case code for err, or "internal".
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.kind) {
			return c.code
		}
	}
	return "internal"
}
