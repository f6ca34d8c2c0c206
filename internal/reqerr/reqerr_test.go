// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reqerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapMatchesKindAndCause(t *testing.T) {
	cause := context.DeadlineExceeded
	err := Wrap(ErrBackendUnavailable, cause)

	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrBackendQuota)
	assert.Equal(t, "backend unavailable: context deadline exceeded", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(ErrPersistence, nil))
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{New(ErrInvalidInput, "empty text"), "invalid_input"},
		{New(ErrSourceNotFound, "id %s", "x"), "source_not_found"},
		{New(ErrWrongArtifactKind, "F from B"), "wrong_artifact_kind"},
		{Wrap(ErrBackendAuth, errors.New("401")), "backend_auth"},
		{Wrap(ErrBackendQuota, errors.New("429")), "backend_quota"},
		{fmt.Errorf("generating: %w", Wrap(ErrBackendUnavailable, errors.New("dial"))), "backend_unavailable"},
		{Wrap(ErrPersistence, errors.New("disk full")), "persistence"},
		{ErrNotFound, "not_found"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestClassified(t *testing.T) {
	assert.True(t, Classified(New(ErrBackendQuota, "slow down")))
	assert.False(t, Classified(errors.New("plain")))
}
