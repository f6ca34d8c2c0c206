// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"errors"
	"testing"

	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.GenerationRequest)
		wantErr error
	}{
		{"valid quick", func(r *types.GenerationRequest) {}, nil},
		{"unknown kind", func(r *types.GenerationRequest) { r.ArtifactKind = "X" }, reqerr.ErrInvalidInput},
		{"unknown mode", func(r *types.GenerationRequest) { r.InputMode = "fast" }, reqerr.ErrInvalidInput},
		{"unknown standard", func(r *types.GenerationRequest) { r.TemplateStandard = "rup" }, reqerr.ErrInvalidInput},
		{"unknown style", func(r *types.GenerationRequest) { r.ProcessStyle = "spiral" }, reqerr.ErrInvalidInput},
		{"unknown backend", func(r *types.GenerationRequest) { r.Backend = "edge" }, reqerr.ErrInvalidInput},
		{"empty language", func(r *types.GenerationRequest) { r.OutputLanguage = "" }, reqerr.ErrInvalidInput},
		{"derived without id", func(r *types.GenerationRequest) {
			r.ArtifactKind = types.KindSystem
			r.InputMode = types.ModeDerived
		}, reqerr.ErrInvalidInput},
		{"derived business", func(r *types.GenerationRequest) {
			r.InputMode = types.ModeDerived
			r.SourceArtifactID = "brd-1"
		}, reqerr.ErrWrongArtifactKind},
		{"derived functional", func(r *types.GenerationRequest) {
			r.ArtifactKind = types.KindFunctional
			r.InputMode = types.ModeDerived
			r.SourceArtifactID = "srs-1"
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(types.KindBusiness, types.ModeQuick)
			tt.mutate(&req)
			err := Validate(req)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
