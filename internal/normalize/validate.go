// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// Validate checks the shape of req before any lookup or backend call.
func Validate(req types.GenerationRequest) error {
	if !req.ArtifactKind.Valid() {
		return reqerr.New(reqerr.ErrInvalidInput, "unknown artifact kind %q", req.ArtifactKind)
	}
	switch req.InputMode {
	case types.ModeQuick, types.ModeGuided:
	case types.ModeDerived:
		if _, ok := req.ArtifactKind.Predecessor(); !ok {
			return reqerr.New(reqerr.ErrWrongArtifactKind, "kind %s has no valid source kind", req.ArtifactKind)
		}
		if SourceID(req) == "" {
			return reqerr.New(reqerr.ErrInvalidInput, "derived input requires a source artifact id")
		}
	default:
		return reqerr.New(reqerr.ErrInvalidInput, "unknown input mode %q", req.InputMode)
	}
	switch req.TemplateStandard {
	case types.StandardIEEE, types.StandardBABOK, types.StandardVolere:
	default:
		return reqerr.New(reqerr.ErrInvalidInput, "unknown template standard %q", req.TemplateStandard)
	}
	switch req.ProcessStyle {
	case types.StyleWaterfall, types.StyleAgile:
	default:
		return reqerr.New(reqerr.ErrInvalidInput, "unknown process style %q", req.ProcessStyle)
	}
	switch req.Backend {
	case types.BackendLocal, types.BackendCloud:
	default:
		return reqerr.New(reqerr.ErrInvalidInput, "unknown backend %q", req.Backend)
	}
	if req.OutputLanguage == "" {
		return reqerr.New(reqerr.ErrInvalidInput, "output language is required")
	}
	return nil
}
