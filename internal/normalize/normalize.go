// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize maps the three input modes (quick, guided, derived) onto
// one internal representation so later stages never branch on mode.
// Implements: docs/ARCHITECTURE § Input Normalization.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// Project is the mode-independent project context every input carries.
// Slices are never nil.
type Project struct {
	Name            string
	Domain          string
	Description     string
	Scope           string
	Objectives      []string
	Stakeholders    []string
	Constraints     []string
	Assumptions     []string
	SuccessCriteria []string
}

// Source is the predecessor document of a derived input. Body is carried in
// full.
type Source struct {
	ID    string
	Kind  types.ArtifactKind
	Title string
	Body  string
}

// Input is the normalized input, a closed union over the three artifact
// kinds: BusinessInput, SystemInput and FunctionalInput.
type Input interface {
	Kind() types.ArtifactKind
	Mode() types.InputMode
	Context() Project
	isInput()
}

// BusinessInput feeds a business requirements document.
type BusinessInput struct {
	InputMode types.InputMode
	Project   Project
}

// SystemInput feeds a system requirements document. Source is set when the
// input was derived from a business artifact.
type SystemInput struct {
	InputMode types.InputMode
	Project   Project
	Source    *Source
}

// FunctionalInput feeds a functional requirements document. Source is set
// when the input was derived from a system artifact.
type FunctionalInput struct {
	InputMode types.InputMode
	Project   Project
	Source    *Source
}

func (BusinessInput) Kind() types.ArtifactKind   { return types.KindBusiness }
func (SystemInput) Kind() types.ArtifactKind     { return types.KindSystem }
func (FunctionalInput) Kind() types.ArtifactKind { return types.KindFunctional }

func (i BusinessInput) Mode() types.InputMode   { return i.InputMode }
func (i SystemInput) Mode() types.InputMode     { return i.InputMode }
func (i FunctionalInput) Mode() types.InputMode { return i.InputMode }

func (i BusinessInput) Context() Project   { return i.Project }
func (i SystemInput) Context() Project     { return i.Project }
func (i FunctionalInput) Context() Project { return i.Project }

func (BusinessInput) isInput()   {}
func (SystemInput) isInput()     {}
func (FunctionalInput) isInput() {}

// SourceOf returns the derived-mode source of in, or nil.
func SourceOf(in Input) *Source {
	switch v := in.(type) {
	case SystemInput:
		return v.Source
	case FunctionalInput:
		return v.Source
	}
	return nil
}

// Lookup fetches artifacts for derived mode. Implementations return an error
// matching reqerr.ErrNotFound for unknown ids.
type Lookup interface {
	Get(ctx context.Context, id string) (*types.Artifact, error)
}

// Normalize converts req into an Input. Validate should be called first;
// Normalize only checks what each mode needs to produce its output.
func Normalize(ctx context.Context, req types.GenerationRequest, lookup Lookup) (Input, error) {
	var (
		project Project
		source  *Source
	)

	switch req.InputMode {
	case types.ModeQuick:
		text := strings.TrimSpace(req.RawInput.Text)
		if text == "" {
			return nil, reqerr.New(reqerr.ErrInvalidInput, "quick input text is empty")
		}
		project = emptyProject()
		project.Description = text

	case types.ModeGuided:
		if req.RawInput.Form == nil {
			return nil, reqerr.New(reqerr.ErrInvalidInput, "guided input requires a form")
		}
		project = fromForm(req.RawInput.Form)

	case types.ModeDerived:
		src, err := fetchSource(ctx, req, lookup)
		if err != nil {
			return nil, err
		}
		source = src
		project = emptyProject()
		project.Name = src.Title

	default:
		return nil, reqerr.New(reqerr.ErrInvalidInput, "unknown input mode %q", req.InputMode)
	}

	return build(req.ArtifactKind, req.InputMode, project, source)
}

func build(kind types.ArtifactKind, mode types.InputMode, project Project, source *Source) (Input, error) {
	switch kind {
	case types.KindBusiness:
		if source != nil {
			return nil, reqerr.New(reqerr.ErrWrongArtifactKind, "business artifacts cannot be derived")
		}
		return BusinessInput{InputMode: mode, Project: project}, nil
	case types.KindSystem:
		return SystemInput{InputMode: mode, Project: project, Source: source}, nil
	case types.KindFunctional:
		return FunctionalInput{InputMode: mode, Project: project, Source: source}, nil
	}
	return nil, reqerr.New(reqerr.ErrInvalidInput, "unknown artifact kind %q", kind)
}

// SourceID returns the artifact id a derived request refers to.
func SourceID(req types.GenerationRequest) string {
	if id := strings.TrimSpace(req.SourceArtifactID); id != "" {
		return id
	}
	return strings.TrimSpace(req.RawInput.Text)
}

func fetchSource(ctx context.Context, req types.GenerationRequest, lookup Lookup) (*Source, error) {
	want, ok := req.ArtifactKind.Predecessor()
	if !ok {
		return nil, reqerr.New(reqerr.ErrWrongArtifactKind, "kind %s has no valid source kind", req.ArtifactKind)
	}
	id := SourceID(req)
	if id == "" {
		return nil, reqerr.New(reqerr.ErrInvalidInput, "derived input requires a source artifact id")
	}
	if lookup == nil {
		return nil, reqerr.New(reqerr.ErrSourceNotFound, "no artifact store to resolve %s", id)
	}

	a, err := lookup.Get(ctx, id)
	if err != nil {
		if errors.Is(err, reqerr.ErrNotFound) {
			return nil, reqerr.New(reqerr.ErrSourceNotFound, "artifact %s", id)
		}
		return nil, fmt.Errorf("reading source artifact %s: %w", id, err)
	}
	if a.Kind != want {
		return nil, reqerr.New(reqerr.ErrWrongArtifactKind,
			"%s artifacts derive from %s, source %s is %s", req.ArtifactKind, want, id, a.Kind)
	}
	return &Source{ID: a.ID, Kind: a.Kind, Title: a.Title, Body: a.Body}, nil
}

func emptyProject() Project {
	return Project{
		Objectives:      []string{},
		Stakeholders:    []string{},
		Constraints:     []string{},
		Assumptions:     []string{},
		SuccessCriteria: []string{},
	}
}

// fromForm copies f into a Project, defaulting absent fields. f is not
// modified.
func fromForm(f *types.GuidedForm) Project {
	return Project{
		Name:            deref(f.ProjectName),
		Domain:          deref(f.Domain),
		Description:     deref(f.Description),
		Scope:           deref(f.Scope),
		Objectives:      cleanList(f.Objectives),
		Stakeholders:    cleanList(f.Stakeholders),
		Constraints:     cleanList(f.Constraints),
		Assumptions:     cleanList(f.Assumptions),
		SuccessCriteria: cleanList(f.SuccessCriteria),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// cleanList returns a fresh slice of trimmed, non-empty entries.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
