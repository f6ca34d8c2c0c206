// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// --- fake lookup ---

type mapLookup struct {
	artifacts map[string]*types.Artifact
	err       error
	calls     int
}

func (m *mapLookup) Get(_ context.Context, id string) (*types.Artifact, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.artifacts[id]
	if !ok {
		return nil, reqerr.Wrap(reqerr.ErrNotFound, errors.New(id))
	}
	return a, nil
}

func newLookup() *mapLookup {
	return &mapLookup{artifacts: map[string]*types.Artifact{
		"brd-1": {ID: "brd-1", Kind: types.KindBusiness, Title: "Bookstore BRD", Body: "# Bookstore BRD\n\nSell books online."},
		"srs-1": {ID: "srs-1", Kind: types.KindSystem, Title: "Bookstore SRS", Body: "# Bookstore SRS\n\nThe system shall..."},
		"frs-1": {ID: "frs-1", Kind: types.KindFunctional, Title: "Bookstore FRS", Body: "# Bookstore FRS"},
	}}
}

func strPtr(s string) *string { return &s }

func request(kind types.ArtifactKind, mode types.InputMode) types.GenerationRequest {
	return types.GenerationRequest{
		ArtifactKind:     kind,
		InputMode:        mode,
		TemplateStandard: types.StandardIEEE,
		OutputLanguage:   "English",
		ProcessStyle:     types.StyleWaterfall,
		Backend:          types.BackendLocal,
	}
}

// --- quick ---

func TestNormalizeQuick(t *testing.T) {
	req := request(types.KindBusiness, types.ModeQuick)
	req.RawInput.Text = "  Build an online bookstore \n"

	in, err := Normalize(context.Background(), req, nil)
	require.NoError(t, err)

	bi, ok := in.(BusinessInput)
	require.True(t, ok, "got %T", in)
	assert.Equal(t, "Build an online bookstore", bi.Project.Description)
	assert.Equal(t, types.ModeQuick, bi.Mode())
	assert.NotNil(t, bi.Project.Objectives)
	assert.NotNil(t, bi.Project.SuccessCriteria)
}

func TestNormalizeQuickEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		req := request(types.KindBusiness, types.ModeQuick)
		req.RawInput.Text = text
		_, err := Normalize(context.Background(), req, nil)
		assert.ErrorIs(t, err, reqerr.ErrInvalidInput, "text %q", text)
	}
}

func TestNormalizeQuickNeverFailsOnValidText(t *testing.T) {
	texts := []string{"x", "Build an online bookstore", "ERP för lager", "1234", "# heading only"}
	for _, kind := range []types.ArtifactKind{types.KindBusiness, types.KindSystem, types.KindFunctional} {
		for _, text := range texts {
			req := request(kind, types.ModeQuick)
			req.RawInput.Text = text
			in, err := Normalize(context.Background(), req, nil)
			require.NoError(t, err, "kind %s text %q", kind, text)
			assert.Equal(t, kind, in.Kind())
		}
	}
}

// --- guided ---

func TestNormalizeGuidedDefaults(t *testing.T) {
	req := request(types.KindSystem, types.ModeGuided)
	req.RawInput.Form = &types.GuidedForm{ProjectName: strPtr(" Shelf ")}

	in, err := Normalize(context.Background(), req, nil)
	require.NoError(t, err)

	si := in.(SystemInput)
	assert.Equal(t, "Shelf", si.Project.Name)
	assert.Equal(t, "", si.Project.Domain)
	assert.Equal(t, []string{}, si.Project.Objectives)
	assert.Equal(t, []string{}, si.Project.Stakeholders)
	assert.Equal(t, []string{}, si.Project.Constraints)
	assert.Equal(t, []string{}, si.Project.Assumptions)
	assert.Equal(t, []string{}, si.Project.SuccessCriteria)
	assert.Nil(t, si.Source)
}

func TestNormalizeGuidedEmptyFormAccepted(t *testing.T) {
	req := request(types.KindBusiness, types.ModeGuided)
	req.RawInput.Form = &types.GuidedForm{}
	_, err := Normalize(context.Background(), req, nil)
	assert.NoError(t, err)
}

func TestNormalizeGuidedMissingForm(t *testing.T) {
	req := request(types.KindBusiness, types.ModeGuided)
	_, err := Normalize(context.Background(), req, nil)
	assert.ErrorIs(t, err, reqerr.ErrInvalidInput)
}

func TestNormalizeGuidedIsRepeatable(t *testing.T) {
	form := &types.GuidedForm{
		ProjectName:  strPtr("Shelf"),
		Domain:       strPtr("e-commerce"),
		Objectives:   []string{" sell books ", "", "ship fast"},
		Stakeholders: []string{"buyers"},
	}
	req := request(types.KindBusiness, types.ModeGuided)
	req.RawInput.Form = form

	first, err := Normalize(context.Background(), req, nil)
	require.NoError(t, err)
	second, err := Normalize(context.Background(), req, nil)
	require.NoError(t, err)

	assert.True(t, reflect.DeepEqual(first, second))
	assert.Equal(t, []string{"sell books", "ship fast"}, first.Context().Objectives)
	// The caller's form is untouched.
	assert.Equal(t, []string{" sell books ", "", "ship fast"}, form.Objectives)
	assert.Nil(t, form.Scope)
}

// --- derived ---

func TestNormalizeDerivedSystemFromBusiness(t *testing.T) {
	lookup := newLookup()
	req := request(types.KindSystem, types.ModeDerived)
	req.SourceArtifactID = "brd-1"

	in, err := Normalize(context.Background(), req, lookup)
	require.NoError(t, err)

	si := in.(SystemInput)
	require.NotNil(t, si.Source)
	assert.Equal(t, "brd-1", si.Source.ID)
	assert.Equal(t, lookup.artifacts["brd-1"].Body, si.Source.Body)
	assert.Equal(t, "Bookstore BRD", si.Project.Name)
	assert.Same(t, si.Source, SourceOf(in))
}

func TestNormalizeDerivedIDFromRawText(t *testing.T) {
	req := request(types.KindFunctional, types.ModeDerived)
	req.RawInput.Text = " srs-1 "

	in, err := Normalize(context.Background(), req, newLookup())
	require.NoError(t, err)
	assert.Equal(t, "srs-1", SourceOf(in).ID)
}

func TestNormalizeDerivedErrors(t *testing.T) {
	tests := []struct {
		name    string
		kind    types.ArtifactKind
		source  string
		wantErr error
	}{
		{"system from functional", types.KindSystem, "frs-1", reqerr.ErrWrongArtifactKind},
		{"functional from business", types.KindFunctional, "brd-1", reqerr.ErrWrongArtifactKind},
		{"system from system", types.KindSystem, "srs-1", reqerr.ErrWrongArtifactKind},
		{"business has no source kind", types.KindBusiness, "brd-1", reqerr.ErrWrongArtifactKind},
		{"missing source", types.KindSystem, "nope", reqerr.ErrSourceNotFound},
		{"empty id", types.KindSystem, "", reqerr.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(tt.kind, types.ModeDerived)
			req.SourceArtifactID = tt.source
			_, err := Normalize(context.Background(), req, newLookup())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeDerivedLookupFailure(t *testing.T) {
	lookup := newLookup()
	lookup.err = errors.New("database is locked")
	req := request(types.KindSystem, types.ModeDerived)
	req.SourceArtifactID = "brd-1"

	_, err := Normalize(context.Background(), req, lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.NotErrorIs(t, err, reqerr.ErrPersistence)
	assert.False(t, reqerr.Classified(err))
	assert.Equal(t, "internal", reqerr.Code(err))
}

// --- shape invariance ---

func TestShapeInvariantAcrossModes(t *testing.T) {
	lookup := newLookup()

	quick := request(types.KindSystem, types.ModeQuick)
	quick.RawInput.Text = "Inventory system"
	guided := request(types.KindSystem, types.ModeGuided)
	guided.RawInput.Form = &types.GuidedForm{Description: strPtr("Inventory system")}
	derived := request(types.KindSystem, types.ModeDerived)
	derived.SourceArtifactID = "brd-1"

	var shapes []reflect.Type
	for _, req := range []types.GenerationRequest{quick, guided, derived} {
		in, err := Normalize(context.Background(), req, lookup)
		require.NoError(t, err)
		shapes = append(shapes, reflect.TypeOf(in))

		p := in.Context()
		assert.NotNil(t, p.Objectives)
		assert.NotNil(t, p.Stakeholders)
		assert.NotNil(t, p.Constraints)
		assert.NotNil(t, p.Assumptions)
		assert.NotNil(t, p.SuccessCriteria)
	}
	assert.Equal(t, shapes[0], shapes[1])
	assert.Equal(t, shapes[1], shapes[2])
}
