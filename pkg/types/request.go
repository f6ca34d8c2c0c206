// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// InputMode selects how RawInput is interpreted.
type InputMode string

const (
	ModeQuick   InputMode = "quick"
	ModeGuided  InputMode = "guided"
	ModeDerived InputMode = "derived"
)

// TemplateStandard names the structural skeleton imposed on generated content.
type TemplateStandard string

const (
	StandardIEEE   TemplateStandard = "ieee"
	StandardBABOK  TemplateStandard = "babok"
	StandardVolere TemplateStandard = "volere"
)

// ProcessStyle selects how individual requirements are phrased.
type ProcessStyle string

const (
	StyleWaterfall ProcessStyle = "waterfall"
	StyleAgile     ProcessStyle = "agile"
)

// BackendChoice picks one of the two text-generation backends.
type BackendChoice string

const (
	BackendLocal BackendChoice = "local"
	BackendCloud BackendChoice = "cloud"
)

// GuidedForm is the structured input captured by the guided form. Every field
// is optional; the normalizer fills absent ones with empty values.
type GuidedForm struct {
	ProjectName     *string  `json:"project_name,omitempty" yaml:"project_name,omitempty"`
	Domain          *string  `json:"domain,omitempty" yaml:"domain,omitempty"`
	Description     *string  `json:"description,omitempty" yaml:"description,omitempty"`
	Scope           *string  `json:"scope,omitempty" yaml:"scope,omitempty"`
	Objectives      []string `json:"objectives,omitempty" yaml:"objectives,omitempty"`
	Stakeholders    []string `json:"stakeholders,omitempty" yaml:"stakeholders,omitempty"`
	Constraints     []string `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Assumptions     []string `json:"assumptions,omitempty" yaml:"assumptions,omitempty"`
	SuccessCriteria []string `json:"success_criteria,omitempty" yaml:"success_criteria,omitempty"`
}

// RawInput carries the caller's input. Text is used by quick mode (free text)
// and derived mode (artifact id); Form is used by guided mode.
type RawInput struct {
	Text string      `json:"text,omitempty" yaml:"text,omitempty"`
	Form *GuidedForm `json:"form,omitempty" yaml:"form,omitempty"`
}

// GenerationRequest is one caller request. It is never persisted.
type GenerationRequest struct {
	ArtifactKind     ArtifactKind     `json:"artifact_kind"`
	InputMode        InputMode        `json:"input_mode"`
	RawInput         RawInput         `json:"raw_input"`
	TemplateStandard TemplateStandard `json:"template_standard"`
	OutputLanguage   string           `json:"output_language"`
	ProcessStyle     ProcessStyle     `json:"process_style"`
	Backend          BackendChoice    `json:"backend"`
	SourceArtifactID string           `json:"source_artifact_id,omitempty"`
}
