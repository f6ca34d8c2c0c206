// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the requests, artifacts, audit records and
// configuration shared across the pipeline.
// Implements: docs/ARCHITECTURE § Data Model.
package types

import "time"

// ArtifactKind is the pipeline stage a requirements document belongs to.
type ArtifactKind string

const (
	KindBusiness   ArtifactKind = "B"
	KindSystem     ArtifactKind = "S"
	KindFunctional ArtifactKind = "F"
)

// Valid reports whether k is one of the three known kinds.
func (k ArtifactKind) Valid() bool {
	switch k {
	case KindBusiness, KindSystem, KindFunctional:
		return true
	}
	return false
}

// DocumentName returns the conventional short name of the document kind.
func (k ArtifactKind) DocumentName() string {
	switch k {
	case KindBusiness:
		return "BRD"
	case KindSystem:
		return "SRS"
	case KindFunctional:
		return "FRS"
	}
	return string(k)
}

// DefaultTitle is used when a generated body carries no top-level heading.
func (k ArtifactKind) DefaultTitle() string {
	return "Untitled " + k.DocumentName()
}

// Predecessor returns the kind a derived artifact of kind k must be sourced
// from. Business artifacts have no predecessor.
func (k ArtifactKind) Predecessor() (ArtifactKind, bool) {
	switch k {
	case KindSystem:
		return KindBusiness, true
	case KindFunctional:
		return KindSystem, true
	}
	return "", false
}

// Artifact is a persisted requirements document. Artifacts are immutable once
// created; SourceArtifactID links a derived document to its predecessor.
type Artifact struct {
	ID               string           `json:"id" yaml:"id"`
	Kind             ArtifactKind     `json:"kind" yaml:"kind"`
	Title            string           `json:"title" yaml:"title"`
	Body             string           `json:"body" yaml:"body"`
	TemplateStandard TemplateStandard `json:"template_standard" yaml:"template_standard"`
	ProcessStyle     ProcessStyle     `json:"process_style" yaml:"process_style"`
	OutputLanguage   string           `json:"output_language" yaml:"output_language"`
	SourceArtifactID string           `json:"source_artifact_id,omitempty" yaml:"source_artifact_id,omitempty"`

	// CreatedBy is the opaque caller identity supplied by the auth layer.
	CreatedBy string    `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// AuditRecord captures the provenance of one generation. Exactly one record
// exists per Artifact and it is never updated.
type AuditRecord struct {
	ArtifactID string    `json:"artifact_id" yaml:"artifact_id"`
	InputMode  InputMode `json:"input_mode" yaml:"input_mode"`

	// InputDigest is the hex SHA-256 of the compiled prompt payload.
	InputDigest  string        `json:"input_digest" yaml:"input_digest"`
	Backend      BackendChoice `json:"backend" yaml:"backend"`
	Model        string        `json:"model" yaml:"model"`
	ApproxTokens int           `json:"approx_tokens" yaml:"approx_tokens"`

	// Sections counts the headings in the generated body.
	Sections  int       `json:"sections" yaml:"sections"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// UsageSummary aggregates audit records per backend and model for cost
// accounting.
type UsageSummary struct {
	Backend     BackendChoice `json:"backend" yaml:"backend"`
	Model       string        `json:"model" yaml:"model"`
	Generations int           `json:"generations" yaml:"generations"`
	Tokens      int           `json:"tokens" yaml:"tokens"`
}
