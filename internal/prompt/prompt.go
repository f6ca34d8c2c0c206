// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt compiles normalized input into a provider-agnostic
// instruction payload. Compilation is pure: the same input and options always
// yield a byte-identical payload.
// Implements: docs/ARCHITECTURE § Prompt Compilation.
package prompt

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/requirements-engine/internal/normalize"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// Options are the request settings that shape the payload.
type Options struct {
	Standard types.TemplateStandard
	Language string
	Style    types.ProcessStyle
}

// Payload is the compiled instruction. It is immutable; a backend consumes
// it in a single call.
type Payload struct {
	system string
	user   string
	key    TemplateKey
}

// System returns the system/role instruction.
func (p Payload) System() string { return p.system }

// User returns the task instruction.
func (p Payload) User() string { return p.user }

// Template returns the key of the embedded structure template.
func (p Payload) Template() TemplateKey { return p.key }

// Text returns the whole payload as one block for backends without a system role.
func (p Payload) Text() string { return p.system + "\n\n" + p.user }

// Digest returns the hex SHA-256 of the payload.
func (p Payload) Digest() string {
	h := sha256.New()
	h.Write([]byte(p.system))
	h.Write([]byte{0})
	h.Write([]byte(p.user))
	return fmt.Sprintf("%x", h.Sum(nil))
}

var personas = map[types.ArtifactKind]string{
	types.KindBusiness:   "You are a senior business analyst who writes business requirements documents for executive and stakeholder review.",
	types.KindSystem:     "You are a systems engineer who turns business requirements into precise, verifiable system requirements.",
	types.KindFunctional: "You are a software requirements engineer who decomposes system requirements into detailed functional requirements that developers and testers can implement and verify.",
}

var systemTmpl = template.Must(template.New("system").Parse(`{{.Persona}}

Language: write the entire document in {{.Language}}. Every heading, sentence and table cell must be in {{.Language}}, even when the input is in another language.

Output only the requested document in Markdown. Begin with exactly one level-1 heading holding the document title. Do not add commentary before or after the document.`))

var userTmpl = template.Must(template.New("user").Parse(`Produce a {{.DocumentName}} for the project described below.

## Project context
- Project name: {{or .Project.Name "(not provided)"}}
- Domain: {{or .Project.Domain "(not provided)"}}
- Scope: {{or .Project.Scope "(not provided)"}}
- Description: {{or .Project.Description "(not provided)"}}
{{- range .Lists}}
- {{.Label}}:{{if not .Items}} (not provided){{else}}{{range .Items}}
  - {{.}}{{end}}{{end}}
{{- end}}
{{if .Source}}
## Source document
The {{.DocumentName}} derives from {{.SourceName}} {{.Source.ID}} ("{{.Source.Title}}"), reproduced in full between the markers. Every requirement you write must trace to it; reference the source section numbers in the traceability section.

<<<SOURCE
{{.Source.Body}}
SOURCE>>>
{{end}}
## Enrichment
Do not merely restate the input. Infer the requirements a system in this domain conventionally needs even when the input does not state them: for example, an e-commerce domain implies user accounts and authentication, a product catalog, a shopping cart, checkout and payment, and order management. Mark each inferred requirement with "(inferred)".

## Required structure
Follow this structure exactly. Keep every heading, in this order, and replace <Project> with the project name.

{{.Structure}}
`))

type listField struct {
	Label string
	Items []string
}

type userData struct {
	DocumentName string
	SourceName   string
	Project      normalize.Project
	Lists        []listField
	Source       *normalize.Source
	Structure    string
}

// Compile builds the payload for in. It panics only if the template table is
// missing an entry for a validated key, which is a programming error.
func Compile(in normalize.Input, opts Options) Payload {
	key := TemplateKey{Kind: in.Kind(), Standard: opts.Standard, Style: opts.Style}
	structure, ok := Template(key)
	if !ok {
		panic(fmt.Sprintf("prompt: no template for %+v", key))
	}

	project := in.Context()
	data := userData{
		DocumentName: in.Kind().DocumentName(),
		Project:      project,
		Lists: []listField{
			{"Objectives", project.Objectives},
			{"Stakeholders", project.Stakeholders},
			{"Constraints", project.Constraints},
			{"Assumptions", project.Assumptions},
			{"Success criteria", project.SuccessCriteria},
		},
		Structure: structure,
	}
	switch v := in.(type) {
	case normalize.BusinessInput:
	case normalize.SystemInput:
		data.Source = v.Source
	case normalize.FunctionalInput:
		data.Source = v.Source
	default:
		panic(fmt.Sprintf("prompt: unknown input type %T", in))
	}
	if data.Source != nil {
		data.SourceName = data.Source.Kind.DocumentName()
	}

	var sys, user strings.Builder
	if err := systemTmpl.Execute(&sys, map[string]string{
		"Persona":  personas[in.Kind()],
		"Language": opts.Language,
	}); err != nil {
		panic(fmt.Sprintf("prompt: rendering system template: %v", err))
	}
	if err := userTmpl.Execute(&user, data); err != nil {
		panic(fmt.Sprintf("prompt: rendering user template: %v", err))
	}

	return Payload{system: sys.String(), user: user.String(), key: key}
}
