// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompt

import (
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// TemplateKey identifies one output-structure template.
type TemplateKey struct {
	Kind     types.ArtifactKind     `json:"kind"`
	Standard types.TemplateStandard `json:"standard"`
	Style    types.ProcessStyle     `json:"style"`
}

type structureKey struct {
	kind     types.ArtifactKind
	standard types.TemplateStandard
}

// structures holds the section skeleton for each kind and standard.
var structures = map[structureKey]string{
	{types.KindBusiness, types.StandardIEEE}: `# <Project> Business Requirements Specification
## 1. Introduction
### 1.1 Business purpose
### 1.2 Business scope
### 1.3 Business overview
### 1.4 Definitions, acronyms and abbreviations
## 2. References
## 3. Business management requirements
### 3.1 Business environment
### 3.2 Mission, goals and objectives
### 3.3 Business model
### 3.4 Information environment
## 4. Business operational requirements
### 4.1 Business processes
### 4.2 Business operational policies and rules
### 4.3 Business operational constraints
### 4.4 Business operational quality
## 5. User requirements
## 6. Concept of the proposed system
## 7. Project constraints
## 8. Appendix: assumptions and open issues`,

	{types.KindSystem, types.StandardIEEE}: `# <Project> System Requirements Specification
## 1. Introduction
### 1.1 System purpose
### 1.2 System scope
### 1.3 System overview
## 2. References
## 3. System requirements
### 3.1 Functional requirements
### 3.2 Usability requirements
### 3.3 Performance requirements
### 3.4 System interfaces
### 3.5 System operations
### 3.6 System modes and states
### 3.7 Security requirements
### 3.8 Information management requirements
### 3.9 Policies and regulations
### 3.10 System life cycle sustainment
## 4. Verification
## 5. Traceability to business requirements`,

	{types.KindFunctional, types.StandardIEEE}: `# <Project> Functional Requirements Specification
## 1. Introduction
### 1.1 Purpose
### 1.2 Scope
### 1.3 Product perspective
## 2. References
## 3. Specific requirements
### 3.1 External interfaces
### 3.2 Functions
### 3.3 Usability requirements
### 3.4 Performance requirements
### 3.5 Logical database requirements
### 3.6 Design constraints
### 3.7 Software system attributes
## 4. Verification
## 5. Traceability to system requirements`,

	{types.KindBusiness, types.StandardBABOK}: `# <Project> Business Requirements Document
## 1. Executive summary
## 2. Business need
## 3. Current state
## 4. Future state
## 5. Business requirements
## 6. Stakeholder requirements
## 7. Scope
### 7.1 In scope
### 7.2 Out of scope
## 8. Assumptions, constraints and dependencies
## 9. Risks
## 10. Success measures`,

	{types.KindSystem, types.StandardBABOK}: `# <Project> Solution Requirements Specification
## 1. Solution overview
## 2. Stakeholder requirements
## 3. Solution requirements
### 3.1 Functional requirements
### 3.2 Non-functional requirements
## 4. Interface requirements
## 5. Data requirements
## 6. Transition requirements
## 7. Traceability to business requirements`,

	{types.KindFunctional, types.StandardBABOK}: `# <Project> Functional Requirements Specification
## 1. Overview
## 2. Functional requirements by capability
## 3. Business rules
## 4. Data requirements
## 5. User interactions
## 6. Acceptance criteria
## 7. Traceability to solution requirements`,

	{types.KindBusiness, types.StandardVolere}: `# <Project> Business Requirements (Volere)
## 1. The purpose of the project
## 2. The stakeholders
## 3. Mandated constraints
## 4. Naming conventions and terminology
## 5. Relevant facts and assumptions
## 6. The scope of the work
## 7. Business data model
## 8. The scope of the product
## 9. Project issues
### 9.1 Open issues
### 9.2 Risks
### 9.3 Costs`,

	{types.KindSystem, types.StandardVolere}: `# <Project> System Requirements (Volere)
## 1. The scope of the product
## 2. Functional and data requirements
## 3. Look and feel requirements
## 4. Usability and humanity requirements
## 5. Performance requirements
## 6. Operational and environmental requirements
## 7. Maintainability and support requirements
## 8. Security requirements
## 9. Cultural requirements
## 10. Compliance requirements
## 11. Traceability to business requirements`,

	{types.KindFunctional, types.StandardVolere}: `# <Project> Functional Requirements (Volere)
## 1. Business use cases
## 2. Product use cases
## 3. Functional requirements
Each requirement uses the Volere shell: Requirement #, Requirement type,
Event/use case #, Description, Rationale, Originator, Fit criterion,
Customer satisfaction, Customer dissatisfaction, Priority, Conflicts.
## 4. Data requirements
## 5. Traceability to system requirements`,
}

// statementFormats controls how each requirement is phrased.
var statementFormats = map[types.ProcessStyle]string{
	types.StyleWaterfall: `Requirement statements:
- Write each requirement as a numbered "shall" statement:
  REQ-<AREA>-<NNN>: The <subject> shall <behaviour>.
- Give every requirement a priority (Must, Should, Could) and a verification
  method (Inspection, Analysis, Demonstration, Test).`,

	types.StyleAgile: `Requirement statements:
- Group requirements under epics and write each one as a user story:
  As a <role>, I want <capability> so that <benefit>.
- Give every story acceptance criteria in Given/When/Then form and a MoSCoW
  priority.`,
}

// Template returns the verbatim output-structure template for key.
func Template(key TemplateKey) (string, bool) {
	structure, ok := structures[structureKey{key.Kind, key.Standard}]
	if !ok {
		return "", false
	}
	statements, ok := statementFormats[key.Style]
	if !ok {
		return "", false
	}
	return structure + "\n\n" + statements, true
}
