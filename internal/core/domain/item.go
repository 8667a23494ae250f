package domain

import "time"

// ItemType is the closed set of requirement identifier types.
// The TYPE segment of an identifier must be one of these.
type ItemType string

const (
	// TypeHighLevel is a high-level requirement (HL).
	TypeHighLevel ItemType = "HL"

	// TypeLowLevel is a low-level requirement (LL).
	TypeLowLevel ItemType = "LL"

	// TypeComponent is a component specification (CMP).
	TypeComponent ItemType = "CMP"

	// TypeDecision is an architecture decision record (ADR).
	TypeDecision ItemType = "ADR"

	// TypeAPI is an API contract (API).
	TypeAPI ItemType = "API"

	// TypeData is a data/schema specification (DB).
	TypeData ItemType = "DB"

	// TypeTest is a test specification (TST).
	TypeTest ItemType = "TST"
)

// ItemTypes lists all valid item types in declaration order.
func ItemTypes() []ItemType {
	return []ItemType{
		TypeHighLevel,
		TypeLowLevel,
		TypeComponent,
		TypeDecision,
		TypeAPI,
		TypeData,
		TypeTest,
	}
}

// Valid reports whether t is a member of the closed type set.
func (t ItemType) Valid() bool {
	switch t {
	case TypeHighLevel, TypeLowLevel, TypeComponent, TypeDecision,
		TypeAPI, TypeData, TypeTest:
		return true
	}
	return false
}

// RequirementItem is a structured identifier parsed from a document revision.
// Items are never mutated in place; a new revision of the owning document
// produces a fresh set of items while old ones stay attached to their commit.
type RequirementItem struct {
	// ID is the unique identifier for the item row.
	ID string

	// RevisionID links to the owning DocumentRevision.
	RevisionID string

	// Identifier is the full structured string, e.g. "Y10K-PAY-CORE-HL-001".
	Identifier string

	// Type is the TYPE segment of the identifier.
	Type ItemType

	// Title is the nearest heading to the identifier declaration.
	Title string

	// Status is the front-matter status, if declared.
	Status string

	// Version is the front-matter version, if declared.
	Version string

	// Owner is the front-matter owner, if declared.
	Owner string

	// StartLine and EndLine delimit the declaration, 1-based inclusive.
	StartLine int
	EndLine   int

	// Metadata holds front-matter fields outside the typed core.
	Metadata map[string]string

	// CreatedAt is when the item row was written.
	CreatedAt time.Time
}

// RelationKind tags a traceability edge.
type RelationKind string

const (
	// RelationReference is a plain cross-reference.
	RelationReference RelationKind = "reference"

	// RelationImplements marks the source as implementing the target.
	RelationImplements RelationKind = "implements"

	// RelationTests marks the source as testing the target.
	RelationTests RelationKind = "tests"

	// RelationDepends marks a dependency on the target.
	RelationDepends RelationKind = "depends"

	// RelationBlocks marks the source as blocking the target.
	RelationBlocks RelationKind = "blocks"
)

// Valid reports whether k is a member of the closed relation set.
func (k RelationKind) Valid() bool {
	switch k {
	case RelationReference, RelationImplements, RelationTests,
		RelationDepends, RelationBlocks:
		return true
	}
	return false
}

// Link is a directed edge from a requirement item to a target identifier.
// The target may not resolve to any known item (a dangling link).
// Unique on (source item, target identifier, kind, commit).
type Link struct {
	// ID is the unique identifier for the link row.
	ID string

	// SourceItemID links to the RequirementItem that declares the edge.
	SourceItemID string

	// TargetIdentifier is the referenced identifier string.
	TargetIdentifier string

	// Kind is the relation kind.
	Kind RelationKind

	// CommitSHA is the commit at which the edge was recorded.
	CommitSHA string

	// Suspect is set when the target changed after this edge was recorded
	// and the referencing document has not been re-scanned since.
	Suspect bool

	// Line is the 1-based line of the link token in the source document.
	Line int
}
