package domain

// Search pagination bounds. Requests above MaxSearchLimit are capped.
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 200
)

// VectorDimension selects which stored vector a search runs against.
type VectorDimension string

const (
	// DimensionFull searches the full-dimension vectors.
	DimensionFull VectorDimension = "full"

	// DimensionTruncated searches the cheaper prefix vectors.
	DimensionTruncated VectorDimension = "truncated"
)

// SearchRequest configures a vector or hybrid search.
type SearchRequest struct {
	// Query is the free-text query.
	Query string

	// Limit is the maximum number of results (default 20, capped at 200).
	Limit int

	// Dimension selects full or truncated vectors. Defaults to full.
	Dimension VectorDimension

	// Alpha is the hybrid weighting: alpha*vector + (1-alpha)*lexical.
	// Only read by hybrid search; defaults to 0.7.
	Alpha float64

	// Types filters results to specific item types, when non-empty.
	Types []ItemType
}

// Clamp normalizes Limit, Dimension and Alpha to their defaults and caps.
func (r *SearchRequest) Clamp() {
	if r.Limit <= 0 {
		r.Limit = DefaultSearchLimit
	}
	if r.Limit > MaxSearchLimit {
		r.Limit = MaxSearchLimit
	}
	if r.Dimension == "" {
		r.Dimension = DimensionFull
	}
	if r.Alpha <= 0 || r.Alpha > 1 {
		r.Alpha = 0.7
	}
}

// SearchResult is one ranked hit.
type SearchResult struct {
	// Identifier is the matched item's identifier string.
	Identifier string

	// Title is the item title.
	Title string

	// Type is the item type.
	Type ItemType

	// Path is the document path the item was parsed from.
	Path string

	// Similarity is the vector similarity component, [-1, 1].
	Similarity float64

	// Score is the final ranking score. Equal to Similarity for
	// vector-only search; the weighted sum for hybrid search.
	Score float64
}

// LinkSuggestion is a candidate traceability edge for an item.
type LinkSuggestion struct {
	// TargetIdentifier is the suggested link target.
	TargetIdentifier string

	// Title is the target item's title.
	Title string

	// Type is the target item's type.
	Type ItemType

	// Similarity is the embedding similarity between source and target.
	Similarity float64

	// Score is the ranking value: Similarity plus the target-type bias.
	Score float64
}

// MatrixRow groups one requirement with the components that implement it
// and the tests that verify it, derived from link edges.
type MatrixRow struct {
	// Requirement is the requirement identifier.
	Requirement string

	// Title is the requirement title.
	Title string

	// Components lists identifiers linking to the requirement with
	// kind "implements" (or any CMP-typed referencing item).
	Components []string

	// Tests lists identifiers linking to the requirement with
	// kind "tests" (or any TST-typed referencing item).
	Tests []string

	// Commits lists commit SHAs whose subjects mention the requirement.
	Commits []string

	// Suspect is set when any inbound edge is currently suspect.
	Suspect bool

	// Dangling lists outbound targets that resolve to no known item.
	Dangling []string
}
