// Package domain defines the core entities for the ReqStudio index.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Repository: A tracked git working tree
//   - Document / DocumentRevision: A tracked file and its per-commit snapshots
//   - RequirementItem: A structured identifier parsed from a revision
//   - Link: A directed traceability edge between items
//   - Baseline: An immutable identifier -> revision snapshot
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
