// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RepoSource: Read-only access to the git-backed document corpus
//   - IndexStore: Durable relational state (documents, items, links,
//     embeddings, baselines)
//   - FieldPolicy: Per-type required front-matter field validation
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, scans
//     still index structure; vector and hybrid search are disabled and
//     items stay flagged for a later embed pass.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
