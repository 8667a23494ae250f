package driven

import "github.com/Y10K-tech/reqstudio/internal/core/domain"

// FieldPolicy supplies per-type required front-matter fields.
// The core validates parsed items against it and reports violations as
// warnings; the policy itself lives outside the core (config-backed).
type FieldPolicy interface {
	// RequiredFields returns the front-matter keys an item of the given
	// type must declare. Keys match the typed core names ("Version",
	// "Owner", "Status") or metadata bag keys.
	RequiredFields(t domain.ItemType) []string
}
