package file

import (
	"github.com/Y10K-tech/reqstudio/internal/core/domain"
	"github.com/Y10K-tech/reqstudio/internal/core/ports/driven"
)

// Ensure Policy implements the interface.
var _ driven.FieldPolicy = (*Policy)(nil)

// Policy is a config-backed required-field policy.
type Policy struct {
	required map[string][]string
}

// NewPolicy creates a policy from the config's [policy] section.
func NewPolicy(cfg PolicyConfig) *Policy {
	return &Policy{required: cfg.RequiredFields}
}

// RequiredFields returns the front-matter keys an item of the given
// type must declare. Unknown types require nothing.
func (p *Policy) RequiredFields(t domain.ItemType) []string {
	if p.required == nil {
		return nil
	}
	return p.required[string(t)]
}
