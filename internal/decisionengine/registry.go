package decisionengine

import (
	"fmt"
	"sort"
)

// Registry is the ordered specification chain.
type Registry struct {
	specs []Specification
}

// NewRegistry orders specs by priority tier, keeping registration order within a tier.
func NewRegistry(specs ...Specification) (*Registry, error) {
	seen := make(map[string]bool, len(specs))
	ordered := make([]Specification, 0, len(specs))
	for _, s := range specs {
		if s == nil {
			continue
		}
		if seen[s.Name()] {
			return nil, fmt.Errorf("specification %q registered twice", s.Name())
		}
		seen[s.Name()] = true
		ordered = append(ordered, s)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})
	return &Registry{specs: ordered}, nil
}

// Specifications returns the chain in evaluation order.
func (r *Registry) Specifications() []Specification {
	out := make([]Specification, len(r.specs))
	copy(out, r.specs)
	return out
}

// Names returns the specification names in evaluation order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.specs))
	for i, s := range r.specs {
		names[i] = s.Name()
	}
	return names
}

// Len returns the number of registered specifications.
func (r *Registry) Len() int {
	return len(r.specs)
}
