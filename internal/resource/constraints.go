package resource

import "correctd/pkg/types"

// ResourceConstraint is the static memory/concurrency requirement of a model
// type, checked before any load.
type ResourceConstraint struct {
	// MinMemoryGB is the hard floor; a load is refused below it.
	MinMemoryGB float64
	// PreferredMemoryGB is what the backend wants for comfortable operation
	// and what mutual-exclusion math uses.
	PreferredMemoryGB float64
	// MaxConcurrent bounds concurrent sessions on the loaded backend.
	MaxConcurrent int
}

var constraints = map[types.ModelType]ResourceConstraint{
	types.ModelTypeTranscription: {MinMemoryGB: 2.0, PreferredMemoryGB: 4.0, MaxConcurrent: 2},
	types.ModelTypeLanguage:      {MinMemoryGB: 6.0, PreferredMemoryGB: 8.0, MaxConcurrent: 1},
}

// ConstraintFor returns the static constraint for a model type.
func ConstraintFor(mt types.ModelType) ResourceConstraint {
	return constraints[mt]
}

// mutuallyExclusive reports whether two model types cannot be co-resident
// under the given shared memory budget.
func mutuallyExclusive(a, b types.ModelType, budgetGB float64) bool {
	if a == b {
		return false
	}
	if budgetGB <= 0 {
		// Unknown budget: assume the worst for heavyweight pairs.
		return true
	}
	return constraints[a].PreferredMemoryGB+constraints[b].PreferredMemoryGB > budgetGB
}
