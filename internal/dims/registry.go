// Package dims defines the DimensionRegistry contract the Encoder consults
// for property-value lane mapping, plus a simple in-memory implementation
// sufficient for an embedding host that has no richer dimension catalog.
package dims

// Registry is the external collaborator described in spec.md §6. The
// Encoder consults it to map recognized "key DIM_PAIR value" property
// patterns onto a specific lane index; when no mapping exists for a
// property or relation, the Encoder treats the pair as opaque atoms.
type Registry interface {
	// AxisForProperty returns the lane index for a scalar property name,
	// and whether a mapping exists.
	AxisForProperty(name string) (int, bool)
	// AxesForRelation returns every lane index a relation is known to
	// write when it appears in a property-value pair.
	AxesForRelation(relation string) []int
	// ExistenceIndex returns the lane used to mark "this concept exists"
	// when the encoder needs to flag an existence bit, if any.
	ExistenceIndex() (int, bool)
	// IsIsAVariant reports whether relation should be treated as a
	// synonym of "isA" for transitive subsumption purposes.
	IsIsAVariant(relation string) bool
}

// Simple is a deterministic, map-backed Registry. It is not part of the
// reasoning core's required contract -- a host may supply any Registry --
// but a session constructed without an explicit one defaults to Simple{}
// so property-value encoding degrades to "opaque atoms only" rather than
// panicking.
type Simple struct {
	Properties map[string]int
	Relations  map[string][]int
	Existence  *int
	IsAAliases map[string]bool
}

var _ Registry = (*Simple)(nil)

// NewSimple returns an empty Simple registry.
func NewSimple() *Simple {
	return &Simple{
		Properties: make(map[string]int),
		Relations:  make(map[string][]int),
		IsAAliases: make(map[string]bool),
	}
}

func (s *Simple) AxisForProperty(name string) (int, bool) {
	i, ok := s.Properties[name]
	return i, ok
}

func (s *Simple) AxesForRelation(relation string) []int {
	return s.Relations[relation]
}

func (s *Simple) ExistenceIndex() (int, bool) {
	if s.Existence == nil {
		return 0, false
	}
	return *s.Existence, true
}

func (s *Simple) IsIsAVariant(relation string) bool {
	if relation == "isA" {
		return true
	}
	return s.IsAAliases[relation]
}
