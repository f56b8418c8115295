// Package encode implements the Encoder: turns a parsed (subject, relation,
// object) Node, or a bounded tree of them, into a single hypervector via
// permutation binding and saturated bundling.
package encode

import (
	"strconv"
	"strings"

	"sys2/internal/ast"
	"sys2/internal/audit"
	"sys2/internal/dims"
	"sys2/internal/permute"
	"sys2/internal/vector"
	"sys2/internal/vocab"
)

// Encoder turns Nodes into vectors. It never fails: unregistered relations
// are registered on the fly (with an audit note), and missing atoms are
// created on demand via Vocabulary.Intern.
type Encoder struct {
	Space    *vector.Space
	Vocab    *vocab.Vocabulary
	Permuter *permute.Permuter
	Horizon  int
	Dims     dims.Registry
	Audit    audit.Sink
}

// New constructs an Encoder. dimsRegistry may be nil, in which case
// property-value pairs are always treated as opaque atoms.
func New(space *vector.Space, vocabulary *vocab.Vocabulary, permuter *permute.Permuter, horizon int, dimsRegistry dims.Registry, sink audit.Sink) *Encoder {
	if dimsRegistry == nil {
		dimsRegistry = dims.NewSimple()
	}
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Encoder{Space: space, Vocab: vocabulary, Permuter: permuter, Horizon: horizon, Dims: dimsRegistry, Audit: sink}
}

// Encode implements the contract of spec.md §4.3: beyond the recursion
// horizon it returns the zero vector; an atom encodes to its interned
// vector; a triple encodes to bundle(encode(subject), permute(encode(object),
// P(relation))), with an additional clamped affine lane write for
// recognized numeric property-value pairs.
func (e *Encoder) Encode(node *ast.Node, depth int) vector.Vector {
	if depth > e.Horizon {
		return e.Space.Zero()
	}
	if node == nil {
		return e.Space.Zero()
	}

	subjVec := e.encodeTerm(node.Subject, depth)
	objVec := e.encodeTerm(node.Object, depth)

	if !e.Permuter.Registered(node.Relation) {
		e.Audit.Notify(audit.Event{
			Timestamp: ast.Now(),
			Type:      audit.EventUnknownRelation,
			Message:   "relation registered on first encode",
			Payload:   map[string]string{"relation": node.Relation},
		})
	}
	table := e.Permuter.Table(node.Relation)
	permutedObj := vector.Permute(objVec, table)

	result := vector.Bundle([]vector.Vector{subjVec, permutedObj}, []string{subjectKey(node), node.Relation})

	if axis, ok := e.propertyAxis(node); ok {
		if value, ok := numericValue(node.Object); ok {
			result = result.Clone()
			result.Lanes[axis] = clampLane(value)
		}
	}

	return result
}

// encodeTerm encodes one slot of a Node: an atom interns directly, a hole
// interns under a reserved prefix (holes never appear in ground facts but
// the Encoder must not fail if one reaches it), and a nested node recurses
// one level deeper, subject to the horizon.
func (e *Encoder) encodeTerm(t ast.Term, depth int) vector.Vector {
	switch t.Kind {
	case ast.TermAtom:
		return e.Vocab.Intern(t.Name)
	case ast.TermHole:
		return e.Vocab.Intern("?" + t.Name)
	case ast.TermNode:
		return e.Encode(t.Node, depth+1)
	default:
		return e.Space.Zero()
	}
}

// propertyAxis recognizes a "key DIM_PAIR value" shape: the object is a
// numeric literal and the DimensionRegistry maps the relation to a lane.
func (e *Encoder) propertyAxis(node *ast.Node) (int, bool) {
	if axis, ok := e.Dims.AxisForProperty(node.Relation); ok {
		return axis, true
	}
	if axes := e.Dims.AxesForRelation(node.Relation); len(axes) > 0 {
		return axes[0], true
	}
	return 0, false
}

func numericValue(t ast.Term) (float64, bool) {
	if t.Kind != ast.TermAtom {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(t.Name), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// clampLane applies the identity affine mapping (scale 1, offset 0)
// clamped to the signed-byte lane range. The dimension catalog (what scale
// and offset a given axis really wants) is data owned by the host's
// DimensionRegistry, not part of this core's contract (spec.md §1), so a
// richer affine transform belongs in a Registry implementation, not here.
func clampLane(value float64) int8 {
	if value > 127 {
		return 127
	}
	if value < -127 {
		return -127
	}
	return int8(value)
}

func subjectKey(n *ast.Node) string {
	if n.Subject.Kind == ast.TermAtom {
		return n.Subject.Name
	}
	return n.Relation
}
