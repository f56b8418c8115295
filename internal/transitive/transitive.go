// Package transitive implements TransitiveReasoner: chained reachability
// over a fixed set of transitive relations (isA, locatedIn, partOf, ...),
// with per-call cycle detection and multiplicative confidence decay
// (spec.md §4.7).
package transitive

import (
	"fmt"

	"sys2/internal/ast"
	"sys2/internal/kb"
)

// Reasoner chains facts under relations configured as transitive.
type Reasoner struct {
	KB        *kb.KB
	Relations map[string]bool
	Base      float64
	Decay     float64
}

// New constructs a Reasoner over the given transitive relation names.
func New(concepts *kb.KB, transitiveRelations []string, base, decay float64) *Reasoner {
	rels := make(map[string]bool, len(transitiveRelations))
	for _, r := range transitiveRelations {
		rels[r] = true
	}
	return &Reasoner{KB: concepts, Relations: rels, Base: base, Decay: decay}
}

// IsTransitive reports whether op is configured as a transitive relation.
func (r *Reasoner) IsTransitive(op string) bool { return r.Relations[op] }

// Chain extracts (op, s, t) from goal and searches for a chain s -> ... -> t
// under op. It is exhaustive over immediate neighbors before descending, so
// a one-hop solution always wins over a deeper one at the same recursion
// level. depth is the caller's current proof depth, used only so the
// confidence calculation composes sensibly with the surrounding prover; it
// does not bound the chain search itself (cycle detection does that).
func (r *Reasoner) Chain(op, subject, target string, depth int) (bool, float64) {
	if !r.IsTransitive(op) {
		return false, 0
	}
	visited := make(map[string]bool)
	return r.chain(op, subject, target, visited)
}

func (r *Reasoner) chain(op, subject, target string, visited map[string]bool) (bool, float64) {
	key := fmt.Sprintf("%s|%s|%s", op, subject, target)
	if visited[key] {
		return false, 0
	}
	visited[key] = true
	r.KB.IncTransitiveStep()

	neighbors := r.directTargets(op, subject)
	for _, x := range neighbors {
		if x == target {
			return true, r.Base
		}
	}
	for _, x := range neighbors {
		if ok, conf := r.chain(op, x, target, visited); ok {
			return true, conf * r.Decay
		}
	}
	return false, 0
}

func (r *Reasoner) directTargets(op, subject string) []string {
	facts := r.KB.LookupExact(op, ast.Atom(subject), ast.Hole("_"))
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		if f.Node.Object.Kind == ast.TermAtom {
			out = append(out, f.Node.Object.Name)
		}
	}
	return out
}

// Target is one reachable endpoint discovered by AllTransitiveTargets.
type Target struct {
	Name       string
	PathLen    int
	Confidence float64
}

// AllTransitiveTargets performs a cycle-safe DFS from subject under op,
// returning every reachable target together with its path length and
// per-hop-decayed confidence. Used by KBMatcher to enumerate candidate
// bindings for a hole in a transitive-relation goal.
func (r *Reasoner) AllTransitiveTargets(op, subject string, visited map[string]bool) []Target {
	if !r.IsTransitive(op) {
		return nil
	}
	if visited == nil {
		visited = make(map[string]bool)
	}
	return r.walk(op, subject, 1, r.Base, visited)
}

func (r *Reasoner) walk(op, subject string, pathLen int, confidence float64, visited map[string]bool) []Target {
	if visited[subject] {
		return nil
	}
	visited[subject] = true
	r.KB.IncTransitiveStep()

	var out []Target
	for _, x := range r.directTargets(op, subject) {
		out = append(out, Target{Name: x, PathLen: pathLen, Confidence: confidence})
		out = append(out, r.walk(op, x, pathLen+1, confidence*r.Decay, visited)...)
	}
	return out
}
