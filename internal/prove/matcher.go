// Package prove implements KBMatcher, ConditionProver, and ProofEngine
// (spec.md §4.6-§4.9). KBMatcher's rule-chained candidates need to prove a
// premise that is itself a full goal node -- exactly what ProofEngine does
// at the top level, cycle detection, depth limit, timeout and all. Rather
// than duplicate that bookkeeping inside KBMatcher (which would let a rule
// whose premise restates its own head recurse forever, unseen by the top
// level's visited set), KBMatcher calls back into the same
// goal-proving entry point through the GoalProver hook Engine installs.
package prove

import (
	"fmt"

	"sys2/internal/ast"
	"sys2/internal/config"
	"sys2/internal/kb"
	"sys2/internal/transitive"
	"sys2/internal/vector"
)

// Candidate is one binding extension KBMatcher offers the prover, together
// with the proof-step cost and confidence of reaching it.
type Candidate struct {
	Bindings   ast.Binding
	Steps      int
	Confidence float64
	Method     string
}

// GoalProver proves a full (possibly rule-derivable) ground goal node,
// honoring the caller's depth/timeout/cycle bookkeeping. Engine installs
// this as a closure over its own proveGoal so that a rule premise found by
// FindAllMatches shares the same visited-set and deadline as the top-level
// call that triggered it.
type GoalProver func(goal *ast.Node, depth int) (bool, float64)

// Matcher feeds candidate bindings to the ConditionProver. GoalProver must
// be set (via Wire) before FindAllMatches's rule-chain branch can recurse
// through rules; Engine.Prove re-wires it at the start of every call.
type Matcher struct {
	KB         *kb.KB
	Transitive *transitive.Reasoner
	Thresholds config.ThresholdConfig
	GoalProver GoalProver
}

// NewMatcher constructs a Matcher. Call Wire afterwards to install its
// GoalProver.
func NewMatcher(concepts *kb.KB, reasoner *transitive.Reasoner, thresholds config.ThresholdConfig) *Matcher {
	return &Matcher{KB: concepts, Transitive: reasoner, Thresholds: thresholds}
}

// Wire installs the GoalProver callback.
func (m *Matcher) Wire(gp GoalProver) { m.GoalProver = gp }

// TryDirect is a pure similarity match against every fact, returning the
// best match if its similarity is >= the strategy's similarity floor.
func (m *Matcher) TryDirect(goalVec vector.Vector) (bool, float64) {
	simMin := m.Thresholds.Similarity
	if m.KB.Space().Strategy == vector.Sparse {
		simMin = 0.05
	}
	matches := m.KB.LookupSimilar(goalVec, simMin)
	if len(matches) == 0 {
		return false, 0
	}
	return true, matches[0].Similarity
}

// FindExact performs an exact metadata match, reporting DIRECT_MATCH
// confidence on success.
func (m *Matcher) FindExact(operator string, subject, object ast.Term) (bool, float64) {
	facts := m.KB.LookupExact(operator, subject, object)
	if len(facts) == 0 {
		return false, 0
	}
	return true, m.Thresholds.DirectMatch
}

// FindAllMatches enumerates every way node (instantiated under bindings)
// can be satisfied: direct KB matches, transitive-reasoner matches when the
// relation is transitive, the subject is an atom and the object is still a
// hole (a subject hole gets no transitive candidates), and rule-chained
// matches when the instantiated node is fully ground and no direct or
// transitive match exists.
func (m *Matcher) FindAllMatches(node *ast.Node, bindings ast.Binding, depth int) []Candidate {
	inst := ast.InstantiateNode(node, bindings)

	if inst.IsGround() {
		return m.findAllGround(inst, bindings, depth)
	}
	return m.findAllWithHoles(inst, bindings)
}

func (m *Matcher) findAllGround(inst *ast.Node, bindings ast.Binding, depth int) []Candidate {
	var out []Candidate
	for _, f := range m.KB.LookupExact(inst.Relation, inst.Subject, inst.Object) {
		out = append(out, Candidate{Bindings: bindings, Steps: 1, Confidence: f.Confidence, Method: "Direct"})
	}
	if len(out) > 0 {
		return out
	}

	if m.Transitive.IsTransitive(inst.Relation) && inst.Subject.Kind == ast.TermAtom && inst.Object.Kind == ast.TermAtom {
		if ok, conf := m.Transitive.Chain(inst.Relation, inst.Subject.Name, inst.Object.Name, depth); ok {
			return []Candidate{{Bindings: bindings, Steps: 1, Confidence: conf, Method: "Transitive"}}
		}
	}

	if ok, conf, err := m.TryRuleChain(inst, depth+1); err == nil && ok {
		return []Candidate{{Bindings: bindings, Steps: 1, Confidence: conf, Method: "RuleChain"}}
	}
	return nil
}

func (m *Matcher) findAllWithHoles(inst *ast.Node, bindings ast.Binding) []Candidate {
	var out []Candidate
	for _, f := range m.KB.LookupExact(inst.Relation, inst.Subject, inst.Object) {
		nb := bindings
		if inst.Subject.Kind == ast.TermHole && f.Node.Subject.Kind == ast.TermAtom {
			nb = nb.Extend(inst.Subject.Name, f.Node.Subject.Name)
		}
		if inst.Object.Kind == ast.TermHole && f.Node.Object.Kind == ast.TermAtom {
			nb = nb.Extend(inst.Object.Name, f.Node.Object.Name)
		}
		out = append(out, Candidate{Bindings: nb, Steps: 1, Confidence: f.Confidence, Method: "Direct"})
	}

	if m.Transitive.IsTransitive(inst.Relation) && inst.Subject.Kind == ast.TermAtom && inst.Object.Kind == ast.TermHole {
		for _, tg := range m.Transitive.AllTransitiveTargets(inst.Relation, inst.Subject.Name, nil) {
			nb := bindings.Extend(inst.Object.Name, tg.Name)
			out = append(out, Candidate{Bindings: nb, Steps: tg.PathLen, Confidence: tg.Confidence, Method: "Transitive"})
		}
	}
	return out
}

// TryRuleChain asks whether goalNode is provable at all -- via direct
// match, rule, or transitive chain -- by delegating to the wired
// GoalProver, which is ProofEngine's own entry point and therefore shares
// its cycle/depth/timeout bookkeeping.
func (m *Matcher) TryRuleChain(goalNode *ast.Node, depth int) (bool, float64, error) {
	if m.GoalProver == nil {
		return false, 0, fmt.Errorf("prove: matcher has no wired GoalProver")
	}
	ok, conf := m.GoalProver(goalNode, depth)
	return ok, conf, nil
}

// matchingConsequent picks which of rule's consequent nodes can conclude
// relation: its primary Conclusion always qualifies; a non-primary
// Consequents entry only qualifies when expand is set (spec.md §9's
// ExpandConjunctiveConsequents), since otherwise a rule proves only its
// primary conclusion.
func matchingConsequent(rule *ast.Rule, relation string, expand bool) (*ast.Node, bool) {
	if rule.Conclusion.Relation == relation {
		return rule.Conclusion, true
	}
	if !expand {
		return nil, false
	}
	for _, c := range rule.Consequents {
		if c.Relation == relation {
			return c, true
		}
	}
	return nil, false
}

// unifyConclusion unifies a rule's (possibly variable) conclusion against a
// concrete goal node, producing bindings if every atom slot matches
// literally and every hole slot can be bound to the goal's atom.
func unifyConclusion(conclusion, goal *ast.Node) (ast.Binding, bool) {
	if conclusion.Relation != goal.Relation {
		return nil, false
	}
	bindings := ast.Binding{}
	var ok bool
	bindings, ok = unifyTerm(conclusion.Subject, goal.Subject, bindings)
	if !ok {
		return nil, false
	}
	bindings, ok = unifyTerm(conclusion.Object, goal.Object, bindings)
	if !ok {
		return nil, false
	}
	return bindings, true
}

func unifyTerm(pattern, ground ast.Term, bindings ast.Binding) (ast.Binding, bool) {
	switch pattern.Kind {
	case ast.TermHole:
		if ground.Kind != ast.TermAtom {
			return bindings, false
		}
		return bindings.Extend(pattern.Name, ground.Name), true
	case ast.TermAtom:
		if ground.Kind != ast.TermAtom || ground.Name != pattern.Name {
			return bindings, false
		}
		return bindings, true
	default:
		return bindings, false
	}
}
