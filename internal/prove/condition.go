package prove

import (
	"sys2/internal/ast"
	"sys2/internal/config"
)

// Status is a three-valued proof outcome: Fail and Success are classical,
// Unknown is the open-world result prove_not returns for a never-attempted
// predicate when CWA is disabled.
type Status int

const (
	StatusFail Status = iota
	StatusSuccess
	StatusUnknown
)

// Prover implements ConditionProver: proves Atom | And | Or | Not trees
// against the KB via its wired Matcher.
type Prover struct {
	Matcher    *Matcher
	Thresholds config.ThresholdConfig
	CWA        bool
}

// NewProver constructs a Prover. The rule-chain recursion back into the
// proof engine goes through the GoalProver that Engine.Prove wires into
// matcher, not through the Prover itself.
func NewProver(matcher *Matcher, thresholds config.ThresholdConfig, cwa bool) *Prover {
	return &Prover{Matcher: matcher, Thresholds: thresholds, CWA: cwa}
}

// Prove dispatches on cond.Kind and returns the proof status, confidence,
// and the bindings in effect at success (unchanged on failure).
func (p *Prover) Prove(cond *ast.Condition, bindings ast.Binding, depth int) (Status, float64, ast.Binding) {
	switch cond.Kind {
	case ast.CondAtom:
		return p.proveAtom(cond.Node, bindings, depth)
	case ast.CondAnd:
		return p.proveAnd(cond.Parts, bindings, depth)
	case ast.CondOr:
		return p.proveOr(cond.Parts, bindings, depth)
	case ast.CondNot:
		return p.proveNot(cond.Inner, bindings, depth)
	default:
		return StatusFail, 0, bindings
	}
}

// proveAtom is also ProveWithUnboundVars from spec.md §4.8: whether or not
// node still contains variables, the first candidate FindAllMatches offers
// is tried, since backtracking across candidates happens one level up in
// proveAnd (the only place multiple candidates matter).
func (p *Prover) proveAtom(node *ast.Node, bindings ast.Binding, depth int) (Status, float64, ast.Binding) {
	candidates := p.Matcher.FindAllMatches(node, bindings, depth)
	if len(candidates) == 0 {
		return StatusFail, 0, bindings
	}
	best := candidates[0]
	return StatusSuccess, best.Confidence, best.Bindings
}

// proveAnd backtracks: for each candidate match of parts[0], extend
// bindings and recurse into the tail; if the tail fails, try the next
// candidate.
func (p *Prover) proveAnd(parts []*ast.Condition, bindings ast.Binding, depth int) (Status, float64, ast.Binding) {
	return p.proveAndFrom(parts, bindings, depth)
}

func (p *Prover) proveAndFrom(parts []*ast.Condition, bindings ast.Binding, depth int) (Status, float64, ast.Binding) {
	if len(parts) == 0 {
		return StatusSuccess, 1.0, bindings
	}
	head, tail := parts[0], parts[1:]

	if head.Kind == ast.CondAtom {
		for _, c := range p.Matcher.FindAllMatches(head.Node, bindings, depth) {
			status, tailConf, finalBindings := p.proveAndFrom(tail, c.Bindings, depth+1)
			if status == StatusSuccess {
				conf := min(c.Confidence, tailConf) * p.Thresholds.ConfidenceDecay
				return StatusSuccess, conf, finalBindings
			}
		}
		return StatusFail, 0, bindings
	}

	status, headConf, newBindings := p.Prove(head, bindings, depth+1)
	if status != StatusSuccess {
		return status, 0, bindings
	}
	tailStatus, tailConf, finalBindings := p.proveAndFrom(tail, newBindings, depth+1)
	if tailStatus != StatusSuccess {
		return tailStatus, 0, bindings
	}
	return StatusSuccess, min(headConf, tailConf) * p.Thresholds.ConfidenceDecay, finalBindings
}

// proveOr returns the first part that succeeds; confidence is that child's
// confidence times the decay constant.
func (p *Prover) proveOr(parts []*ast.Condition, bindings ast.Binding, depth int) (Status, float64, ast.Binding) {
	for _, part := range parts {
		status, conf, newBindings := p.Prove(part, bindings, depth+1)
		if status == StatusSuccess {
			return StatusSuccess, conf * p.Thresholds.ConfidenceDecay, newBindings
		}
	}
	return StatusFail, 0, bindings
}

// proveNot is negation-as-failure: if inner succeeds, Not fails; if inner
// fails, Not succeeds at a fixed confidence. Under open-world assumption
// (CWA disabled), a failed inner proof yields Unknown rather than success,
// since failure to find evidence is not evidence of absence.
func (p *Prover) proveNot(inner *ast.Condition, bindings ast.Binding, depth int) (Status, float64, ast.Binding) {
	status, _, _ := p.Prove(inner, bindings, depth+1)
	switch status {
	case StatusSuccess:
		return StatusFail, 0, bindings
	case StatusUnknown:
		return StatusUnknown, 0, bindings
	default: // StatusFail
		if p.CWA {
			return StatusSuccess, p.Thresholds.ConditionConfidence, bindings
		}
		return StatusUnknown, 0, bindings
	}
}
