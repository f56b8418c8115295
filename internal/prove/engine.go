package prove

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"sys2/internal/ast"
	"sys2/internal/audit"
	"sys2/internal/config"
	"sys2/internal/kb"
	"sys2/internal/transitive"
	"sys2/internal/vector"
)

// Step is one audit record appended to a ProveResult's trace.
type Step struct {
	Op        string
	Goal      string
	Outcome   string
	Timestamp time.Time
}

// ProofTree mirrors the spec.md §3 ProofTree entity.
type ProofTree struct {
	Goal       *ast.Node
	Method     string
	Premises   []*ProofTree
	Confidence float64
}

// ProveResult mirrors the spec.md §3 ProveResult entity.
type ProveResult struct {
	Valid      bool
	Proof      *ProofTree
	Steps      []Step
	Confidence float64
	Reason     string
}

// Options configures one Prove call; zero values fall back to spec.md
// §4.9's defaults (maxDepth=10, timeoutMs=5000).
type Options struct {
	MaxDepth  int
	TimeoutMs int
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = 10
	}
	if o.TimeoutMs <= 0 {
		o.TimeoutMs = 5000
	}
	return o
}

// Engine is the top-level ProofEngine: backward chaining with cycle
// detection, depth/timeout limits, and an audit trace.
type Engine struct {
	KB         *kb.KB
	Matcher    *Matcher
	Prover     *Prover
	Transitive *transitive.Reasoner
	Thresholds config.ThresholdConfig
	Audit      audit.Sink

	// ExpandConjuncts mirrors the session's ExpandConjunctiveConsequents
	// option (spec.md §9 Open Question): when set, a rule's non-primary
	// Consequents become separately provable goals via the same rule and
	// the same bindings as its primary Conclusion. Off by default, a rule
	// only ever proves its primary Conclusion.
	ExpandConjuncts bool
}

// NewEngine constructs a fully-wired ProofEngine: it builds the Matcher and
// Prover, so callers never see the Wire step that lets a rule-chained
// candidate recurse back into ProofEngine.proveGoal.
func NewEngine(concepts *kb.KB, reasoner *transitive.Reasoner, thresholds config.ThresholdConfig, cwa bool, expandConjuncts bool, sink audit.Sink) *Engine {
	matcher := NewMatcher(concepts, reasoner, thresholds)
	prover := NewProver(matcher, thresholds, cwa)
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Engine{KB: concepts, Matcher: matcher, Prover: prover, Transitive: reasoner, Thresholds: thresholds, ExpandConjuncts: expandConjuncts, Audit: sink}
}

// Prove attempts to establish goal via backward chaining, per spec.md §4.9's
// state machine. Matcher.GoalProver is (re)wired to this call's own
// visited-set/deadline/steps so every rule premise it recurses into -- no
// matter how deep -- shares the same cycle detection and timeout.
func (e *Engine) Prove(goal *ast.Node, opts Options) ProveResult {
	opts = opts.withDefaults()
	start := ast.Now()
	visited := make(map[string]bool)
	var steps []Step
	e.Matcher.Wire(func(g *ast.Node, depth int) (bool, float64) {
		r := e.proveGoal(g, depth, start, opts, visited, &steps)
		return r.Valid, r.Confidence
	})
	result := e.proveGoal(goal, 0, start, opts, visited, &steps)
	result.Steps = steps
	return result
}

func (e *Engine) proveGoal(goal *ast.Node, depth int, start time.Time, opts Options, visited map[string]bool, steps *[]Step) ProveResult {
	if ast.Now().Sub(start) > time.Duration(opts.TimeoutMs)*time.Millisecond {
		e.record(steps, "timeout", goal, "Timeout")
		return ProveResult{Valid: false, Reason: "Timeout"}
	}
	if depth > opts.MaxDepth {
		e.record(steps, "depth_limit", goal, "DepthExceeded")
		return ProveResult{Valid: false, Reason: "DepthExceeded"}
	}

	goalVec := e.KB.Encoder().Encode(goal, 0)
	key := hashVector(goalVec)
	if visited[key] {
		e.record(steps, "cycle", goal, "CycleDetected")
		return ProveResult{Valid: false, Reason: "CycleDetected"}
	}
	visited[key] = true
	defer delete(visited, key)

	if ok, conf := e.Matcher.TryDirect(goalVec); ok && conf > e.Thresholds.ProofDirectAccept {
		e.record(steps, "direct_match", goal, "DirectFound")
		return ProveResult{Valid: true, Confidence: conf, Proof: &ProofTree{Goal: goal, Method: "Direct", Confidence: conf}}
	}

	for _, rule := range e.KB.RulesForHead(goal.Relation) {
		consequent, ok := matchingConsequent(rule, goal.Relation, e.ExpandConjuncts)
		if !ok {
			continue
		}
		bindings, ok := unifyConclusion(consequent, goal)
		if !ok && e.ExpandConjuncts {
			for _, c := range rule.Consequents {
				if bindings, ok = unifyConclusion(c, goal); ok {
					break
				}
			}
		}
		if !ok {
			continue
		}
		e.KB.IncRuleAttempt()
		status, conf, _ := e.Prover.Prove(rule.Condition, bindings, depth+1)
		if status != StatusSuccess {
			continue
		}
		combined := conf * math.Pow(e.Thresholds.ConfidenceDecay, float64(countLeaves(rule.Condition)))
		e.record(steps, "rule_matched", goal, "RuleMatched")
		return ProveResult{
			Valid:      true,
			Confidence: combined,
			Proof:      &ProofTree{Goal: goal, Method: fmt.Sprintf("Rule(%s)", rule.ID), Confidence: combined},
		}
	}

	if e.Transitive.IsTransitive(goal.Relation) && goal.Subject.Kind == ast.TermAtom && goal.Object.Kind == ast.TermAtom {
		if ok, conf := e.Transitive.Chain(goal.Relation, goal.Subject.Name, goal.Object.Name, depth); ok {
			e.record(steps, "transitive_chain", goal, "TransitiveChained")
			return ProveResult{Valid: true, Confidence: conf, Proof: &ProofTree{Goal: goal, Method: "Transitive", Confidence: conf}}
		}
	}

	if ok, conf := e.Matcher.TryDirect(goalVec); ok && conf > e.Thresholds.ProofWeakAccept {
		e.record(steps, "weak_direct_match", goal, "DirectFound")
		return ProveResult{Valid: true, Confidence: conf, Proof: &ProofTree{Goal: goal, Method: "Direct", Confidence: conf}}
	}

	e.record(steps, "failed", goal, "Failed")
	return ProveResult{Valid: false, Reason: "Failed"}
}

func (e *Engine) record(steps *[]Step, op string, goal *ast.Node, outcome string) {
	*steps = append(*steps, Step{Op: op, Goal: goalString(goal), Outcome: outcome, Timestamp: ast.Now()})
	eventType := audit.EventRuleAttempt
	switch op {
	case "cycle":
		eventType = audit.EventCycleDetected
	case "depth_limit":
		eventType = audit.EventDepthExceeded
	case "timeout":
		eventType = audit.EventTimeout
	}
	e.Audit.Notify(audit.Event{
		Timestamp: ast.Now(),
		Type:      eventType,
		Message:   op,
		Payload:   map[string]string{"goal": goalString(goal), "outcome": outcome},
	})
}

func goalString(n *ast.Node) string {
	return fmt.Sprintf("%s(%s,%s)", n.Relation, termString(n.Subject), termString(n.Object))
}

func termString(t ast.Term) string {
	switch t.Kind {
	case ast.TermAtom:
		return t.Name
	case ast.TermHole:
		return "?" + t.Name
	case ast.TermNode:
		if t.Node == nil {
			return "<nil>"
		}
		return goalString(t.Node)
	default:
		return "<unknown>"
	}
}

// hashVector derives the per-call cycle-detection key from a goal's
// encoded vector: two goals that encode identically are the same node for
// cycle-detection purposes, regardless of surface form.
func hashVector(v vector.Vector) string {
	h := fnv.New64a()
	buf := make([]byte, 1)
	for _, lane := range v.Lanes {
		buf[0] = byte(lane)
		_, _ = h.Write(buf)
	}
	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], h.Sum64())
	return string(out[:])
}

func countLeaves(cond *ast.Condition) int {
	if cond == nil {
		return 0
	}
	switch cond.Kind {
	case ast.CondAtom:
		return 1
	case ast.CondNot:
		return countLeaves(cond.Inner)
	default:
		total := 0
		for _, part := range cond.Parts {
			total += countLeaves(part)
		}
		return total
	}
}

