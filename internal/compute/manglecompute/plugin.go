// Package manglecompute implements one concrete ComputePlugin (spec.md §6,
// §9): a one-clause Datalog program per call -- numeric comparison,
// equality, and string/date-ordering relations (no boolean-logic
// relations are registered) -- evaluated through
// google/mangle's analysis/ast/factstore/engine/parse packages the same
// way internal/mangle/engine.go (the teacher's Mangle wrapper) drives
// them: parse a source unit, analyze it into a ProgramInfo, evaluate to a
// fixed point against an in-memory fact store, then read back the
// derived answer atom.
//
// google/mangle is deliberately scoped to this one compute plugin and
// never wired into the core reasoning engine (internal/kb, internal/query,
// internal/prove stay pure hypervector arithmetic); see SPEC_FULL.md §11.3.
package manglecompute

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	sys2ast "sys2/internal/ast"
	"sys2/internal/compute"
)

// relationProgram is the fixed rule body for one relation: operator is the
// Mangle comparison/boolean connective joining the subject and object
// literals, kind tells Evaluate how to render the two operands as Mangle
// literals.
type relationProgram struct {
	operator string
	kind     operandKind
	truth    compute.TruthValue
}

type operandKind int

const (
	kindNumber operandKind = iota
	kindString // dates and plain strings compare lexically, which matches ISO-8601 ordering
	kindBool
)

// Plugin answers a fixed set of computable relations by building a tiny
// one-shot Datalog program per call: a single fact-free rule whose body
// compares the two operands written in as literals, run to a fixed point,
// then read back whether the derived "holds" atom appears.
type Plugin struct{}

// New constructs the plugin. It carries no state: every Evaluate call
// builds and analyzes its own self-contained Mangle program, so concurrent
// calls never share a fact store or program cache.
func New() *Plugin { return &Plugin{} }

var programs = map[string]relationProgram{
	"greaterThan": {operator: ">", kind: kindNumber, truth: compute.TrueCertain},
	"lessThan":    {operator: "<", kind: kindNumber, truth: compute.TrueCertain},
	"atLeast":     {operator: ">=", kind: kindNumber, truth: compute.TrueCertain},
	"atMost":      {operator: "<=", kind: kindNumber, truth: compute.TrueCertain},
	"equalsValue": {operator: "=", kind: kindNumber, truth: compute.TrueCertain},
	"before":      {operator: "<", kind: kindString, truth: compute.TrueCertain},
	"after":       {operator: ">", kind: kindString, truth: compute.TrueCertain},
	"sameAs":      {operator: "=", kind: kindString, truth: compute.TrueCertain},
}

// Relations implements compute.Plugin.
func (p *Plugin) Relations() []string {
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	return names
}

// Evaluate implements compute.Plugin: subject and object must be ground
// atoms (a nested or hole term cannot be computed on), rendered as Mangle
// literals per the relation's operand kind, and joined by the fixed
// comparison program.
func (p *Plugin) Evaluate(relation string, subject, object sys2ast.Term) (compute.Result, error) {
	prog, ok := programs[relation]
	if !ok {
		return compute.Result{}, fmt.Errorf("manglecompute: relation %q has no fixed program", relation)
	}
	if subject.Kind != sys2ast.TermAtom || object.Kind != sys2ast.TermAtom {
		return compute.Result{}, fmt.Errorf("manglecompute: relation %q needs two ground atoms", relation)
	}

	lhs, err := prog.kind.literal(subject.Name)
	if err != nil {
		return compute.Result{}, fmt.Errorf("manglecompute: subject: %w", err)
	}
	rhs, err := prog.kind.literal(object.Name)
	if err != nil {
		return compute.Result{}, fmt.Errorf("manglecompute: object: %w", err)
	}

	source := fmt.Sprintf("holds() :- %s %s %s.", lhs, prog.operator, rhs)
	holds, err := evalHolds(source)
	if err != nil {
		return compute.Result{}, fmt.Errorf("manglecompute: %s: %w", relation, err)
	}

	if holds {
		return compute.Result{Truth: prog.truth, Confidence: 1.0, Method: "computed"}, nil
	}
	return compute.Result{Truth: compute.FalseValue, Confidence: 1.0, Method: "computed"}, nil
}

func (k operandKind) literal(raw string) (string, error) {
	switch k {
	case kindNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err != nil {
			return "", fmt.Errorf("not a number: %q", raw)
		}
		return raw, nil
	case kindString:
		return strconv.Quote(raw), nil
	case kindBool:
		if raw == "true" {
			return "/true", nil
		}
		return "/false", nil
	default:
		return "", fmt.Errorf("unknown operand kind")
	}
}

// evalHolds parses and analyzes source as a single-clause Mangle program
// with no facts at all, evaluates it to a fixed point, and reports whether
// the nullary holds() atom was derived.
func evalHolds(source string) (bool, error) {
	unit, err := parse.Unit(strings.NewReader(source))
	if err != nil {
		return false, fmt.Errorf("parse: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return false, fmt.Errorf("analyze: %w", err)
	}

	store := factstore.NewSimpleInMemoryStore()
	if _, err := mengine.EvalProgramWithStats(programInfo, store); err != nil {
		return false, fmt.Errorf("eval: %w", err)
	}

	sym := ast.PredicateSym{Symbol: "holds", Arity: 0}
	found := false
	err = store.GetFacts(ast.NewQuery(sym), func(ast.Atom) error {
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("read result: %w", err)
	}
	return found, nil
}
