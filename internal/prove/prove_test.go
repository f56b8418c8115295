package prove

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2/internal/ast"
	"sys2/internal/audit"
	"sys2/internal/config"
	"sys2/internal/encode"
	"sys2/internal/kb"
	"sys2/internal/permute"
	"sys2/internal/transitive"
	"sys2/internal/vector"
	"sys2/internal/vocab"
)

func newTestEngine(t *testing.T, cwa bool) (*Engine, *kb.KB) {
	t.Helper()
	return newTestEngineExpand(t, cwa, false)
}

func newTestEngineExpand(t *testing.T, cwa bool, expandConjuncts bool) (*Engine, *kb.KB) {
	t.Helper()
	space := vector.NewSpace(512, vector.SignedByte, 13)
	v := vocab.New(space)
	p := permute.New(512, 13)
	enc := encode.New(space, v, p, 3, nil, audit.NopSink{})
	concepts := kb.New(space, v, enc)
	reasoner := transitive.New(concepts, []string{"isA", "locatedIn"}, 0.9, 0.98)
	thresholds := config.DefaultThresholds()
	engine := NewEngine(concepts, reasoner, thresholds, cwa, expandConjuncts, audit.NopSink{})
	return engine, concepts
}

func TestProveDirectMatch(t *testing.T) {
	e, concepts := newTestEngine(t, true)
	_, err := concepts.AddFact(ast.NewNode("Socrates", "isA", "Human"), 1.0, ast.Provenance{})
	require.NoError(t, err)

	result := e.Prove(ast.NewNode("Socrates", "isA", "Human"), Options{})
	require.True(t, result.Valid)
	assert.Equal(t, "Direct", result.Proof.Method)
	assert.NotEmpty(t, result.Steps)
}

func TestProveTransitiveChain(t *testing.T) {
	e, concepts := newTestEngine(t, true)
	_, err := concepts.AddFact(ast.NewNode("Socrates", "isA", "Human"), 1.0, ast.Provenance{})
	require.NoError(t, err)
	_, err = concepts.AddFact(ast.NewNode("Human", "isA", "Mortal"), 1.0, ast.Provenance{})
	require.NoError(t, err)

	result := e.Prove(ast.NewNode("Socrates", "isA", "Mortal"), Options{})
	require.True(t, result.Valid)
	assert.Equal(t, "Transitive", result.Proof.Method)
}

func TestProveRuleChain(t *testing.T) {
	e, concepts := newTestEngine(t, true)
	_, err := concepts.AddFact(ast.NewNode("Socrates", "isA", "Human"), 1.0, ast.Provenance{})
	require.NoError(t, err)

	conclusion := &ast.Node{Subject: ast.Hole("x"), Relation: "mortal", Object: ast.Atom("True")}
	condition := ast.CAtom(&ast.Node{Subject: ast.Hole("x"), Relation: "isA", Object: ast.Atom("Human")})
	_, err = concepts.AddRule(conclusion, condition)
	require.NoError(t, err)

	result := e.Prove(&ast.Node{Subject: ast.Atom("Socrates"), Relation: "mortal", Object: ast.Atom("True")}, Options{})
	require.True(t, result.Valid)
	assert.Contains(t, result.Proof.Method, "Rule(")
}

func TestProveConjunctiveConsequentDisabledByDefault(t *testing.T) {
	e, concepts := newTestEngine(t, true)
	_, err := concepts.AddFact(ast.NewNode("Alice", "has", "Citizen"), 1.0, ast.Provenance{})
	require.NoError(t, err)

	conclusion := &ast.Node{Subject: ast.Hole("x"), Relation: "can", Object: ast.Atom("Vote")}
	extra := &ast.Node{Subject: ast.Hole("x"), Relation: "can", Object: ast.Atom("Jury")}
	condition := ast.CAtom(&ast.Node{Subject: ast.Hole("x"), Relation: "has", Object: ast.Atom("Citizen")})
	_, err = concepts.AddRule(conclusion, condition, extra)
	require.NoError(t, err)

	primary := e.Prove(&ast.Node{Subject: ast.Atom("Alice"), Relation: "can", Object: ast.Atom("Vote")}, Options{})
	assert.True(t, primary.Valid)

	secondary := e.Prove(&ast.Node{Subject: ast.Atom("Alice"), Relation: "can", Object: ast.Atom("Jury")}, Options{})
	assert.False(t, secondary.Valid, "non-primary consequent must not be provable with ExpandConjuncts off")
}

func TestProveConjunctiveConsequentExpansion(t *testing.T) {
	e, concepts := newTestEngineExpand(t, true, true)
	_, err := concepts.AddFact(ast.NewNode("Alice", "has", "Citizen"), 1.0, ast.Provenance{})
	require.NoError(t, err)

	conclusion := &ast.Node{Subject: ast.Hole("x"), Relation: "can", Object: ast.Atom("Vote")}
	extra := &ast.Node{Subject: ast.Hole("x"), Relation: "can", Object: ast.Atom("Jury")}
	condition := ast.CAtom(&ast.Node{Subject: ast.Hole("x"), Relation: "has", Object: ast.Atom("Citizen")})
	_, err = concepts.AddRule(conclusion, condition, extra)
	require.NoError(t, err)

	primary := e.Prove(&ast.Node{Subject: ast.Atom("Alice"), Relation: "can", Object: ast.Atom("Vote")}, Options{})
	require.True(t, primary.Valid)
	assert.Contains(t, primary.Proof.Method, "Rule(")

	secondary := e.Prove(&ast.Node{Subject: ast.Atom("Alice"), Relation: "can", Object: ast.Atom("Jury")}, Options{})
	require.True(t, secondary.Valid, "non-primary consequent must be separately provable with ExpandConjuncts on")
	assert.Contains(t, secondary.Proof.Method, "Rule(")
}

func TestProveNegationAsFailureCWA(t *testing.T) {
	e, _ := newTestEngine(t, true)
	status, conf, _ := e.Prover.Prove(
		ast.CNot(ast.CAtom(ast.NewNode("Socrates", "isA", "Fish"))),
		ast.Binding{}, 0,
	)
	assert.Equal(t, StatusSuccess, status)
	assert.InDelta(t, 0.9, conf, 1e-9)
}

func TestProveNegationUnknownWithoutCWA(t *testing.T) {
	e, _ := newTestEngine(t, false)
	status, _, _ := e.Prover.Prove(
		ast.CNot(ast.CAtom(ast.NewNode("Socrates", "isA", "Fish"))),
		ast.Binding{}, 0,
	)
	assert.Equal(t, StatusUnknown, status)
}

func TestProveNegationFailsWhenInnerTrue(t *testing.T) {
	e, concepts := newTestEngine(t, true)
	_, err := concepts.AddFact(ast.NewNode("Socrates", "isA", "Human"), 1.0, ast.Provenance{})
	require.NoError(t, err)

	status, _, _ := e.Prover.Prove(
		ast.CNot(ast.CAtom(ast.NewNode("Socrates", "isA", "Human"))),
		ast.Binding{}, 0,
	)
	assert.Equal(t, StatusFail, status)
}

func TestProveAndBacktracks(t *testing.T) {
	e, concepts := newTestEngine(t, true)
	_, err := concepts.AddFact(ast.NewNode("Socrates", "isA", "Human"), 1.0, ast.Provenance{})
	require.NoError(t, err)
	_, err = concepts.AddFact(ast.NewNode("Socrates", "locatedIn", "Athens"), 1.0, ast.Provenance{})
	require.NoError(t, err)

	cond := ast.CAnd(
		ast.CAtom(ast.NewNode("Socrates", "isA", "Human")),
		ast.CAtom(ast.NewNode("Socrates", "locatedIn", "Athens")),
	)
	status, _, _ := e.Prover.Prove(cond, ast.Binding{}, 0)
	assert.Equal(t, StatusSuccess, status)
}

func TestProveCycleDetected(t *testing.T) {
	e, concepts := newTestEngine(t, true)
	conclusion := &ast.Node{Subject: ast.Atom("A"), Relation: "loops", Object: ast.Atom("B")}
	condition := ast.CAtom(&ast.Node{Subject: ast.Atom("A"), Relation: "loops", Object: ast.Atom("B")})
	_, err := concepts.AddRule(conclusion, condition)
	require.NoError(t, err)

	result := e.Prove(&ast.Node{Subject: ast.Atom("A"), Relation: "loops", Object: ast.Atom("B")}, Options{})
	assert.False(t, result.Valid)
}

func TestProveDepthExceeded(t *testing.T) {
	e, concepts := newTestEngine(t, true)
	conclusion := &ast.Node{Subject: ast.Atom("A"), Relation: "chain0", Object: ast.Atom("Z")}
	condition := ast.CAtom(&ast.Node{Subject: ast.Atom("A"), Relation: "chain1", Object: ast.Atom("Z")})
	_, err := concepts.AddRule(conclusion, condition)
	require.NoError(t, err)

	result := e.Prove(&ast.Node{Subject: ast.Atom("A"), Relation: "chain0", Object: ast.Atom("Z")}, Options{MaxDepth: 1})
	assert.False(t, result.Valid)
	assert.Contains(t, []string{"Failed", "DepthExceeded"}, result.Reason)
}
