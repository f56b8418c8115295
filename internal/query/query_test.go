package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"sys2/internal/ast"
	"sys2/internal/audit"
	"sys2/internal/config"
	"sys2/internal/encode"
	"sys2/internal/kb"
	"sys2/internal/permute"
	"sys2/internal/vector"
	"sys2/internal/vocab"
)

// TestMain verifies ExecuteMany's errgroup fan-out leaves no goroutines
// running past the test -- the one place in this package goroutines are
// spawned at all.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestEngine(t *testing.T) (*Engine, *kb.KB) {
	t.Helper()
	space := vector.NewSpace(1024, vector.SignedByte, 5)
	v := vocab.New(space)
	p := permute.New(1024, 5)
	enc := encode.New(space, v, p, 3, nil, audit.NopSink{})
	concepts := kb.New(space, v, enc)
	return New(concepts, v, p, config.DefaultThresholds()), concepts
}

func TestExecuteTooManyHoles(t *testing.T) {
	e, _ := newTestEngine(t)
	node := &ast.Node{
		Subject:  ast.Nested(&ast.Node{Subject: ast.Hole("a"), Relation: "q", Object: ast.Hole("d")}),
		Relation: "r",
		Object:   ast.Nested(&ast.Node{Subject: ast.Hole("b"), Relation: "s", Object: ast.Hole("c")}),
	}
	result := e.Execute(node)
	assert.False(t, result.Success)
	assert.Equal(t, "TooManyHoles", result.Reason)
}

func TestExecuteDirectMatchSucceeds(t *testing.T) {
	e, concepts := newTestEngine(t)
	_, err := concepts.AddFact(ast.NewNode("Socrates", "isA", "Human"), 1.0, ast.Provenance{})
	require.NoError(t, err)

	result := e.Execute(ast.NewNode("Socrates", "isA", "Human"))
	assert.True(t, result.Success)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
}

func TestExecuteDirectMatchFails(t *testing.T) {
	e, _ := newTestEngine(t)
	result := e.Execute(ast.NewNode("Nobody", "isA", "Nothing"))
	assert.False(t, result.Success)
}

func TestExecuteHoleResolvesToAssertedObject(t *testing.T) {
	e, concepts := newTestEngine(t)
	_, err := concepts.AddFact(ast.NewNode("Socrates", "isA", "Human"), 1.0, ast.Provenance{})
	require.NoError(t, err)

	node := &ast.Node{Subject: ast.Atom("Socrates"), Relation: "isA", Object: ast.Hole("x")}
	result := e.Execute(node)
	require.True(t, result.Success)
	binding, ok := result.Bindings["x"]
	require.True(t, ok)
	assert.Equal(t, "Human", binding.Answer)
}

func TestExecuteUnsupportedNestedHole(t *testing.T) {
	e, _ := newTestEngine(t)
	node := &ast.Node{
		Subject:  ast.Nested(&ast.Node{Subject: ast.Hole("x"), Relation: "has", Object: ast.Atom("Citizen")}),
		Relation: "implies",
		Object:   ast.Atom("Eligible"),
	}
	result := e.Execute(node)
	assert.False(t, result.Success)
	assert.Equal(t, "UnsupportedHoleShape", result.Reason)
}

func TestExecuteManyRunsConcurrently(t *testing.T) {
	e, concepts := newTestEngine(t)
	_, err := concepts.AddFact(ast.NewNode("Socrates", "isA", "Human"), 1.0, ast.Provenance{})
	require.NoError(t, err)
	_, err = concepts.AddFact(ast.NewNode("Plato", "isA", "Human"), 1.0, ast.Provenance{})
	require.NoError(t, err)

	statements := []*ast.Node{
		ast.NewNode("Socrates", "isA", "Human"),
		ast.NewNode("Plato", "isA", "Human"),
		ast.NewNode("Nobody", "isA", "Nothing"),
	}
	results, err := e.ExecuteMany(context.Background(), statements)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.False(t, results[2].Success)
}

// TestExecuteManyWithRecorderSinkIsConcurrencySafe exercises the only
// Sink the package ships beyond NopSink under ExecuteMany's errgroup
// fan-out: each statement's relation is unseen, so directMatch's
// e.KB.Encoder().Encode falls through to Encoder.Audit.Notify
// concurrently across goroutines. audit.Recorder's internal mutex (not
// NopSink, which has nothing to race on) is what makes this safe.
func TestExecuteManyWithRecorderSinkIsConcurrencySafe(t *testing.T) {
	space := vector.NewSpace(1024, vector.SignedByte, 5)
	v := vocab.New(space)
	p := permute.New(1024, 5)
	recorder := audit.NewRecorder()
	enc := encode.New(space, v, p, 3, nil, recorder)
	concepts := kb.New(space, v, enc)
	e := New(concepts, v, p, config.DefaultThresholds())

	const n = 20
	statements := make([]*ast.Node, n)
	for i := range statements {
		statements[i] = ast.NewNode("s", fmt.Sprintf("rel%d", i), "o")
	}

	results, err := e.ExecuteMany(context.Background(), statements)
	require.NoError(t, err)
	require.Len(t, results, n)
	assert.Len(t, recorder.Events(), n)
}
