package compute

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2/internal/ast"
)

type stubPlugin struct {
	relations []string
	result    Result
	err       error
	panics    bool
}

func (s stubPlugin) Relations() []string { return s.relations }

func (s stubPlugin) Evaluate(relation string, subject, object ast.Term) (Result, error) {
	if s.panics {
		panic("boom")
	}
	return s.result, s.err
}

func TestRegistryDispatchesByRelation(t *testing.T) {
	r := NewRegistry()
	r.Register(stubPlugin{relations: []string{"greaterThan"}, result: Result{Truth: TrueCertain, Confidence: 1.0, Method: "compare"}})

	assert.True(t, r.Computable("greaterThan"))
	assert.False(t, r.Computable("isA"))

	result, err := r.Evaluate("greaterThan", ast.Atom("5"), ast.Atom("3"))
	require.NoError(t, err)
	assert.Equal(t, TrueCertain, result.Truth)
}

func TestRegistryUnknownRelation(t *testing.T) {
	r := NewRegistry()
	_, err := r.Evaluate("nope", ast.Atom("a"), ast.Atom("b"))
	assert.Error(t, err)
}

func TestRegistryPluginErrorBecomesUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register(stubPlugin{relations: []string{"dateDiff"}, err: errors.New("bad date")})

	result, err := r.Evaluate("dateDiff", ast.Atom("2020-01-01"), ast.Atom("x"))
	assert.Error(t, err)
	assert.Equal(t, Unknown, result.Truth)
	assert.Equal(t, "compute_error", result.Method)
}

func TestRegistryPluginPanicBecomesUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register(stubPlugin{relations: []string{"crashes"}, panics: true})

	result, err := r.Evaluate("crashes", ast.Atom("a"), ast.Atom("b"))
	assert.Error(t, err)
	assert.Equal(t, Unknown, result.Truth)
}

func TestRegistryLaterRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register(stubPlugin{relations: []string{"x"}, result: Result{Truth: FalseValue}})
	r.Register(stubPlugin{relations: []string{"x"}, result: Result{Truth: TrueCertain}})

	result, err := r.Evaluate("x", ast.Atom("a"), ast.Atom("b"))
	require.NoError(t, err)
	assert.Equal(t, TrueCertain, result.Truth)
}
