package manglecompute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2/internal/ast"
	"sys2/internal/compute"
)

func TestEvaluateGreaterThan(t *testing.T) {
	p := New()
	result, err := p.Evaluate("greaterThan", ast.Atom("5"), ast.Atom("3"))
	require.NoError(t, err)
	assert.Equal(t, compute.TrueCertain, result.Truth)
}

func TestEvaluateGreaterThanFalse(t *testing.T) {
	p := New()
	result, err := p.Evaluate("greaterThan", ast.Atom("2"), ast.Atom("3"))
	require.NoError(t, err)
	assert.Equal(t, compute.FalseValue, result.Truth)
}

func TestEvaluateBeforeLexicalDate(t *testing.T) {
	p := New()
	result, err := p.Evaluate("before", ast.Atom("2020-01-01"), ast.Atom("2021-06-01"))
	require.NoError(t, err)
	assert.Equal(t, compute.TrueCertain, result.Truth)
}

func TestEvaluateRejectsNonGroundOperands(t *testing.T) {
	p := New()
	_, err := p.Evaluate("greaterThan", ast.Hole("x"), ast.Atom("3"))
	assert.Error(t, err)
}

func TestEvaluateRejectsUnknownRelation(t *testing.T) {
	p := New()
	_, err := p.Evaluate("frobnicate", ast.Atom("1"), ast.Atom("2"))
	assert.Error(t, err)
}

func TestEvaluateRejectsNonNumericOperand(t *testing.T) {
	p := New()
	_, err := p.Evaluate("greaterThan", ast.Atom("five"), ast.Atom("3"))
	assert.Error(t, err)
}

func TestPluginRegistersAllRelations(t *testing.T) {
	p := New()
	r := compute.NewRegistry()
	r.Register(p)
	for _, rel := range p.Relations() {
		assert.True(t, r.Computable(rel))
	}
}
