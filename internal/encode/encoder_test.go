package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2/internal/ast"
	"sys2/internal/audit"
	"sys2/internal/permute"
	"sys2/internal/vector"
	"sys2/internal/vocab"
)

func newEncoder(dimension int) *Encoder {
	space := vector.NewSpace(dimension, vector.SignedByte, 7)
	v := vocab.New(space)
	p := permute.New(dimension, 7)
	return New(space, v, p, 3, nil, audit.NopSink{})
}

func TestEncodeDeterministic(t *testing.T) {
	e := newEncoder(512)
	n := ast.NewNode("Socrates", "isA", "Human")
	a := e.Encode(n, 0)
	b := e.Encode(n, 0)
	assert.True(t, a.Equal(b))
}

func TestEncodeBeyondHorizonIsZero(t *testing.T) {
	e := newEncoder(64)
	n := ast.NewNode("a", "r", "b")
	out := e.Encode(n, e.Horizon+1)
	zero := e.Space.Zero()
	assert.True(t, out.Equal(zero))
}

func TestEncodeRegistersRelationAndAudits(t *testing.T) {
	rec := audit.NewRecorder()
	e := newEncoder(256)
	e.Audit = rec

	require.False(t, e.Permuter.Registered("causes"))
	e.Encode(ast.NewNode("Deforestation", "causes", "Erosion"), 0)
	assert.True(t, e.Permuter.Registered("causes"))

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventUnknownRelation, events[0].Type)
	assert.Equal(t, "causes", events[0].Payload["relation"])

	// Second encode with the same relation must not audit again.
	e.Encode(ast.NewNode("Erosion", "causes", "Flooding"), 0)
	assert.Len(t, rec.Events(), 1)
}

func TestEncodeNestedComposite(t *testing.T) {
	e := newEncoder(256)
	inner := ast.NewNode("Voter", "has", "Citizen")
	outer := &ast.Node{Subject: ast.Nested(inner), Relation: "implies", Object: ast.Atom("Eligible")}
	out := e.Encode(outer, 0)
	assert.Equal(t, 256, out.Dim())
}
