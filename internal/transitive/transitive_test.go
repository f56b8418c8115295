package transitive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2/internal/ast"
	"sys2/internal/audit"
	"sys2/internal/encode"
	"sys2/internal/kb"
	"sys2/internal/permute"
	"sys2/internal/vector"
	"sys2/internal/vocab"
)

func newTestKB(t *testing.T) *kb.KB {
	t.Helper()
	space := vector.NewSpace(256, vector.SignedByte, 3)
	v := vocab.New(space)
	p := permute.New(256, 3)
	enc := encode.New(space, v, p, 3, nil, audit.NopSink{})
	return kb.New(space, v, enc)
}

func addIsA(t *testing.T, k *kb.KB, subject, object string) {
	t.Helper()
	_, err := k.AddFact(ast.NewNode(subject, "isA", object), 1.0, ast.Provenance{})
	require.NoError(t, err)
}

func TestChainOneHop(t *testing.T) {
	k := newTestKB(t)
	addIsA(t, k, "Socrates", "Human")
	r := New(k, []string{"isA"}, 0.9, 0.98)

	ok, conf := r.Chain("isA", "Socrates", "Human", 0)
	require.True(t, ok)
	assert.InDelta(t, 0.9, conf, 1e-9)
}

func TestChainMultiHopDecays(t *testing.T) {
	k := newTestKB(t)
	addIsA(t, k, "Socrates", "Human")
	addIsA(t, k, "Human", "Mortal")
	r := New(k, []string{"isA"}, 0.9, 0.98)

	ok, conf := r.Chain("isA", "Socrates", "Mortal", 0)
	require.True(t, ok)
	assert.InDelta(t, 0.9*0.98, conf, 1e-9)
}

func TestChainCycleSafe(t *testing.T) {
	k := newTestKB(t)
	addIsA(t, k, "A", "B")
	addIsA(t, k, "B", "A")
	r := New(k, []string{"isA"}, 0.9, 0.98)

	ok, _ := r.Chain("isA", "A", "C", 0)
	assert.False(t, ok)
}

func TestChainNonTransitiveRelationFails(t *testing.T) {
	k := newTestKB(t)
	addIsA(t, k, "Socrates", "Human")
	r := New(k, []string{"locatedIn"}, 0.9, 0.98)

	ok, _ := r.Chain("isA", "Socrates", "Human", 0)
	assert.False(t, ok)
}

func TestAllTransitiveTargets(t *testing.T) {
	k := newTestKB(t)
	addIsA(t, k, "Socrates", "Human")
	addIsA(t, k, "Human", "Mortal")
	r := New(k, []string{"isA"}, 0.9, 0.98)

	targets := r.AllTransitiveTargets("isA", "Socrates", nil)
	names := map[string]Target{}
	for _, tg := range targets {
		names[tg.Name] = tg
	}
	require.Contains(t, names, "Human")
	require.Contains(t, names, "Mortal")
	assert.Equal(t, 1, names["Human"].PathLen)
	assert.Equal(t, 2, names["Mortal"].PathLen)
}
