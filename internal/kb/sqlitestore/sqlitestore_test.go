package sqlitestore

import (
	"path/filepath"
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
	space := vector.NewSpace(256, vector.SignedByte, 7)
	v := vocab.New(space)
	p := permute.New(256, 7)
	enc := encode.New(space, v, p, 3, nil, audit.NopSink{})
	return kb.New(space, v, enc)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	k := newTestKB(t)
	k.RegisterRelation(kb.RelationSlot{Name: "isA", Transitive: true})
	_, err := k.AddFact(ast.NewNode("Socrates", "isA", "Human"), 0.9, ast.Provenance{Source: "test"})
	require.NoError(t, err)

	conclusion := &ast.Node{Subject: ast.Hole("x"), Relation: "mortal", Object: ast.Atom("True")}
	condition := ast.CAtom(&ast.Node{Subject: ast.Hole("x"), Relation: "isA", Object: ast.Atom("Human")})
	_, err = k.AddRule(conclusion, condition)
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	store, err := Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(k))

	fresh := newTestKB(t)
	require.NoError(t, store.Load(fresh))

	assert.Equal(t, 1, fresh.FactCount())
	facts := fresh.LookupExact("isA", ast.Atom("Socrates"), ast.Atom("Human"))
	require.Len(t, facts, 1)
	assert.InDelta(t, 0.9, facts[0].Confidence, 1e-9)
	assert.Equal(t, "test", facts[0].Provenance.Source)

	rules := fresh.RulesForHead("mortal")
	require.Len(t, rules, 1)

	slot := fresh.RelationSlot("isA")
	assert.True(t, slot.Transitive)
}

func TestSaveLoadRoundTripsConjunctiveConsequents(t *testing.T) {
	k := newTestKB(t)
	conclusion := &ast.Node{Subject: ast.Hole("x"), Relation: "can", Object: ast.Atom("Vote")}
	extra := &ast.Node{Subject: ast.Hole("x"), Relation: "can", Object: ast.Atom("Jury")}
	condition := ast.CAtom(&ast.Node{Subject: ast.Hole("x"), Relation: "has", Object: ast.Atom("Citizen")})
	_, err := k.AddRule(conclusion, condition, extra)
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	store, err := Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Save(k))

	fresh := newTestKB(t)
	require.NoError(t, store.Load(fresh))

	byConclusion := fresh.RulesForHead("can")
	require.Len(t, byConclusion, 1)
	require.Len(t, byConclusion[0].Consequents, 1)
	assert.Equal(t, "Jury", byConclusion[0].Consequents[0].Object.Name)
}

func TestSaveClearsStaleRows(t *testing.T) {
	k := newTestKB(t)
	_, err := k.AddFact(ast.NewNode("A", "isA", "B"), 1.0, ast.Provenance{})
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	store, err := Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Save(k))

	k2 := newTestKB(t)
	_, err = k2.AddFact(ast.NewNode("C", "isA", "D"), 1.0, ast.Provenance{})
	require.NoError(t, err)
	require.NoError(t, store.Save(k2))

	fresh := newTestKB(t)
	require.NoError(t, store.Load(fresh))
	assert.Equal(t, 1, fresh.FactCount())
	assert.Empty(t, fresh.LookupExact("isA", ast.Atom("A"), ast.Atom("B")))
}
