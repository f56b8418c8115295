package sys2_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2/pkg/sys2"
)

func TestPublicSurfaceWiresASession(t *testing.T) {
	cfg := sys2.DefaultConfig()
	cfg.Dimension = 512
	cfg.TheorySeed = 3

	s, err := sys2.New(cfg, sys2.NopAudit())
	require.NoError(t, err)

	_, err = s.AddFact(sys2.NewNode("Socrates", "isA", "Human"), 1.0, sys2.Provenance{Source: "test"})
	require.NoError(t, err)

	result := s.Query(sys2.NewNode("Socrates", "isA", "Human"))
	assert.True(t, result.Query.Success)
}

func TestAskClassifiesTransitiveChainAsTrue(t *testing.T) {
	cfg := sys2.DefaultConfig()
	cfg.Dimension = 512
	cfg.TheorySeed = 3

	s, err := sys2.New(cfg, sys2.NopAudit())
	require.NoError(t, err)

	_, err = s.AddFact(sys2.NewNode("Socrates", "isA", "Human"), 1.0, sys2.Provenance{})
	require.NoError(t, err)
	_, err = s.AddFact(sys2.NewNode("Human", "isA", "Mammal"), 1.0, sys2.Provenance{})
	require.NoError(t, err)
	_, err = s.AddFact(sys2.NewNode("Mammal", "isA", "Animal"), 1.0, sys2.Provenance{})
	require.NoError(t, err)

	result := s.Ask(sys2.NewNode("Socrates", "isA", "Animal"), sys2.ProveOptions{})
	assert.Equal(t, sys2.AskTrue, result.Truth)
	assert.NotEmpty(t, result.Trace)
}

func TestAuditRecorderCapturesUnknownAtoms(t *testing.T) {
	cfg := sys2.DefaultConfig()
	cfg.Dimension = 512
	cfg.TheorySeed = 3
	rec := sys2.NewAuditRecorder()

	s, err := sys2.New(cfg, rec)
	require.NoError(t, err)

	_, err = s.AddFact(sys2.NewNode("Socrates", "isA", "Human"), 1.0, sys2.Provenance{})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.Events())
}
