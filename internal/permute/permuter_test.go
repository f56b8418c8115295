package permute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sys2/internal/vector"
)

func TestTableIsBijection(t *testing.T) {
	p := New(128, 11)
	table := p.Table("isA")
	seen := make(map[int]bool, len(table.Table))
	for _, v := range table.Table {
		require.False(t, seen[v], "duplicate index %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, 128)
}

func TestInverseRoundTrips(t *testing.T) {
	p := New(256, 42)
	space := vector.NewSpace(256, vector.SignedByte, 42)
	v := space.FromName("Erosion")

	table := p.Table("causes")
	inv := p.Inverse("causes")

	out := vector.Permute(vector.Permute(v, table), inv)
	assert.True(t, out.Equal(v))
}

func TestTableDeterministicAndCached(t *testing.T) {
	p := New(64, 7)
	a := p.Table("locatedIn")
	b := p.Table("locatedIn")
	assert.Equal(t, a.Table, b.Table)

	p2 := New(64, 7)
	c := p2.Table("locatedIn")
	assert.Equal(t, a.Table, c.Table)
}

func TestRegisteredTracksFirstUse(t *testing.T) {
	p := New(32, 1)
	assert.False(t, p.Registered("before"))
	p.Table("before")
	assert.True(t, p.Registered("before"))
}
