// Package permute implements RelationPermuter: deterministic, cached,
// invertible permutation tables keyed by relation name.
package permute

import (
	"encoding/binary"
	"hash/fnv"
	"sync"

	"sys2/internal/vector"
)

// Permuter derives and caches a permutation table per relation name. Tables
// are deterministic from (theorySeed, relationName) and are Fisher-Yates
// shuffles of [0, D) seeded by a hash of those inputs, so they are
// reproducible across runs and processes.
type Permuter struct {
	dimension  int
	theorySeed uint64

	mu     sync.RWMutex
	tables map[string]vector.PermutationTable
}

// New returns a Permuter for the given dimension and theory seed.
func New(dimension int, theorySeed uint64) *Permuter {
	return &Permuter{
		dimension:  dimension,
		theorySeed: theorySeed,
		tables:     make(map[string]vector.PermutationTable),
	}
}

// Table returns the permutation table for relation, constructing and
// caching it on first use. The table is a bijection over [0, dimension).
func (p *Permuter) Table(relation string) vector.PermutationTable {
	p.mu.RLock()
	t, ok := p.tables[relation]
	p.mu.RUnlock()
	if ok {
		return t
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.tables[relation]; ok {
		return t
	}
	t = buildTable(p.dimension, p.theorySeed, relation)
	p.tables[relation] = t
	return t
}

// Inverse returns the inverse permutation table for relation, with the same
// determinism and caching guarantees as Table.
func (p *Permuter) Inverse(relation string) vector.PermutationTable {
	t := p.Table(relation)
	return vector.PermutationTable{Table: t.Inverse, Inverse: t.Table}
}

// Registered reports whether a table has already been built for relation,
// without constructing one. Used by the Encoder to detect and audit
// first-sight of an unregistered relation.
func (p *Permuter) Registered(relation string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.tables[relation]
	return ok
}

func buildTable(dimension int, theorySeed uint64, relation string) vector.PermutationTable {
	table := make([]int, dimension)
	for i := range table {
		table[i] = i
	}

	rng := newSplitMix64(seedFor(theorySeed, relation))
	// Fisher-Yates shuffle, deterministic from rng.
	for i := dimension - 1; i > 0; i-- {
		j := int(rng.next() % uint64(i+1))
		table[i], table[j] = table[j], table[i]
	}

	inverse := make([]int, dimension)
	for i, v := range table {
		inverse[v] = i
	}
	return vector.PermutationTable{Table: table, Inverse: inverse}
}

func seedFor(theorySeed uint64, relation string) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], theorySeed)
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte("relation:" + relation))
	return h.Sum64()
}

type splitMix64 struct{ state uint64 }

func newSplitMix64(seed uint64) *splitMix64 { return &splitMix64{state: seed} }

func (r *splitMix64) next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
