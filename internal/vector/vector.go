// Package vector implements the fixed-width integer hypervector algebra:
// allocation, deterministic generation from names, and the saturated
// arithmetic strategies (BinaryDense, SignedByte, Sparse) described by the
// reasoning core's data model.
package vector

import (
	"encoding/binary"
	"hash/fnv"
)

// Strategy selects the lane representation and arithmetic rules used by a
// VectorSpace. All strategies expose the same operation set (see MathEngine);
// only the lane range and the meaning of bind/bundle differ.
type Strategy int

const (
	// SignedByte stores each lane as a signed int8 in [-127, 127].
	SignedByte Strategy = iota
	// BinaryDense stores each lane as a bit, represented as int8 0 or 1.
	BinaryDense
	// Sparse behaves like BinaryDense but callers are expected to keep the
	// fraction of 1-lanes small; the algebra is identical to BinaryDense.
	Sparse
)

func (s Strategy) String() string {
	switch s {
	case SignedByte:
		return "SignedByte"
	case BinaryDense:
		return "BinaryDense"
	case Sparse:
		return "Sparse"
	default:
		return "Unknown"
	}
}

// Vector is a fixed-length sequence of D lanes. It is value-typed: copying a
// Vector copies its backing slice header only, so callers must Clone before
// mutating a vector obtained from shared storage (e.g. vocabulary or KB
// lookups) if they intend to hand it further into the engine.
type Vector struct {
	Strategy Strategy
	Lanes    []int8
}

// Dim returns the vector's dimension.
func (v Vector) Dim() int { return len(v.Lanes) }

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	lanes := make([]int8, len(v.Lanes))
	copy(lanes, v.Lanes)
	return Vector{Strategy: v.Strategy, Lanes: lanes}
}

// Equal reports whether a and b have identical strategy, dimension and lanes.
func (a Vector) Equal(b Vector) bool {
	if a.Strategy != b.Strategy || len(a.Lanes) != len(b.Lanes) {
		return false
	}
	for i := range a.Lanes {
		if a.Lanes[i] != b.Lanes[i] {
			return false
		}
	}
	return true
}

// Space is a stateless factory for vectors of a fixed dimension and
// strategy, seeded by a per-session theory seed so that from_name is
// reproducible across runs and machines.
type Space struct {
	Dimension  int
	Strategy   Strategy
	TheorySeed uint64
}

// NewSpace constructs a VectorSpace. Dimension must be positive; the zero
// value of Strategy is SignedByte.
func NewSpace(dimension int, strategy Strategy, theorySeed uint64) *Space {
	return &Space{Dimension: dimension, Strategy: strategy, TheorySeed: theorySeed}
}

// Zero returns the additive-identity vector: all lanes zero.
func (s *Space) Zero() Vector {
	return Vector{Strategy: s.Strategy, Lanes: make([]int8, s.Dimension)}
}

// FromName deterministically derives a vector from name under this space's
// theory seed. Identical (theorySeed, name, strategy, dimension) always
// yields bit-identical lanes, including across platforms, since the PRNG is
// a pure integer splitmix64 stream seeded from an FNV-1a hash of the inputs.
func (s *Space) FromName(name string) Vector {
	seed := seedFor(s.TheorySeed, name)
	rng := newSplitMix64(seed)

	lanes := make([]int8, s.Dimension)
	switch s.Strategy {
	case BinaryDense, Sparse:
		for i := range lanes {
			if rng.next()&1 == 1 {
				lanes[i] = 1
			}
		}
	default: // SignedByte
		for i := range lanes {
			// Draw a byte and center it around zero, avoiding -128 so the
			// lane range stays symmetric ([-127, 127]) as required by the
			// binding involution (sign(0) breaks ties, -128 has no sign
			// partner under negation).
			b := int8(rng.next() % 255)
			lanes[i] = b - 127
		}
	}
	return Vector{Strategy: s.Strategy, Lanes: lanes}
}

func seedFor(theorySeed uint64, name string) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], theorySeed)
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

// splitMix64 is a minimal deterministic integer PRNG; chosen over
// math/rand so the byte stream is guaranteed stable across Go versions
// (math/rand's algorithm is not part of its compatibility promise).
type splitMix64 struct{ state uint64 }

func newSplitMix64(seed uint64) *splitMix64 { return &splitMix64{state: seed} }

func (r *splitMix64) next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return z
}
