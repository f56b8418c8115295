package vector

import "sort"

// laneMax/laneMin bound the signed-byte lane range; binary/sparse lanes are
// always clamped to {0, 1} regardless of these constants.
const (
	laneMax int8 = 127
	laneMin int8 = -127
)

// AddSaturated returns the lane-wise sum of a and b, clamped to the lane
// range. For BinaryDense/Sparse strategies the sum is clamped to {0, 1},
// i.e. logical OR on the accumulated count -- callers that need majority
// bundling of many binary vectors should use Bundle, not repeated
// AddSaturated.
func AddSaturated(a, b Vector) Vector {
	out := Vector{Strategy: a.Strategy, Lanes: make([]int8, len(a.Lanes))}
	for i := range a.Lanes {
		out.Lanes[i] = saturate(a.Strategy, int(a.Lanes[i])+int(b.Lanes[i]))
	}
	return out
}

func saturate(strategy Strategy, sum int) int8 {
	switch strategy {
	case BinaryDense, Sparse:
		if sum > 0 {
			return 1
		}
		return 0
	default:
		if sum > int(laneMax) {
			return laneMax
		}
		if sum < int(laneMin) {
			return laneMin
		}
		return int8(sum)
	}
}

// Bind combines a and b into a single vector so that, given the result and
// b, a can be recovered (up to the strategy's noise floor): for every atom
// a, similarity(Bind(Bind(x, a), a), x) >= 0.95.
//
// BinaryDense/Sparse: lane-wise XOR, which is exactly involutive.
// SignedByte: lane-wise multiplication by sign(b), clamped; exactly
// involutive except on lanes where b is zero (sign treated as +1, a no-op
// on that lane, which is trivially involutive).
func Bind(a, b Vector) Vector {
	out := Vector{Strategy: a.Strategy, Lanes: make([]int8, len(a.Lanes))}
	switch a.Strategy {
	case BinaryDense, Sparse:
		for i := range a.Lanes {
			out.Lanes[i] = a.Lanes[i] ^ b.Lanes[i]
		}
	default:
		for i := range a.Lanes {
			sign := int8(1)
			if b.Lanes[i] < 0 {
				sign = -1
			}
			out.Lanes[i] = saturate(a.Strategy, int(a.Lanes[i])*int(sign))
		}
	}
	return out
}

// Bundle superposes vs into one vector. The operation is commutative and
// associative up to saturation. tiebreak is a caller-supplied list of keys
// (e.g. contributing atom names) used only to deterministically resolve
// exact ties in the binary majority vote; it never introduces randomness.
func Bundle(vs []Vector, tiebreak []string) Vector {
	if len(vs) == 0 {
		return Vector{}
	}
	strategy := vs[0].Strategy
	dim := len(vs[0].Lanes)

	switch strategy {
	case BinaryDense, Sparse:
		counts := make([]int, dim)
		for _, v := range vs {
			for i, lane := range v.Lanes {
				if lane != 0 {
					counts[i]++
				}
			}
		}
		tieBit := deterministicTieBit(tiebreak)
		out := Vector{Strategy: strategy, Lanes: make([]int8, dim)}
		half := len(vs)
		for i, c := range counts {
			switch {
			case 2*c > half:
				out.Lanes[i] = 1
			case 2*c < half:
				out.Lanes[i] = 0
			default:
				out.Lanes[i] = tieBit
			}
		}
		return out
	default:
		acc := make([]int, dim)
		for _, v := range vs {
			for i, lane := range v.Lanes {
				acc[i] += int(lane)
			}
		}
		out := Vector{Strategy: strategy, Lanes: make([]int8, dim)}
		for i, sum := range acc {
			out.Lanes[i] = saturate(strategy, sum)
		}
		return out
	}
}

// deterministicTieBit derives a stable 0/1 tiebreak from a sorted key list
// so that equal-similarity or equal-count cases never depend on map or
// goroutine iteration order.
func deterministicTieBit(keys []string) int8 {
	if len(keys) == 0 {
		return 0
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	var h uint32 = 2166136261
	for _, k := range sorted {
		for i := 0; i < len(k); i++ {
			h ^= uint32(k[i])
			h *= 16777619
		}
	}
	return int8(h & 1)
}

// PermutationTable is a bijection over [0, D): Permute's output lane i is
// the input's lane Table[i].
type PermutationTable struct {
	Table   []int
	Inverse []int
}

// Permute applies P to v: lane i of the result is lane P[i] of v.
func Permute(v Vector, p PermutationTable) Vector {
	out := Vector{Strategy: v.Strategy, Lanes: make([]int8, len(v.Lanes))}
	for i, src := range p.Table {
		out.Lanes[i] = v.Lanes[src]
	}
	return out
}

// Similarity returns cosine similarity in [-1, 1] for SignedByte vectors and
// normalized Hamming similarity in [0, 1] for BinaryDense/Sparse vectors.
// It is symmetric and returns 1.0 for equal vectors.
func Similarity(a, b Vector) float64 {
	switch a.Strategy {
	case BinaryDense, Sparse:
		if len(a.Lanes) == 0 {
			return 1.0
		}
		agree := 0
		for i := range a.Lanes {
			if a.Lanes[i] == b.Lanes[i] {
				agree++
			}
		}
		return float64(agree) / float64(len(a.Lanes))
	default:
		var dot, na, nb float64
		for i := range a.Lanes {
			fa, fb := float64(a.Lanes[i]), float64(b.Lanes[i])
			dot += fa * fb
			na += fa * fa
			nb += fb * fb
		}
		if na == 0 || nb == 0 {
			if na == 0 && nb == 0 {
				return 1.0
			}
			return 0.0
		}
		return dot / (sqrt(na) * sqrt(nb))
	}
}

// sqrt avoids importing math solely for one call site in a hot loop; the
// Newton iteration below converges to float64 precision in a handful of
// steps for the magnitudes produced by dot-product norms here.
func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	z := x
	for i := 0; i < 40; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

// MaskedL1Distance sums |a[i]-b[i]| over lanes where mask[i] is true (or
// over all lanes when mask is nil).
func MaskedL1Distance(a, b Vector, mask []bool) int {
	total := 0
	for i := range a.Lanes {
		if mask != nil && !mask[i] {
			continue
		}
		d := int(a.Lanes[i]) - int(b.Lanes[i])
		if d < 0 {
			d = -d
		}
		total += d
	}
	return total
}

// SimResult is one entry of a TopKSimilar result.
type SimResult struct {
	Name       string
	Similarity float64
}

// TopKSimilar returns the k vocabulary entries most similar to query,
// ordered by descending similarity with a deterministic lexicographic
// tiebreak on name so equal-similarity cases never leak iteration-order
// nondeterminism.
func TopKSimilar(query Vector, vocabulary map[string]Vector, k int) []SimResult {
	results := make([]SimResult, 0, len(vocabulary))
	for name, v := range vocabulary {
		results = append(results, SimResult{Name: name, Similarity: Similarity(query, v)})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Name < results[j].Name
	})
	if k >= 0 && len(results) > k {
		results = results[:k]
	}
	return results
}
