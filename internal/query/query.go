// Package query implements UnificationEngine/QueryEngine: single-step,
// up-to-three-hole query answering over a KB's holographic aggregate
// vectors (spec.md §4.5).
package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"sys2/internal/ast"
	"sys2/internal/config"
	"sys2/internal/kb"
	"sys2/internal/permute"
	"sys2/internal/vector"
	"sys2/internal/vocab"
)

// HoleAnswer is the resolved (or unresolved) value bound to one hole name.
type HoleAnswer struct {
	Answer       string
	Similarity   float64
	Alternatives []vector.SimResult
}

// Result mirrors the QueryResult entity from spec.md §3.
type Result struct {
	Success    bool
	Bindings   map[string]HoleAnswer
	Confidence float64
	Ambiguous  bool
	Reason     string
}

// Engine answers single Node queries against a KB.
type Engine struct {
	KB         *kb.KB
	Vocab      *vocab.Vocabulary
	Permuter   *permute.Permuter
	Thresholds config.ThresholdConfig
}

// New constructs a query Engine.
func New(concepts *kb.KB, vocabulary *vocab.Vocabulary, permuter *permute.Permuter, thresholds config.ThresholdConfig) *Engine {
	return &Engine{KB: concepts, Vocab: vocabulary, Permuter: permuter, Thresholds: thresholds}
}

// Execute implements spec.md §4.5's algorithm. Holes are only supported in
// the top-level subject/object slots of node (not inside nested composite
// terms); a hole nested inside a composite subject/object returns
// UnsupportedHoleShape, since the slot-permutation chain for a hole at
// arbitrary nesting depth is not part of this engine's contract.
func (e *Engine) Execute(node *ast.Node) Result {
	holes := node.Holes()
	if len(holes) > 3 {
		return Result{Success: false, Reason: "TooManyHoles"}
	}
	if len(holes) == 0 {
		return e.directMatch(node)
	}
	if node.Subject.Kind == ast.TermNode || node.Object.Kind == ast.TermNode {
		return Result{Success: false, Reason: "UnsupportedHoleShape"}
	}
	return e.holeQuery(node, holes)
}

// ExecuteMany answers statements concurrently over the same frozen KB
// snapshot, per SPEC_FULL.md §11.5: queries are read-only, so fanning them
// out across goroutines is safe as long as the KB itself is not mutated
// concurrently.
func (e *Engine) ExecuteMany(ctx context.Context, statements []*ast.Node) ([]Result, error) {
	results := make([]Result, len(statements))
	g, _ := errgroup.WithContext(ctx)
	for i, stmt := range statements {
		i, stmt := i, stmt
		g.Go(func() error {
			results[i] = e.Execute(stmt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("query: execute many: %w", err)
	}
	return results, nil
}

func (e *Engine) directMatch(node *ast.Node) Result {
	facts := e.KB.LookupExact(node.Relation, node.Subject, node.Object)
	if len(facts) > 0 {
		best := facts[0].Confidence
		for _, f := range facts[1:] {
			if f.Confidence > best {
				best = f.Confidence
			}
		}
		return Result{Success: true, Confidence: best}
	}

	vec := e.KB.Encoder().Encode(node, 0)
	similar := e.KB.LookupSimilar(vec, e.Thresholds.Similarity)
	if len(similar) > 0 {
		return Result{Success: true, Confidence: similar[0].Similarity}
	}
	return Result{Success: false, Reason: "NoMatch"}
}

type slotPos int

const (
	slotSubject slotPos = iota
	slotObject
)

func (e *Engine) slotTable(pos slotPos, relation string) vector.PermutationTable {
	if pos == slotSubject {
		return identityTable(e.dim())
	}
	return e.Permuter.Table(relation)
}

func (e *Engine) inverseSlotTable(pos slotPos, relation string) vector.PermutationTable {
	if pos == slotSubject {
		return identityTable(e.dim())
	}
	return e.Permuter.Inverse(relation)
}

func (e *Engine) dim() int { return e.KB.Space().Dimension }

func identityTable(dim int) vector.PermutationTable {
	t := make([]int, dim)
	for i := range t {
		t[i] = i
	}
	return vector.PermutationTable{Table: t, Inverse: t}
}

func (e *Engine) holeQuery(node *ast.Node, holes []string) Result {
	opVec := e.Vocab.Intern(node.Relation)
	partial := opVec

	type slotInfo struct {
		pos  slotPos
		term ast.Term
	}
	var knowns, holeSlots []slotInfo
	if node.Subject.Kind == ast.TermHole {
		holeSlots = append(holeSlots, slotInfo{slotSubject, node.Subject})
	} else {
		knowns = append(knowns, slotInfo{slotSubject, node.Subject})
	}
	if node.Object.Kind == ast.TermHole {
		holeSlots = append(holeSlots, slotInfo{slotObject, node.Object})
	} else {
		knowns = append(knowns, slotInfo{slotObject, node.Object})
	}

	for _, k := range knowns {
		knownVec := e.Vocab.Intern(k.term.Name)
		permuted := vector.Permute(knownVec, e.slotTable(k.pos, node.Relation))
		partial = vector.Bind(partial, permuted)
	}

	aggregate := e.KB.AggregateVector(node.Relation)
	candidate := vector.Bind(aggregate, partial)

	bindings := make(map[string]HoleAnswer, len(holeSlots))
	var simSum float64
	ambiguous := false
	ambiguityPenalty := 1.0

	for _, h := range holeSlots {
		holeVec := vector.Permute(candidate, e.inverseSlotTable(h.pos, node.Relation))
		top := vector.TopKSimilar(holeVec, e.Vocab.Snapshot(), 5)

		var answer HoleAnswer
		if len(top) > 0 {
			answer.Alternatives = top
			if top[0].Similarity > e.Thresholds.ConclusionMatch {
				answer.Answer = top[0].Name
				answer.Similarity = top[0].Similarity
			}
			if len(top) > 1 {
				gap := top[0].Similarity - top[1].Similarity
				if gap <= e.Thresholds.AmbiguityMargin {
					ambiguous = true
				}
				if gap <= 0.05 {
					ambiguityPenalty *= e.Thresholds.AmbiguityPenaltyStep
				}
			}
		}
		bindings[h.term.Name] = answer
		simSum += answer.Similarity
	}

	holePenalty := 1.0 - float64(len(holeSlots)-1)*e.Thresholds.HolePenaltyStep
	if holePenalty < 0 {
		holePenalty = 0
	}
	confidence := (simSum / float64(len(holeSlots))) * holePenalty * ambiguityPenalty

	anyResolved := false
	for _, b := range bindings {
		if b.Answer != "" {
			anyResolved = true
			break
		}
	}
	if !anyResolved {
		return Result{Success: false, Bindings: bindings, Reason: "NoBindingAboveThreshold"}
	}

	return Result{
		Success:    true,
		Bindings:   bindings,
		Confidence: confidence,
		Ambiguous:  ambiguous,
	}
}
