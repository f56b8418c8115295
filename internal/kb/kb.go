// Package kb implements ConceptStore/KB: the session's ground truth --
// atoms (via vocab), facts, rules, and the indexes QueryEngine/KBMatcher
// read from.
package kb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sys2/internal/ast"
	"sys2/internal/encode"
	"sys2/internal/logging"
	"sys2/internal/vector"
	"sys2/internal/vocab"
)

// RelationSlot is the per-relation metadata spec.md §3 names: its
// permutation pair lives in the Permuter, this struct carries the flags.
type RelationSlot struct {
	Name         string
	Transitive   bool
	Symmetric    bool
	InverseOf    string
	ComputableBy string // ComputePlugin name, empty if not computable
}

// Stats are the per-session counters spec.md §4.6 requires KBMatcher to
// maintain; KB owns the storage, KBMatcher increments them.
type Stats struct {
	KBScans         int
	RuleAttempts    int
	TransitiveSteps int
}

// ANNIndex is the optional vector-similarity backend described in
// SPEC_FULL.md §11.1. When set on a KB, LookupSimilar consults it first and
// falls back to the exhaustive scan if it returns an error or ok=false.
type ANNIndex interface {
	Insert(factID string, v vector.Vector) error
	Search(query vector.Vector, threshold float64) ([]SimilarFact, bool, error)
}

// SimilarFact is one exhaustive or ANN similarity match.
type SimilarFact struct {
	Fact       *ast.Fact
	Similarity float64
}

// KB is the session's fact/rule store. All mutation happens through
// AddFact/AddRule; Facts and Rules are otherwise immutable once inserted.
type KB struct {
	mu sync.RWMutex

	space    *vector.Space
	vocab    *vocab.Vocabulary
	encoder  *encode.Encoder
	relSlots map[string]RelationSlot

	facts     []*ast.Fact
	factsByID map[string]*ast.Fact

	// exactByOp[operator][subject|object] holds fully-ground facts for
	// O(1) exact lookup; wildcardByOp[operator] holds every fact under
	// that operator for linear wildcard scanning.
	exactByOp    map[string]map[string][]*ast.Fact
	wildcardByOp map[string][]*ast.Fact

	rules       []*ast.Rule
	rulesByHead map[string][]*ast.Rule

	// aggregates[operator] is the lazily-recomputed bundle of every fact
	// vector under that operator, used by the holographic unification
	// scheme in internal/query. dirty tracks which operators need a
	// rebuild, satisfying the "dirty flag consulted at entry of every
	// read path" invariant (spec.md §4.4, §5).
	aggregates map[string]vector.Vector
	dirty      map[string]bool

	ann ANNIndex

	Stats Stats
}

// New constructs an empty KB over the given encoding components.
func New(space *vector.Space, vocabulary *vocab.Vocabulary, encoder *encode.Encoder) *KB {
	return &KB{
		space:        space,
		vocab:        vocabulary,
		encoder:      encoder,
		relSlots:     make(map[string]RelationSlot),
		factsByID:    make(map[string]*ast.Fact),
		exactByOp:    make(map[string]map[string][]*ast.Fact),
		wildcardByOp: make(map[string][]*ast.Fact),
		rulesByHead:  make(map[string][]*ast.Rule),
		aggregates:   make(map[string]vector.Vector),
		dirty:        make(map[string]bool),
	}
}

// SetANNIndex installs an optional vector similarity backend (see
// SPEC_FULL.md §11.1). Passing nil disables it.
func (k *KB) SetANNIndex(ann ANNIndex) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.ann = ann
}

// RegisterRelation installs or updates a relation's flags. AddFact/AddRule
// auto-register a relation with default (non-transitive, non-symmetric)
// flags if it has never been seen, so every relation referenced by any
// fact or rule always has a corresponding slot (spec.md §3 KB invariant c).
func (k *KB) RegisterRelation(slot RelationSlot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.relSlots[slot.Name] = slot
}

// RelationSlot returns the slot for name, auto-registering a default one
// if it has never been seen.
func (k *KB) RelationSlot(name string) RelationSlot {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.relationSlotLocked(name)
}

func (k *KB) relationSlotLocked(name string) RelationSlot {
	if slot, ok := k.relSlots[name]; ok {
		return slot
	}
	slot := RelationSlot{Name: name}
	k.relSlots[name] = slot
	return slot
}

// RelationSlots returns every registered relation slot, in no particular
// order. Used by persistence backends that need to enumerate relation
// metadata rather than look it up one name at a time.
func (k *KB) RelationSlots() []RelationSlot {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]RelationSlot, 0, len(k.relSlots))
	for _, slot := range k.relSlots {
		out = append(out, slot)
	}
	return out
}

// AddFact encodes node and inserts it as an immutable fact, updating every
// index. Returns the generated fact ID.
func (k *KB) AddFact(node *ast.Node, confidence float64, provenance ast.Provenance) (string, error) {
	if !node.IsGround() {
		return "", fmt.Errorf("kb: add_fact requires a fully ground node, got holes %v", node.Holes())
	}

	vec := k.encoder.Encode(node, 0)
	fact := &ast.Fact{
		ID:         uuid.NewString(),
		Node:       node,
		Vector:     vec,
		Confidence: confidence,
		Provenance: provenance,
	}

	k.mu.Lock()
	k.relationSlotLocked(node.Relation)
	k.facts = append(k.facts, fact)
	k.factsByID[fact.ID] = fact
	k.indexFactLocked(fact)
	k.dirty[node.Relation] = true
	k.mu.Unlock()

	if k.ann != nil {
		if err := k.ann.Insert(fact.ID, vec); err != nil {
			logging.Get(logging.CategoryKB).Warn("ann insert failed", zap.Error(err))
		}
	}

	logging.Get(logging.CategoryKB).Debug("fact added",
		zap.String("id", fact.ID), zap.String("relation", node.Relation))
	return fact.ID, nil
}

func (k *KB) indexFactLocked(fact *ast.Fact) {
	op := fact.Node.Relation
	if k.exactByOp[op] == nil {
		k.exactByOp[op] = make(map[string][]*ast.Fact)
	}
	key := argKey(fact.Node.Subject, fact.Node.Object)
	k.exactByOp[op][key] = append(k.exactByOp[op][key], fact)
	k.wildcardByOp[op] = append(k.wildcardByOp[op], fact)
}

func argKey(s, o ast.Term) string {
	return termKey(s) + "\x1f" + termKey(o)
}

func termKey(t ast.Term) string {
	switch t.Kind {
	case ast.TermAtom:
		return t.Name
	case ast.TermNode:
		if t.Node == nil {
			return "<nil-node>"
		}
		return t.Node.Relation + "(" + termKey(t.Node.Subject) + "," + termKey(t.Node.Object) + ")"
	default:
		return "<hole>"
	}
}

// AddRule stores a rule and indexes it by every head operator it can
// conclude. extraConsequents, when given, makes this rule's consequent
// conjunctive: spec.md §9's ExpandConjunctiveConsequents, when enabled on
// the session's ProofEngine, lets each of them be proved independently via
// the same rule and the same bindings as conclusion.
func (k *KB) AddRule(conclusion *ast.Node, condition *ast.Condition, extraConsequents ...*ast.Node) (string, error) {
	if conclusion == nil {
		return "", fmt.Errorf("kb: add_rule requires a conclusion")
	}
	rule := &ast.Rule{ID: uuid.NewString(), Conclusion: conclusion, Consequents: extraConsequents, Condition: condition}
	heads := rule.Heads()

	k.mu.Lock()
	for _, head := range heads {
		k.relationSlotLocked(head)
		k.rulesByHead[head] = append(k.rulesByHead[head], rule)
	}
	k.rules = append(k.rules, rule)
	k.mu.Unlock()

	logging.Get(logging.CategoryKB).Debug("rule added", zap.String("id", rule.ID), zap.Strings("heads", heads))
	return rule.ID, nil
}

// LookupExact returns every fact whose ground metadata exactly matches
// (operator, args), treating holes in args as wildcards. O(1) to the
// matching bucket when both args are ground; otherwise a linear scan of
// the operator's facts.
func (k *KB) LookupExact(operator string, subject, object ast.Term) []*ast.Fact {
	k.mu.RLock()
	defer k.mu.RUnlock()
	k.Stats.KBScans++

	if subject.Kind != ast.TermHole && object.Kind != ast.TermHole {
		key := argKey(subject, object)
		return append([]*ast.Fact(nil), k.exactByOp[operator][key]...)
	}

	var out []*ast.Fact
	for _, f := range k.wildcardByOp[operator] {
		if termMatches(subject, f.Node.Subject) && termMatches(object, f.Node.Object) {
			out = append(out, f)
		}
	}
	return out
}

func termMatches(pattern, ground ast.Term) bool {
	if pattern.Kind == ast.TermHole {
		return true
	}
	return termKey(pattern) == termKey(ground)
}

// LookupSimilar returns facts whose vector has similarity >= threshold to
// query, descending. Uses the ANN backend when configured, else an
// exhaustive scan over every fact.
func (k *KB) LookupSimilar(query vector.Vector, threshold float64) []SimilarFact {
	k.mu.RLock()
	ann := k.ann
	k.mu.RUnlock()

	if ann != nil {
		if results, ok, err := ann.Search(query, threshold); err == nil && ok {
			return results
		}
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	k.Stats.KBScans++

	var out []SimilarFact
	for _, f := range k.facts {
		sim := vector.Similarity(query, f.Vector)
		if sim >= threshold {
			out = append(out, SimilarFact{Fact: f, Similarity: sim})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Fact.ID < out[j].Fact.ID
	})
	return out
}

// IncRuleAttempt increments the rule-attempt counter. Called by KBMatcher
// whenever it tries unifying a rule's conclusion against a goal.
func (k *KB) IncRuleAttempt() {
	k.mu.Lock()
	k.Stats.RuleAttempts++
	k.mu.Unlock()
}

// IncTransitiveStep increments the transitive-reasoning step counter.
func (k *KB) IncTransitiveStep() {
	k.mu.Lock()
	k.Stats.TransitiveSteps++
	k.mu.Unlock()
}

// StatsSnapshot returns a copy of the current per-session counters.
func (k *KB) StatsSnapshot() Stats {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.Stats
}

// RulesForHead returns every rule that can conclude operator, whether as
// its primary Conclusion or one of its Consequents.
func (k *KB) RulesForHead(operator string) []*ast.Rule {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]*ast.Rule(nil), k.rulesByHead[operator]...)
}

// FactsForOperator returns every fact under operator (ground wildcard scan list).
func (k *KB) FactsForOperator(operator string) []*ast.Fact {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]*ast.Fact(nil), k.wildcardByOp[operator]...)
}

// FactByID returns the fact with the given ID, if present.
func (k *KB) FactByID(id string) (*ast.Fact, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	f, ok := k.factsByID[id]
	return f, ok
}

// AggregateVector returns the lazily-rebuilt bundle of every fact vector
// under operator, used by the holographic query scheme in internal/query.
func (k *KB) AggregateVector(operator string) vector.Vector {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.dirty[operator] {
		if v, ok := k.aggregates[operator]; ok {
			return v
		}
	}
	facts := k.wildcardByOp[operator]
	if len(facts) == 0 {
		agg := k.space.Zero()
		k.aggregates[operator] = agg
		k.dirty[operator] = false
		return agg
	}
	vecs := make([]vector.Vector, len(facts))
	keys := make([]string, len(facts))
	for i, f := range facts {
		vecs[i] = f.Vector
		keys[i] = f.ID
	}
	agg := vector.Bundle(vecs, keys)
	k.aggregates[operator] = agg
	k.dirty[operator] = false
	return agg
}

// Vocab, Space, Encoder expose the components QueryEngine/ConditionProver
// need without duplicating session wiring.
func (k *KB) Vocab() *vocab.Vocabulary { return k.vocab }
func (k *KB) Space() *vector.Space     { return k.space }
func (k *KB) Encoder() *encode.Encoder { return k.encoder }

// FactCount returns the number of facts currently stored.
func (k *KB) FactCount() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.facts)
}

// Facts returns every fact, in insertion order.
func (k *KB) Facts() []*ast.Fact {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]*ast.Fact(nil), k.facts...)
}

// Rules returns every rule, in insertion order.
func (k *KB) Rules() []*ast.Rule {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]*ast.Rule(nil), k.rules...)
}
