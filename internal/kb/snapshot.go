package kb

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"go.uber.org/multierr"

	"sys2/internal/ast"
	"sys2/internal/vector"
)

// Snapshotter is the persistence contract spec.md §6's session.snapshot()/
// session.restore(blob) needs from a storage backend: save a KB's full
// state, and load it back into a (possibly different) KB. BlobSnapshotter
// below implements it over the opaque gob blob this file defines;
// internal/kb/sqlitestore implements it over a queryable modernc.org/sqlite
// database, so a Session can be configured with either.
type Snapshotter interface {
	Save(k *KB) error
	Load(k *KB) error
}

// BlobSnapshotter adapts Snapshot/Restore to the Snapshotter interface,
// holding the most recent blob in memory. It is the zero-dependency default
// every Session gets when no sqlitestore is configured.
type BlobSnapshotter struct {
	blob []byte
}

// Save captures k's state as an in-memory blob.
func (b *BlobSnapshotter) Save(k *KB) error {
	blob, err := k.Snapshot()
	if err != nil {
		return err
	}
	b.blob = blob
	return nil
}

// Load restores k from the most recently saved blob.
func (b *BlobSnapshotter) Load(k *KB) error {
	if b.blob == nil {
		return fmt.Errorf("kb: blob snapshotter has no saved state")
	}
	return k.Restore(b.blob)
}

// snapshotMagic identifies the blob format version, so Restore can refuse a
// blob produced by an incompatible encoding rather than silently
// misinterpreting it.
const snapshotMagic = "SYS2KBv1"

// snapshotFact/snapshotRule/snapshotRelation are gob-friendly mirrors of the
// ast types: ast.Node/Term nest pointers that gob handles fine, but keeping
// an explicit wire struct here means the on-disk shape doesn't silently
// drift if ast.Fact grows fields the snapshot shouldn't carry.
type snapshotFact struct {
	ID         string
	Node       *ast.Node
	Lanes      []int8
	Strategy   vector.Strategy
	Confidence float64
	Provenance ast.Provenance
	Metadata   map[string]string
}

type snapshotRule struct {
	ID          string
	Conclusion  *ast.Node
	Consequents []*ast.Node
	Condition   *ast.Condition
}

type snapshotRelation struct {
	Name         string
	Transitive   bool
	Symmetric    bool
	InverseOf    string
	ComputableBy string
}

type snapshotBody struct {
	Facts     []snapshotFact
	Rules     []snapshotRule
	Relations []snapshotRelation
}

// Snapshot serializes every fact, rule, and relation slot into a
// self-describing byte blob (spec.md §6 round-trip persistence contract).
// The vector index and exact-match index are rebuilt on Restore rather than
// serialized, since they are pure functions of the facts.
func (k *KB) Snapshot() ([]byte, error) {
	k.mu.RLock()
	body := snapshotBody{
		Facts:     make([]snapshotFact, len(k.facts)),
		Rules:     make([]snapshotRule, len(k.rules)),
		Relations: make([]snapshotRelation, 0, len(k.relSlots)),
	}
	for i, f := range k.facts {
		body.Facts[i] = snapshotFact{
			ID:         f.ID,
			Node:       f.Node,
			Lanes:      append([]int8(nil), f.Vector.Lanes...),
			Strategy:   f.Vector.Strategy,
			Confidence: f.Confidence,
			Provenance: f.Provenance,
			Metadata:   f.Metadata,
		}
	}
	for i, r := range k.rules {
		body.Rules[i] = snapshotRule{ID: r.ID, Conclusion: r.Conclusion, Consequents: r.Consequents, Condition: r.Condition}
	}
	for name, slot := range k.relSlots {
		body.Relations = append(body.Relations, snapshotRelation{
			Name: name, Transitive: slot.Transitive, Symmetric: slot.Symmetric,
			InverseOf: slot.InverseOf, ComputableBy: slot.ComputableBy,
		})
	}
	k.mu.RUnlock()

	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(body); err != nil {
		return nil, fmt.Errorf("kb: snapshot encode: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(snapshotMagic)
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(payload.Len()))
	out.Write(lenBuf[:])
	out.Write(payload.Bytes())
	return out.Bytes(), nil
}

// Restore replaces k's entire contents with the facts/rules/relations
// encoded in blob, rebuilding every index from scratch. It is
// all-or-nothing: a malformed blob leaves k untouched.
func (k *KB) Restore(blob []byte) error {
	if len(blob) < len(snapshotMagic)+8 {
		return fmt.Errorf("kb: restore: blob too short")
	}
	if string(blob[:len(snapshotMagic)]) != snapshotMagic {
		return fmt.Errorf("kb: restore: bad magic %q", blob[:len(snapshotMagic)])
	}
	offset := len(snapshotMagic)
	size := binary.LittleEndian.Uint64(blob[offset : offset+8])
	offset += 8
	if uint64(len(blob)-offset) != size {
		return fmt.Errorf("kb: restore: length mismatch, header says %d, have %d", size, len(blob)-offset)
	}

	var body snapshotBody
	if err := gob.NewDecoder(bytes.NewReader(blob[offset:])).Decode(&body); err != nil {
		return fmt.Errorf("kb: restore decode: %w", err)
	}

	facts := make([]*ast.Fact, len(body.Facts))
	for i, sf := range body.Facts {
		facts[i] = &ast.Fact{
			ID:         sf.ID,
			Node:       sf.Node,
			Vector:     vector.Vector{Strategy: sf.Strategy, Lanes: sf.Lanes},
			Confidence: sf.Confidence,
			Provenance: sf.Provenance,
			Metadata:   sf.Metadata,
		}
	}

	rules := make([]*ast.Rule, len(body.Rules))
	for i, sr := range body.Rules {
		rules[i] = &ast.Rule{ID: sr.ID, Conclusion: sr.Conclusion, Consequents: sr.Consequents, Condition: sr.Condition}
	}

	relations := make([]RelationSlot, len(body.Relations))
	for i, sr := range body.Relations {
		relations[i] = RelationSlot{
			Name: sr.Name, Transitive: sr.Transitive, Symmetric: sr.Symmetric,
			InverseOf: sr.InverseOf, ComputableBy: sr.ComputableBy,
		}
	}

	return k.RestoreFromParts(facts, rules, relations)
}

// RestoreFromParts replaces k's entire contents with already-materialized
// facts/rules/relations, rebuilding every index from scratch. Both
// Restore (the gob blob codec) and internal/kb/sqlitestore (the queryable
// SQL-backed Snapshotter) decode their own on-disk format into these plain
// structs and hand them here, so the index-rebuilding logic lives once.
//
// When an ANN index is configured, every fact's vector must be reinserted
// one at a time; a single bad vector shouldn't hide failures on the rest,
// so reinsert failures are aggregated with go.uber.org/multierr into one
// returned error covering every fact that failed, rather than stopping at
// the first.
func (k *KB) RestoreFromParts(facts []*ast.Fact, rules []*ast.Rule, relations []RelationSlot) error {
	factsByID := make(map[string]*ast.Fact, len(facts))
	exactByOp := make(map[string]map[string][]*ast.Fact)
	wildcardByOp := make(map[string][]*ast.Fact)
	for _, f := range facts {
		factsByID[f.ID] = f
		op := f.Node.Relation
		if exactByOp[op] == nil {
			exactByOp[op] = make(map[string][]*ast.Fact)
		}
		key := argKey(f.Node.Subject, f.Node.Object)
		exactByOp[op][key] = append(exactByOp[op][key], f)
		wildcardByOp[op] = append(wildcardByOp[op], f)
	}

	rulesByHead := make(map[string][]*ast.Rule)
	for _, r := range rules {
		for _, head := range r.Heads() {
			rulesByHead[head] = append(rulesByHead[head], r)
		}
	}

	relSlots := make(map[string]RelationSlot, len(relations))
	for _, slot := range relations {
		relSlots[slot.Name] = slot
	}

	k.mu.Lock()
	k.facts = facts
	k.factsByID = factsByID
	k.exactByOp = exactByOp
	k.wildcardByOp = wildcardByOp
	k.rules = rules
	k.rulesByHead = rulesByHead
	k.relSlots = relSlots
	k.aggregates = make(map[string]vector.Vector)
	k.dirty = make(map[string]bool)
	for op := range wildcardByOp {
		k.dirty[op] = true
	}
	k.mu.Unlock()

	if k.ann != nil {
		var errs error
		for _, f := range facts {
			if err := k.ann.Insert(f.ID, f.Vector); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("kb: restore: ann reinsert %s: %w", f.ID, err))
			}
		}
		return errs
	}
	return nil
}
