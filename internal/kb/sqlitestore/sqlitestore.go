// Package sqlitestore implements kb.Snapshotter over a modernc.org/sqlite
// database: a pure-Go, cgo-free on-disk layout with atoms/facts/rules/
// header tables, grounded on the teacher's internal/store/local.go (its
// primary knowledge store, also built on modernc.org/sqlite). Unlike the
// opaque gob blob kb.BlobSnapshotter produces, a sqlitestore database is
// directly queryable with any sqlite client -- the tradeoff SPEC_FULL.md
// §11.2 calls out for hosts that want an inspectable KB rather than only a
// binary blob.
package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"sys2/internal/ast"
	"sys2/internal/kb"
	"sys2/internal/vector"
)

const schemaVersion = "1"

// Store is a modernc.org/sqlite backed kb.Snapshotter.
type Store struct {
	db *sql.DB
}

// Open creates (or reopens) a sqlite database at path and ensures its
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS header (key TEXT PRIMARY KEY, value TEXT)`,
		`CREATE TABLE IF NOT EXISTS atoms (name TEXT PRIMARY KEY)`,
		`CREATE TABLE IF NOT EXISTS facts (
			id TEXT PRIMARY KEY,
			node TEXT NOT NULL,
			lanes BLOB NOT NULL,
			strategy INTEGER NOT NULL,
			confidence REAL NOT NULL,
			prov_source TEXT,
			prov_note TEXT,
			metadata TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS rules (
			id TEXT PRIMARY KEY,
			conclusion TEXT NOT NULL,
			consequents TEXT,
			condition TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS relations (
			name TEXT PRIMARY KEY,
			transitive INTEGER NOT NULL,
			symmetric INTEGER NOT NULL,
			inverse_of TEXT,
			computable_by TEXT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlitestore: init schema: %w", err)
		}
	}
	return nil
}

// Save implements kb.Snapshotter: it replaces every row with k's current
// facts/rules/relations/atoms inside one transaction, so a crash mid-save
// never leaves a half-written database.
func (s *Store) Save(k *kb.KB) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlitestore: begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"facts", "rules", "relations", "atoms"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("sqlitestore: clear %s: %w", table, err)
		}
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO header (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		return fmt.Errorf("sqlitestore: write header: %w", err)
	}

	factStmt, err := tx.Prepare(`INSERT INTO facts (id, node, lanes, strategy, confidence, prov_source, prov_note, metadata) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlitestore: prepare facts: %w", err)
	}
	defer factStmt.Close()

	atomStmt, err := tx.Prepare(`INSERT OR IGNORE INTO atoms (name) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("sqlitestore: prepare atoms: %w", err)
	}
	defer atomStmt.Close()

	for _, f := range k.Facts() {
		nodeJSON, err := json.Marshal(f.Node)
		if err != nil {
			return fmt.Errorf("sqlitestore: marshal node %s: %w", f.ID, err)
		}
		metaJSON, err := json.Marshal(f.Metadata)
		if err != nil {
			return fmt.Errorf("sqlitestore: marshal metadata %s: %w", f.ID, err)
		}
		if _, err := factStmt.Exec(f.ID, string(nodeJSON), lanesToBlob(f.Vector.Lanes), int(f.Vector.Strategy), f.Confidence, f.Provenance.Source, f.Provenance.Note, string(metaJSON)); err != nil {
			return fmt.Errorf("sqlitestore: insert fact %s: %w", f.ID, err)
		}
		for _, name := range atomNames(f.Node) {
			if _, err := atomStmt.Exec(name); err != nil {
				return fmt.Errorf("sqlitestore: insert atom %s: %w", name, err)
			}
		}
	}

	ruleStmt, err := tx.Prepare(`INSERT INTO rules (id, conclusion, consequents, condition) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlitestore: prepare rules: %w", err)
	}
	defer ruleStmt.Close()

	for _, r := range k.Rules() {
		conclusionJSON, err := json.Marshal(r.Conclusion)
		if err != nil {
			return fmt.Errorf("sqlitestore: marshal conclusion %s: %w", r.ID, err)
		}
		consequentsJSON, err := json.Marshal(r.Consequents)
		if err != nil {
			return fmt.Errorf("sqlitestore: marshal consequents %s: %w", r.ID, err)
		}
		conditionJSON, err := json.Marshal(r.Condition)
		if err != nil {
			return fmt.Errorf("sqlitestore: marshal condition %s: %w", r.ID, err)
		}
		if _, err := ruleStmt.Exec(r.ID, string(conclusionJSON), string(consequentsJSON), string(conditionJSON)); err != nil {
			return fmt.Errorf("sqlitestore: insert rule %s: %w", r.ID, err)
		}
	}

	relStmt, err := tx.Prepare(`INSERT INTO relations (name, transitive, symmetric, inverse_of, computable_by) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlitestore: prepare relations: %w", err)
	}
	defer relStmt.Close()

	for _, slot := range k.RelationSlots() {
		if _, err := relStmt.Exec(slot.Name, slot.Transitive, slot.Symmetric, slot.InverseOf, slot.ComputableBy); err != nil {
			return fmt.Errorf("sqlitestore: insert relation %s: %w", slot.Name, err)
		}
	}

	return tx.Commit()
}

// Load implements kb.Snapshotter: it reads every row back and hands the
// materialized facts/rules/relations to kb.RestoreFromParts, which rebuilds
// k's indexes from scratch.
func (s *Store) Load(k *kb.KB) error {
	facts, err := s.loadFacts()
	if err != nil {
		return err
	}
	rules, err := s.loadRules()
	if err != nil {
		return err
	}
	relations, err := s.loadRelations()
	if err != nil {
		return err
	}
	return k.RestoreFromParts(facts, rules, relations)
}

func (s *Store) loadFacts() ([]*ast.Fact, error) {
	rows, err := s.db.Query(`SELECT id, node, lanes, strategy, confidence, prov_source, prov_note, metadata FROM facts`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: load facts: %w", err)
	}
	defer rows.Close()

	var facts []*ast.Fact
	for rows.Next() {
		var id, nodeJSON, provSource, provNote, metaJSON string
		var lanesBlob []byte
		var strategy int
		var confidence float64
		if err := rows.Scan(&id, &nodeJSON, &lanesBlob, &strategy, &confidence, &provSource, &provNote, &metaJSON); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan fact: %w", err)
		}
		var node ast.Node
		if err := json.Unmarshal([]byte(nodeJSON), &node); err != nil {
			return nil, fmt.Errorf("sqlitestore: unmarshal node %s: %w", id, err)
		}
		var metadata map[string]string
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &metadata); err != nil {
				return nil, fmt.Errorf("sqlitestore: unmarshal metadata %s: %w", id, err)
			}
		}
		facts = append(facts, &ast.Fact{
			ID:         id,
			Node:       &node,
			Vector:     vector.Vector{Strategy: vector.Strategy(strategy), Lanes: blobToLanes(lanesBlob)},
			Confidence: confidence,
			Provenance: ast.Provenance{Source: provSource, Note: provNote},
			Metadata:   metadata,
		})
	}
	return facts, rows.Err()
}

func (s *Store) loadRules() ([]*ast.Rule, error) {
	rows, err := s.db.Query(`SELECT id, conclusion, consequents, condition FROM rules`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: load rules: %w", err)
	}
	defer rows.Close()

	var rules []*ast.Rule
	for rows.Next() {
		var id, conclusionJSON, conditionJSON string
		var consequentsJSON sql.NullString
		if err := rows.Scan(&id, &conclusionJSON, &consequentsJSON, &conditionJSON); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan rule: %w", err)
		}
		var conclusion ast.Node
		if err := json.Unmarshal([]byte(conclusionJSON), &conclusion); err != nil {
			return nil, fmt.Errorf("sqlitestore: unmarshal conclusion %s: %w", id, err)
		}
		var consequents []*ast.Node
		if consequentsJSON.Valid && consequentsJSON.String != "" && consequentsJSON.String != "null" {
			if err := json.Unmarshal([]byte(consequentsJSON.String), &consequents); err != nil {
				return nil, fmt.Errorf("sqlitestore: unmarshal consequents %s: %w", id, err)
			}
		}
		var condition ast.Condition
		if err := json.Unmarshal([]byte(conditionJSON), &condition); err != nil {
			return nil, fmt.Errorf("sqlitestore: unmarshal condition %s: %w", id, err)
		}
		rules = append(rules, &ast.Rule{ID: id, Conclusion: &conclusion, Consequents: consequents, Condition: &condition})
	}
	return rules, rows.Err()
}

func (s *Store) loadRelations() ([]kb.RelationSlot, error) {
	rows, err := s.db.Query(`SELECT name, transitive, symmetric, inverse_of, computable_by FROM relations`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: load relations: %w", err)
	}
	defer rows.Close()

	var relations []kb.RelationSlot
	for rows.Next() {
		var slot kb.RelationSlot
		if err := rows.Scan(&slot.Name, &slot.Transitive, &slot.Symmetric, &slot.InverseOf, &slot.ComputableBy); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan relation: %w", err)
		}
		relations = append(relations, slot)
	}
	return relations, rows.Err()
}

func lanesToBlob(lanes []int8) []byte {
	out := make([]byte, len(lanes))
	for i, l := range lanes {
		out[i] = byte(l)
	}
	return out
}

func blobToLanes(blob []byte) []int8 {
	out := make([]int8, len(blob))
	for i, b := range blob {
		out[i] = int8(b)
	}
	return out
}

// atomNames collects every atom name appearing in a fact's node, for the
// atoms table's inventory of known names (used by hosts that want to
// browse the vocabulary without decoding every fact).
func atomNames(n *ast.Node) []string {
	var out []string
	var walk func(t ast.Term)
	walk = func(t ast.Term) {
		switch t.Kind {
		case ast.TermAtom:
			out = append(out, t.Name)
		case ast.TermNode:
			if t.Node != nil {
				walk(t.Node.Subject)
				walk(t.Node.Object)
			}
		}
	}
	walk(n.Subject)
	walk(n.Object)
	return out
}

var _ kb.Snapshotter = (*Store)(nil)
