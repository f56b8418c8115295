//go:build sqlite_vec && cgo

// Package annindex implements kb.ANNIndex backed by sqlite-vec (spec.md §5
// names an "optional ANN index" lookup_similar may consult before falling
// back to an exhaustive scan). Grounded on the teacher's
// internal/store/vector_store.go and init_vec.go: a vec0 virtual table
// keyed on a float32-packed embedding blob, queried with
// vec_distance_cosine, behind the same sqlite_vec+cgo build tag the
// teacher uses for its own ANN path. Building without that tag (or without
// cgo) compiles the Disabled stub in annindex_stub.go instead, so sys2
// never forces a cgo dependency on callers who don't need the ANN backend.
package annindex

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"sys2/internal/kb"
	"sys2/internal/logging"
	"sys2/internal/vector"
)

func init() {
	vec.Auto()
}

// Index is a sqlite-vec backed kb.ANNIndex. concepts resolves a matched
// fact ID back to its *ast.Fact, since the vec0 table only stores the ID
// and the packed embedding, not the fact itself.
type Index struct {
	db       *sql.DB
	concepts *kb.KB
	dim      int
}

// Open creates (or reopens) a sqlite-vec index at path for vectors of the
// given dimension, and wires it to concepts for fact-ID resolution.
func Open(path string, dimension int, concepts *kb.KB) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("annindex: open %s: %w", path, err)
	}
	stmt := fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS vec_facts USING vec0(embedding float[%d], fact_id TEXT)", dimension)
	if _, err := db.Exec(stmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("annindex: create vec0 table: %w", err)
	}
	return &Index{db: db, concepts: concepts, dim: dimension}, nil
}

// Insert implements kb.ANNIndex.
func (i *Index) Insert(factID string, v vector.Vector) error {
	blob := encodeLanes(v.Lanes)
	_, err := i.db.Exec("INSERT INTO vec_facts (embedding, fact_id) VALUES (?, ?)", blob, factID)
	if err != nil {
		logging.Get(logging.CategoryKB).Warn("annindex insert failed", zap.String("factID", factID), zap.Error(err))
		return fmt.Errorf("annindex: insert %s: %w", factID, err)
	}
	return nil
}

// Search implements kb.ANNIndex: sqlite-vec reports cosine distance, so
// similarity = 1 - distance, matching vector.CosineSimilarity's range.
func (i *Index) Search(query vector.Vector, threshold float64) ([]kb.SimilarFact, bool, error) {
	blob := encodeLanes(query.Lanes)
	rows, err := i.db.Query(
		"SELECT fact_id, vec_distance_cosine(embedding, ?) AS dist FROM vec_facts ORDER BY dist ASC LIMIT 25",
		blob,
	)
	if err != nil {
		return nil, false, fmt.Errorf("annindex: search: %w", err)
	}
	defer rows.Close()

	var out []kb.SimilarFact
	for rows.Next() {
		var factID string
		var dist float64
		if err := rows.Scan(&factID, &dist); err != nil {
			return nil, false, fmt.Errorf("annindex: scan: %w", err)
		}
		sim := 1 - dist
		if sim < threshold {
			continue
		}
		fact, ok := i.concepts.FactByID(factID)
		if !ok {
			continue
		}
		out = append(out, kb.SimilarFact{Fact: fact, Similarity: sim})
	}
	return out, true, nil
}

// Close releases the underlying sqlite connection.
func (i *Index) Close() error {
	return i.db.Close()
}

func encodeLanes(lanes []int8) []byte {
	floats := make([]float32, len(lanes))
	for idx, lane := range lanes {
		floats[idx] = float32(lane)
	}
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, floats)
	return buf.Bytes()
}
