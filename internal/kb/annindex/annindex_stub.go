//go:build !sqlite_vec || !cgo

// Package annindex implements kb.ANNIndex backed by sqlite-vec. This file
// is the default, cgo-free build: sys2 builds and runs without a C
// toolchain, and KB.LookupSimilar transparently falls back to its
// exhaustive in-memory scan (see SPEC_FULL.md §11.1). Build with
// `-tags sqlite_vec` on a cgo-enabled toolchain for the real ANN backend
// in annindex_cgo.go.
package annindex

import (
	"fmt"

	"sys2/internal/kb"
	"sys2/internal/vector"
)

// Index is the disabled stand-in compiled when sqlite-vec's build tags are
// absent. Every operation reports that the ANN backend is unavailable.
type Index struct{}

// Open always fails in the stub build: a caller that explicitly asked for
// the sqlite-vec backend deserves an error, not a silently-degraded noop.
func Open(path string, dimension int, concepts *kb.KB) (*Index, error) {
	return nil, fmt.Errorf("annindex: built without sqlite_vec+cgo; rebuild with -tags sqlite_vec")
}

// Insert implements kb.ANNIndex.
func (i *Index) Insert(factID string, v vector.Vector) error {
	return fmt.Errorf("annindex: sqlite-vec backend not built in")
}

// Search implements kb.ANNIndex.
func (i *Index) Search(query vector.Vector, threshold float64) ([]kb.SimilarFact, bool, error) {
	return nil, false, fmt.Errorf("annindex: sqlite-vec backend not built in")
}

// Close is a no-op.
func (i *Index) Close() error { return nil }
