package annindex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sys2/internal/encode"
	"sys2/internal/kb"
	"sys2/internal/permute"
	"sys2/internal/vector"
	"sys2/internal/vocab"

	"sys2/internal/audit"
)

// TestIndexSatisfiesANNIndex fails to compile if Index stops implementing
// kb.ANNIndex, in either the cgo or the stub build.
var _ kb.ANNIndex = (*Index)(nil)

func TestOpenWithoutBuildTagReportsUnavailable(t *testing.T) {
	space := vector.NewSpace(64, vector.SignedByte, 1)
	v := vocab.New(space)
	p := permute.New(64, 1)
	enc := encode.New(space, v, p, 3, nil, audit.NopSink{})
	concepts := kb.New(space, v, enc)

	idx, err := Open(t.TempDir()+"/vec.db", 64, concepts)
	if err != nil {
		assert.Nil(t, idx)
		return
	}
	// Only reachable in a sqlite_vec+cgo build: exercise the real path.
	assert.NoError(t, idx.Insert("f1", space.Zero()))
}
