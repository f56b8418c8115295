// Package config holds the Session's configuration structs, grounded on
// the teacher's internal/config package: one small struct per concern,
// yaml tags throughout, and a single DefaultConfig() assembling them.
package config

import (
	"fmt"

	"sys2/internal/vector"
)

// SessionConfig holds the options spec.md §4.10 names as recognized
// construction options.
type SessionConfig struct {
	Dimension        int              `yaml:"dimension"`
	Strategy         string           `yaml:"strategy"` // BinaryDense | SignedByte | Sparse
	RecursionHorizon int              `yaml:"recursion_horizon"`
	MaxProofDepth    int              `yaml:"max_proof_depth"`
	ProofTimeoutMs   int              `yaml:"proof_timeout_ms"`
	TransitiveRelations []string      `yaml:"transitive_relations"`
	CWA              bool             `yaml:"cwa"`
	TheorySeed       uint64           `yaml:"theory_seed"`
	ExpandConjunctiveConsequents bool `yaml:"expand_conjunctive_consequents"`

	Thresholds ThresholdConfig `yaml:"thresholds"`
	Logging    LoggingConfig   `yaml:"logging"`
}

// VectorStrategy converts the configured strategy name to a vector.Strategy.
func (c SessionConfig) VectorStrategy() (vector.Strategy, error) {
	switch c.Strategy {
	case "", "SignedByte":
		return vector.SignedByte, nil
	case "BinaryDense":
		return vector.BinaryDense, nil
	case "Sparse":
		return vector.Sparse, nil
	default:
		return 0, fmt.Errorf("config: unknown strategy %q", c.Strategy)
	}
}

// DefaultConfig returns production defaults matching every constant
// spec.md names: recursion horizon 3, max proof depth 10, transitive
// relations {isA, locatedIn, partOf, subclassOf, before, after, causes},
// CWA on, expandConjunctiveConsequents off (spec.md §9 Open Questions).
func DefaultConfig() SessionConfig {
	return SessionConfig{
		Dimension:        2048,
		Strategy:         "SignedByte",
		RecursionHorizon: 3,
		MaxProofDepth:    10,
		ProofTimeoutMs:   5000,
		TransitiveRelations: []string{
			"isA", "locatedIn", "partOf", "subclassOf", "before", "after", "causes",
		},
		CWA:                          true,
		TheorySeed:                   1,
		ExpandConjunctiveConsequents: false,
		Thresholds:                   DefaultThresholds(),
		Logging:                      LoggingConfig{Level: "info", Debug: false},
	}
}
