package config

// ThresholdConfig collects every confidence/similarity constant the spec
// requires to be "exposed as configuration" rather than hard-coded
// (spec.md §4.10, §9). Field names follow the spec's own constant names.
type ThresholdConfig struct {
	Similarity           float64 `yaml:"similarity"`             // minimum similarity for an exhaustive-scan direct match
	DirectMatch          float64 `yaml:"direct_match"`            // confidence assigned to an exact metadata match
	ConditionConfidence  float64 `yaml:"condition_confidence"`    // fixed confidence for a successful Not
	RuleConfidence       float64 `yaml:"rule_confidence"`         // unused placeholder kept for rule-specific overrides
	ConclusionMatch      float64 `yaml:"conclusion_match"`        // similarity a query hole's best candidate must exceed to be bound
	TransitiveBase       float64 `yaml:"transitive_base"`         // base confidence for a one-hop transitive match
	TransitiveDecay      float64 `yaml:"transitive_decay"`        // per-hop multiplicative decay
	ConfidenceDecay      float64 `yaml:"confidence_decay"`        // per-level decay applied by And/rule chains
	ProofDirectAccept    float64 `yaml:"proof_direct_accept"`     // ProofEngine step 4 direct-match acceptance floor
	ProofWeakAccept      float64 `yaml:"proof_weak_accept"`       // ProofEngine step 7 last-resort floor
	AmbiguityMargin      float64 `yaml:"ambiguity_margin"`        // alternative-within-margin => ambiguous
	AmbiguityPenaltyStep float64 `yaml:"ambiguity_penalty_step"`  // multiplicative penalty per ambiguous binding
	HolePenaltyStep      float64 `yaml:"hole_penalty_step"`       // per-extra-hole confidence penalty
}

// DefaultThresholds returns the constants spec.md §4.5-§4.9 specify by
// default: DIRECT_MATCH=0.95, CONDITION_CONFIDENCE=0.9,
// TRANSITIVE_BASE=0.9, TRANSITIVE_DECAY=0.98, CONFIDENCE_DECAY=0.95,
// direct-match accept at 0.7, weak-accept at 0.55, ambiguity margin 0.1,
// hole penalty step 0.1.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		Similarity:           0.5,
		DirectMatch:          0.95,
		ConditionConfidence:  0.9,
		RuleConfidence:       0.9,
		ConclusionMatch:      0.5,
		TransitiveBase:       0.9,
		TransitiveDecay:      0.98,
		ConfidenceDecay:      0.95,
		ProofDirectAccept:    0.7,
		ProofWeakAccept:      0.55,
		AmbiguityMargin:      0.1,
		AmbiguityPenaltyStep: 0.9,
		HolePenaltyStep:      0.1,
	}
}
