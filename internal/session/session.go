// Package session implements Session (spec.md §4.10): the single
// constructed object a host owns, wiring a VectorSpace, Vocabulary,
// Permuter, Encoder, KB, QueryEngine, TransitiveReasoner, ProofEngine, and
// ComputePlugin registry together from one SessionConfig, and exposing the
// public add_fact/add_rule/query/prove/ask/snapshot/restore operations
// spec.md's Non-goals explicitly leave it to a host (not a surface DSL
// parser) to drive. Grounded on the teacher's root command construction in
// cmd/nerd/main.go, which builds exactly this kind of single top-level
// object from a loaded config before dispatching subcommands.
package session

import (
	"context"
	"fmt"

	"sys2/internal/ast"
	"sys2/internal/audit"
	"sys2/internal/compute"
	"sys2/internal/config"
	"sys2/internal/encode"
	"sys2/internal/kb"
	"sys2/internal/logging"
	"sys2/internal/permute"
	"sys2/internal/prove"
	"sys2/internal/query"
	"sys2/internal/transitive"
	"sys2/internal/vector"
	"sys2/internal/vocab"
)

// Session is the reasoning core's top-level entry point: one per
// independent "theory", owning its own vector space and knowledge base.
type Session struct {
	Config config.SessionConfig

	Space    *vector.Space
	Vocab    *vocab.Vocabulary
	Permuter *permute.Permuter
	Encoder  *encode.Encoder
	KB       *kb.KB

	QueryEngine *query.Engine
	Transitive  *transitive.Reasoner
	ProveEngine *prove.Engine
	Compute     *compute.Registry

	Audit audit.Sink

	snapshotter kb.Snapshotter
}

// New constructs a fully-wired Session from cfg. sink may be nil (defaults
// to audit.NopSink{}); plugins may be nil or empty.
//
// cfg.Logging builds and installs the process-wide zap logger every
// internal/logging.Get(category) call derives from (logging.Configure is
// process-global, not per-Session -- the last Session constructed, or the
// CLI's own boot, wins). A host embedding multiple Sessions that want
// distinct log configs must accept that only the most recently constructed
// one's cfg.Logging is in effect.
func New(cfg config.SessionConfig, sink audit.Sink, plugins ...compute.Plugin) (*Session, error) {
	strategy, err := cfg.VectorStrategy()
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	if sink == nil {
		sink = audit.NopSink{}
	}

	logger, err := logging.NewProduction(cfg.Logging.Debug)
	if err != nil {
		return nil, fmt.Errorf("session: build logger: %w", err)
	}
	logging.Configure(logger)

	space := vector.NewSpace(cfg.Dimension, strategy, cfg.TheorySeed)
	vocabulary := vocab.New(space)
	permuter := permute.New(cfg.Dimension, cfg.TheorySeed)
	encoder := encode.New(space, vocabulary, permuter, cfg.RecursionHorizon, nil, sink)
	concepts := kb.New(space, vocabulary, encoder)

	for _, rel := range cfg.TransitiveRelations {
		concepts.RegisterRelation(kb.RelationSlot{Name: rel, Transitive: true})
	}

	reasoner := transitive.New(concepts, cfg.TransitiveRelations, cfg.Thresholds.TransitiveBase, cfg.Thresholds.TransitiveDecay)
	queryEngine := query.New(concepts, vocabulary, permuter, cfg.Thresholds)
	proofEngine := prove.NewEngine(concepts, reasoner, cfg.Thresholds, cfg.CWA, cfg.ExpandConjunctiveConsequents, sink)

	registry := compute.NewRegistry()
	for _, p := range plugins {
		registry.Register(p)
	}

	vocabulary.SetNewAtomHook(func(name string) {
		sink.Notify(audit.Event{Timestamp: ast.Now(), Type: audit.EventUnknownAtom, Message: "atom registered on first use", Payload: map[string]string{"atom": name}})
	})

	s := &Session{
		Config:      cfg,
		Space:       space,
		Vocab:       vocabulary,
		Permuter:    permuter,
		Encoder:     encoder,
		KB:          concepts,
		QueryEngine: queryEngine,
		Transitive:  reasoner,
		ProveEngine: proofEngine,
		Compute:     registry,
		Audit:       sink,
		snapshotter: &kb.BlobSnapshotter{},
	}
	return s, nil
}

// SetSnapshotter overrides the default in-memory blob snapshotter -- e.g.
// with an *sqlitestore.Store for a queryable on-disk KB (SPEC_FULL.md
// §11.2). Callers construct the sqlitestore.Store themselves since it has
// its own lifecycle (Open/Close) the Session does not own.
func (s *Session) SetSnapshotter(snap kb.Snapshotter) { s.snapshotter = snap }

// AddFact implements add_fact: node must be ground.
func (s *Session) AddFact(node *ast.Node, confidence float64, provenance ast.Provenance) (string, error) {
	return s.KB.AddFact(node, confidence, provenance)
}

// AddRule implements add_rule. extraConsequents, when given, makes the
// rule's consequent conjunctive (spec.md §9): each one becomes separately
// provable via this rule and the same bindings once the session's
// ExpandConjunctiveConsequents option is enabled.
func (s *Session) AddRule(conclusion *ast.Node, condition *ast.Condition, extraConsequents ...*ast.Node) (string, error) {
	return s.KB.AddRule(conclusion, condition, extraConsequents...)
}

// QueryResult is what Query returns: either a computed answer (when the
// goal's relation has a registered ComputePlugin) or a holographic query
// result.
type QueryResult struct {
	Query   query.Result
	Compute *compute.Result
}

// Query implements the query operation (spec.md §4.4): relations with a
// registered ComputePlugin short-circuit to it (spec.md §6) instead of
// searching the KB; everything else goes through the holographic query
// engine.
func (s *Session) Query(node *ast.Node) QueryResult {
	if node.IsGround() && s.Compute.Computable(node.Relation) {
		result, err := s.Compute.Evaluate(node.Relation, node.Subject, node.Object)
		if err != nil {
			s.Audit.Notify(audit.Event{Timestamp: ast.Now(), Type: audit.EventPluginError, Message: err.Error(), Payload: map[string]string{"relation": node.Relation}})
		}
		return QueryResult{Compute: &result}
	}
	return QueryResult{Query: s.QueryEngine.Execute(node)}
}

// QueryMany implements concurrent read-only query fan-out (SPEC_FULL.md
// §11.5) over golang.org/x/sync/errgroup.
func (s *Session) QueryMany(ctx context.Context, nodes []*ast.Node) ([]query.Result, error) {
	return s.QueryEngine.ExecuteMany(ctx, nodes)
}

// ProveResult is an alias kept local so callers need only import
// internal/session for the common case.
type ProveResult = prove.ProveResult

// Prove implements the prove operation (spec.md §4.9): relations with a
// registered ComputePlugin short-circuit to it, folding its truth value
// into a ProveResult the same shape backward chaining would have produced.
func (s *Session) Prove(goal *ast.Node, opts prove.Options) ProveResult {
	if goal.IsGround() && s.Compute.Computable(goal.Relation) {
		result, err := s.Compute.Evaluate(goal.Relation, goal.Subject, goal.Object)
		if err != nil {
			s.Audit.Notify(audit.Event{Timestamp: ast.Now(), Type: audit.EventPluginError, Message: err.Error(), Payload: map[string]string{"relation": goal.Relation}})
			return ProveResult{Valid: false, Reason: "PluginError"}
		}
		valid := result.Truth == compute.TrueCertain || result.Truth == compute.TrueLikely
		return ProveResult{
			Valid:      valid,
			Confidence: result.Confidence,
			Proof:      &prove.ProofTree{Goal: goal, Method: "Computed", Confidence: result.Confidence},
		}
	}
	return s.ProveEngine.Prove(goal, opts)
}

// Truth is the tri-valued classification ask() collapses a Prove/Query
// result into (spec.md §6/§8: `ask(triple) -> {truth, confidence, trace}`).
type Truth int

const (
	TruthUnknown Truth = iota
	TruthTrue
	TruthFalse
)

func (t Truth) String() string {
	switch t {
	case TruthTrue:
		return "True"
	case TruthFalse:
		return "False"
	default:
		return "Unknown"
	}
}

// AskResult is the synthesized convenience result ask() returns: a
// classification over the same Prove/Query machinery Session already
// exposes, not a separate reasoning path. Trace is empty when the goal
// contained holes, since QueryEngine does not build a step trace the way
// ProofEngine does.
type AskResult struct {
	Truth      Truth
	Confidence float64
	Trace      []prove.Step
}

// Ask implements the ask operation (spec.md §4.10's third public surface):
// it tries Prove first (since a provable goal is strictly stronger
// evidence than a similarity match), falling back to Query when the goal
// contains holes Prove cannot handle, then classifies the result into one
// of {True, False, Unknown}.
func (s *Session) Ask(node *ast.Node, opts prove.Options) AskResult {
	if node.IsGround() {
		return s.classifyProve(s.Prove(node, opts))
	}
	return s.classifyQuery(s.Query(node))
}

// classifyProve maps a ground-goal ProveResult to True/False/Unknown. A
// successful proof is always True. A failed proof is False only when the
// session runs under the closed-world assumption and the failure was an
// exhaustive "Failed" (not a resource limit like Timeout/DepthExceeded/
// CycleDetected, which leave the goal's truth genuinely undetermined).
func (s *Session) classifyProve(result ProveResult) AskResult {
	if result.Valid {
		return AskResult{Truth: TruthTrue, Confidence: result.Confidence, Trace: result.Steps}
	}
	truth := TruthUnknown
	if s.Config.CWA && result.Reason == "Failed" {
		truth = TruthFalse
	}
	return AskResult{Truth: truth, Trace: result.Steps}
}

// classifyQuery maps a holed-goal QueryResult to True/False/Unknown: a
// ComputePlugin's own truth band if one fired, else whether the
// holographic query resolved any binding above threshold.
func (s *Session) classifyQuery(result QueryResult) AskResult {
	if result.Compute != nil {
		switch result.Compute.Truth {
		case compute.TrueCertain, compute.TrueLikely:
			return AskResult{Truth: TruthTrue, Confidence: result.Compute.Confidence}
		case compute.FalseLikely, compute.FalseValue:
			return AskResult{Truth: TruthFalse, Confidence: result.Compute.Confidence}
		default:
			return AskResult{Truth: TruthUnknown, Confidence: result.Compute.Confidence}
		}
	}
	if result.Query.Success {
		return AskResult{Truth: TruthTrue, Confidence: result.Query.Confidence}
	}
	return AskResult{Truth: TruthUnknown}
}

// Snapshot persists the KB's current state via the configured Snapshotter.
func (s *Session) Snapshot() error {
	return s.snapshotter.Save(s.KB)
}

// Restore replaces the KB's state with whatever the configured Snapshotter
// last saved.
func (s *Session) Restore() error {
	return s.snapshotter.Load(s.KB)
}

// Stats reports the KB's running counters (scans, rule attempts,
// transitive steps), printed by the CLI's status subcommand.
func (s *Session) Stats() kb.Stats {
	return s.KB.StatsSnapshot()
}
