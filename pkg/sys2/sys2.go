// Package sys2 is the public embedding surface for the reasoning core: a
// thin re-export of internal/session so a host program can import one
// package instead of reaching into internal/. Grounded on the teacher's
// pkg/mangle/mangle.go shim, which serves the same purpose for
// internal/mangle -- re-export types and constructors, add no logic of its
// own. Unlike that shim, this package only re-exports what sys2's own
// go.mod stack actually supports; it does not chase the teacher's wider
// mangle submodule surface (go/schema, go/semantics, interpreter, ...),
// since nothing in SPEC_FULL.md wires those in.
package sys2

import (
	"sys2/internal/ast"
	"sys2/internal/audit"
	"sys2/internal/compute"
	"sys2/internal/config"
	"sys2/internal/kb"
	"sys2/internal/prove"
	"sys2/internal/query"
	"sys2/internal/session"
)

// Session is the single top-level object a host constructs and owns.
type Session = session.Session

// New constructs a fully wired Session from cfg, optionally registering
// ComputePlugins (spec.md §6). sink may be nil.
func New(cfg config.SessionConfig, sink audit.Sink, plugins ...compute.Plugin) (*Session, error) {
	return session.New(cfg, sink, plugins...)
}

// Config types, re-exported so a host never needs to import internal/config
// directly.
type (
	SessionConfig   = config.SessionConfig
	ThresholdConfig = config.ThresholdConfig
	LoggingConfig   = config.LoggingConfig
)

// DefaultConfig returns the reasoning core's default tuning (spec.md's
// Testable Properties assume these values unless a host overrides them).
func DefaultConfig() SessionConfig { return config.DefaultConfig() }

// DefaultThresholds returns the default truth-band and acceptance
// thresholds in isolation, for hosts that want to tweak only a few fields.
func DefaultThresholds() ThresholdConfig { return config.DefaultThresholds() }

// LoadConfig reads a YAML SessionConfig from path, starting from
// DefaultConfig and overlaying whatever the file sets.
func LoadConfig(path string) (SessionConfig, error) { return config.LoadFile(path) }

// AST construction types a host needs to build facts, rules, and query
// goals without reaching into internal/ast.
type (
	Node      = ast.Node
	Term      = ast.Term
	Condition = ast.Condition
	Fact      = ast.Fact
	Rule      = ast.Rule
	Provenance = ast.Provenance
)

// NewNode, Atom, and Hole construct the terms a Query/Prove/Ask/AddFact
// call needs.
func NewNode(subject, relation, object string) *Node { return ast.NewNode(subject, relation, object) }
func Atom(name string) Term                          { return ast.Atom(name) }
func Hole(name string) Term                          { return ast.Hole(name) }

// Condition combinators for AddRule bodies.
func CAtom(n *Node) *Condition              { return ast.CAtom(n) }
func CAnd(parts ...*Condition) *Condition   { return ast.CAnd(parts...) }
func COr(parts ...*Condition) *Condition    { return ast.COr(parts...) }
func CNot(inner *Condition) *Condition      { return ast.CNot(inner) }

// Result types returned by Session's operations.
type (
	QueryResult = session.QueryResult
	ProveResult = session.ProveResult
	ProveOptions = prove.Options
	QueryEngineResult = query.Result
	AskResult    = session.AskResult
	AskTruth     = session.Truth
)

// Ask's tri-valued classification (spec.md §6: `ask(triple) ->
// {truth, confidence, trace}`), named Ask* to avoid colliding with the
// compute package's own finite truth-value scale re-exported below.
const (
	AskTrue    = session.TruthTrue
	AskFalse   = session.TruthFalse
	AskUnknown = session.TruthUnknown
)

// ComputePlugin types, re-exported for hosts that register domain-specific
// plugins (spec.md §6).
type (
	ComputePlugin = compute.Plugin
	ComputeResult = compute.Result
	TruthValue    = compute.TruthValue
)

// Truth-value constants on the finite scale spec.md §6 defines.
const (
	TrueCertain = compute.TrueCertain
	TrueLikely  = compute.TrueLikely
	Unknown     = compute.Unknown
	FalseLikely = compute.FalseLikely
	FalseValue  = compute.FalseValue
)

// Audit sink types for hosts that want to observe unknown atoms, cycle
// detection, plugin errors, and similar events (spec.md §7).
type (
	AuditSink  = audit.Sink
	AuditEvent = audit.Event
)

// NopAudit discards every audit event -- the default a Session uses when
// constructed with a nil sink.
func NopAudit() AuditSink { return audit.NopSink{} }

// NewAuditRecorder returns an in-memory Sink that retains every event, for
// hosts that want to inspect the audit trail after a batch of operations.
func NewAuditRecorder() *audit.Recorder { return audit.NewRecorder() }

// Snapshotter is the persistence contract Session.Snapshot/Restore use; a
// host may supply its own (e.g. internal/kb/sqlitestore.Store) via
// SetSnapshotter.
type Snapshotter = kb.Snapshotter
