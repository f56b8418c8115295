// Package logging provides categorized structured logging for the
// reasoning core, built on go.uber.org/zap. It generalizes the teacher's
// hand-rolled per-category file logger (internal/logging/logger.go in
// codeNERD) onto zap, which the teacher already uses at its CLI layer
// (cmd/nerd/main.go) -- every package here needs leveled, structured,
// low-overhead logging, and zap is the only structured logging library in
// the retrieval pack.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category scopes a logger to one subsystem, mirroring the teacher's
// Category taxonomy (internal/logging.Category) but narrowed to the
// reasoning core's own components.
type Category string

const (
	CategoryVector     Category = "vector"
	CategoryPermute    Category = "permute"
	CategoryVocab      Category = "vocab"
	CategoryEncoder    Category = "encoder"
	CategoryKB         Category = "kb"
	CategoryQuery      Category = "query"
	CategoryMatch      Category = "match"
	CategoryTransitive Category = "transitive"
	CategoryProve      Category = "prove"
	CategorySession    Category = "session"
	CategoryCompute    Category = "compute"
)

var (
	baseMu sync.RWMutex
	base   = zap.NewNop()
	cached = make(map[Category]*zap.Logger)
)

// Configure installs the base zap logger every category logger derives
// from via With(zap.String("category", ...)). Call once per process (or
// per session, for isolated test logging); passing nil resets to a no-op
// logger.
func Configure(logger *zap.Logger) {
	baseMu.Lock()
	defer baseMu.Unlock()
	if logger == nil {
		logger = zap.NewNop()
	}
	base = logger
	cached = make(map[Category]*zap.Logger)
}

// NewProduction builds a production zap config (JSON, info level) -- the
// same default the teacher's CLI root command uses in PersistentPreRunE.
func NewProduction(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// Get returns the zap logger scoped to category, building and caching it
// on first use.
func Get(category Category) *zap.Logger {
	baseMu.RLock()
	if l, ok := cached[category]; ok {
		baseMu.RUnlock()
		return l
	}
	baseMu.RUnlock()

	baseMu.Lock()
	defer baseMu.Unlock()
	if l, ok := cached[category]; ok {
		return l
	}
	l := base.With(zap.String("category", string(category)))
	cached[category] = l
	return l
}

// Sync flushes the base logger. Safe to call even when Configure was never
// called (syncing a no-op logger is itself a no-op).
func Sync() {
	baseMu.RLock()
	defer baseMu.RUnlock()
	_ = base.Sync()
}
