// Command sys2 is a CLI harness around the reasoning core's public Session
// surface: load facts/rules from a JSON file, then query, prove, or ask
// goals against the persisted knowledge base. Grounded on the teacher's
// cmd/nerd root command (PersistentPreRunE session boot, PersistentPostRun
// Sync/CloseAll, --workspace/--verbose persistent flags) and cmd_query.go's
// query/status subcommand shape, adapted from Mangle predicate queries to
// this core's (subject, relation, object) triples. --verbose forces debug
// logging by overriding SessionConfig.Logging.Debug; sys2.New is the one
// place the process-wide zap logger actually gets built and installed.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sys2/internal/logging"
	"sys2/pkg/sys2"
)

var (
	verbose    bool
	workspace  string
	configPath string

	session *sys2.Session
)

var rootCmd = &cobra.Command{
	Use:   "sys2",
	Short: "Hyperdimensional symbolic-vector hybrid reasoning engine",
	Long: `sys2 loads facts and rules into a holographic knowledge base and
answers queries and proof goals against it.

Reasoning is vector-native: facts are encoded as high-dimensional holographic
vectors, queries are answered by similarity search, and proofs are built by
backward chaining with transitive closure and pluggable computed relations.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		return bootSession(ws)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if session != nil {
			if err := session.Snapshot(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: snapshot failed: %v\n", err)
			}
		}
		logging.Sync()
	},
}

// bootSession loads the session's configuration and constructs it.
// --verbose always forces debug logging, overriding whatever cfg.Logging
// a --config file set; sys2.New is the sole place that turns cfg.Logging
// into the process-wide zap logger (see internal/session.New's doc).
func bootSession(workspaceDir string) error {
	cfg := sys2.DefaultConfig()
	if configPath != "" {
		loaded, err := sys2.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if verbose {
		cfg.Logging.Debug = true
	}

	sink := sys2.NewAuditRecorder()
	s, err := sys2.New(cfg, sink, newComputePlugins()...)
	if err != nil {
		return fmt.Errorf("boot session: %w", err)
	}

	dbPath := filepath.Join(workspaceDir, "sys2.db")
	snap, err := openSnapshotter(dbPath)
	if err != nil {
		return fmt.Errorf("open snapshot store %s: %w", dbPath, err)
	}
	s.SetSnapshotter(snap)
	if err := s.Restore(); err != nil {
		logging.Get(logging.CategorySession).Debug("no prior snapshot to restore", zap.Error(err))
	}

	session = s
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory holding sys2.db (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML SessionConfig overriding the defaults")

	rootCmd.AddCommand(loadCmd, queryCmd, proveCmd, askCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
