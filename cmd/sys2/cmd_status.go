package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge base size and running counters",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	stats := session.Stats()
	fmt.Printf("facts:            %d\n", session.KB.FactCount())
	fmt.Printf("rules:            %d\n", len(session.KB.Rules()))
	fmt.Printf("kb scans:         %d\n", stats.KBScans)
	fmt.Printf("rule attempts:    %d\n", stats.RuleAttempts)
	fmt.Printf("transitive steps: %d\n", stats.TransitiveSteps)
	return nil
}
