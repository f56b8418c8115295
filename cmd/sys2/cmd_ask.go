package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [subject] [relation] [object]",
	Short: "Classify a triple as True, False, or Unknown",
	Long: `Ask tries to prove a ground triple via backward chaining, falling
back to a similarity query when the triple contains holes ('?x'), then
classifies the result as True, False, or Unknown with a confidence and
a proof trace (empty when the query path was used).`,
	Args: cobra.ExactArgs(3),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	node := parseNode(args[0], args[1], args[2])
	result := session.Ask(node, proveOptions())

	fmt.Printf("truth=%s confidence=%.2f\n", result.Truth, result.Confidence)
	for _, step := range result.Trace {
		fmt.Printf("  %s: %s -> %s\n", step.Op, step.Goal, step.Outcome)
	}
	return nil
}
