package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sys2/internal/prove"
	"sys2/pkg/sys2"
)

var (
	maxDepth  int
	timeoutMs int
)

var proveCmd = &cobra.Command{
	Use:   "prove [subject] [relation] [object]",
	Short: "Backward-chain a proof for a ground (subject, relation, object) goal",
	Args:  cobra.ExactArgs(3),
	RunE:  runProve,
}

func init() {
	proveCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Override the proof engine's max recursion depth")
	proveCmd.Flags().IntVar(&timeoutMs, "timeout-ms", 0, "Override the proof engine's timeout in milliseconds")
}

func proveOptions() prove.Options {
	return prove.Options{MaxDepth: maxDepth, TimeoutMs: timeoutMs}
}

func runProve(cmd *cobra.Command, args []string) error {
	goal := parseNode(args[0], args[1], args[2])
	result := session.Prove(goal, proveOptions())
	printProveResult(result)
	return nil
}

func printProveResult(result sys2.ProveResult) {
	if !result.Valid {
		fmt.Printf("not proved: %s\n", result.Reason)
		return
	}
	fmt.Printf("proved (confidence=%.2f)\n", result.Confidence)
	printProofTree(result.Proof, 0)
}

func printProofTree(tree *prove.ProofTree, depth int) {
	if tree == nil {
		return
	}
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	fmt.Printf("%s%s %s %s [%s, confidence=%.2f]\n", indent,
		termString(tree.Goal.Subject), tree.Goal.Relation, termString(tree.Goal.Object),
		tree.Method, tree.Confidence)
	for _, premise := range tree.Premises {
		printProofTree(premise, depth+1)
	}
}
