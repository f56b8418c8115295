package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [subject] [relation] [object]",
	Short: "Answer a similarity query against the knowledge base",
	Long: `Answers a (subject, relation, object) query. Prefix a slot with '?'
to mark it as a hole to be resolved (up to three holes per query).

Examples:
  sys2 query Socrates isA Human
  sys2 query Socrates isA ?x
  sys2 query Socrates greaterThan 3`,
	Args: cobra.ExactArgs(3),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	node := parseNode(args[0], args[1], args[2])
	result := session.Query(node)

	if result.Compute != nil {
		fmt.Printf("computed: truth=%d confidence=%.2f method=%s\n", result.Compute.Truth, result.Compute.Confidence, result.Compute.Method)
		return nil
	}

	if !result.Query.Success {
		fmt.Printf("no answer: %s\n", result.Query.Reason)
		return nil
	}

	if len(result.Query.Bindings) == 0 {
		fmt.Printf("true (confidence=%.2f)\n", result.Query.Confidence)
		return nil
	}

	for hole, answer := range result.Query.Bindings {
		ambiguous := ""
		if result.Query.Ambiguous {
			ambiguous = " (ambiguous)"
		}
		fmt.Printf("?%s = %s (similarity=%.3f)%s\n", hole, answer.Answer, answer.Similarity, ambiguous)
	}
	fmt.Printf("confidence=%.2f\n", result.Query.Confidence)
	return nil
}
