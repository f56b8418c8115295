package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sys2/internal/ast"
	"sys2/internal/logging"
)

// factSpec/ruleSpec are the CLI's flat JSON input shapes -- plain strings
// rather than the ast package's Term/Condition trees, so a host can hand-
// write a load file without knowing the internal AST representation.
type factSpec struct {
	Subject    string  `json:"subject"`
	Relation   string  `json:"relation"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Note       string  `json:"note"`
}

type atomSpec struct {
	Subject  string `json:"subject"`
	Relation string `json:"relation"`
	Object   string `json:"object"`
}

type conditionSpec struct {
	Atom *atomSpec        `json:"atom,omitempty"`
	And  []*conditionSpec `json:"and,omitempty"`
	Or   []*conditionSpec `json:"or,omitempty"`
	Not  *conditionSpec   `json:"not,omitempty"`
}

type ruleSpec struct {
	Conclusion  atomSpec      `json:"conclusion"`
	Consequents []atomSpec    `json:"consequents,omitempty"`
	Condition   conditionSpec `json:"condition"`
}

type loadFile struct {
	Facts []factSpec `json:"facts"`
	Rules []ruleSpec `json:"rules"`
}

func (c *conditionSpec) toCondition() (*ast.Condition, error) {
	switch {
	case c.Atom != nil:
		return ast.CAtom(parseNode(c.Atom.Subject, c.Atom.Relation, c.Atom.Object)), nil
	case len(c.And) > 0:
		parts := make([]*ast.Condition, len(c.And))
		for i, p := range c.And {
			cond, err := p.toCondition()
			if err != nil {
				return nil, err
			}
			parts[i] = cond
		}
		return ast.CAnd(parts...), nil
	case len(c.Or) > 0:
		parts := make([]*ast.Condition, len(c.Or))
		for i, p := range c.Or {
			cond, err := p.toCondition()
			if err != nil {
				return nil, err
			}
			parts[i] = cond
		}
		return ast.COr(parts...), nil
	case c.Not != nil:
		inner, err := c.Not.toCondition()
		if err != nil {
			return nil, err
		}
		return ast.CNot(inner), nil
	default:
		return nil, fmt.Errorf("condition has no atom/and/or/not")
	}
}

var loadCmd = &cobra.Command{
	Use:   "load [file.json]",
	Short: "Load facts and rules from a JSON file into the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	var lf loadFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	for _, f := range lf.Facts {
		node := parseNode(f.Subject, f.Relation, f.Object)
		confidence := f.Confidence
		if confidence == 0 {
			confidence = 1.0
		}
		id, err := session.AddFact(node, confidence, sys2Provenance(f))
		if err != nil {
			return fmt.Errorf("add fact %s %s %s: %w", f.Subject, f.Relation, f.Object, err)
		}
		logging.Get(logging.CategorySession).Debug("loaded fact", zap.String("id", id))
	}

	for _, r := range lf.Rules {
		condition, err := r.Condition.toCondition()
		if err != nil {
			return fmt.Errorf("rule conclusion %s %s %s: %w", r.Conclusion.Subject, r.Conclusion.Relation, r.Conclusion.Object, err)
		}
		conclusion := parseNode(r.Conclusion.Subject, r.Conclusion.Relation, r.Conclusion.Object)
		extraConsequents := make([]*ast.Node, len(r.Consequents))
		for i, c := range r.Consequents {
			extraConsequents[i] = parseNode(c.Subject, c.Relation, c.Object)
		}
		id, err := session.AddRule(conclusion, condition, extraConsequents...)
		if err != nil {
			return fmt.Errorf("add rule: %w", err)
		}
		logging.Get(logging.CategorySession).Debug("loaded rule", zap.String("id", id))
	}

	fmt.Printf("Loaded %d facts and %d rules.\n", len(lf.Facts), len(lf.Rules))
	return nil
}

func sys2Provenance(f factSpec) ast.Provenance {
	return ast.Provenance{Source: f.Source, Note: f.Note}
}
