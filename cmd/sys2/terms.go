package main

import (
	"strings"

	"sys2/internal/ast"
)

// parseTerm interprets the CLI's flat string convention for a subject/object
// slot: a leading '?' marks a hole ("?x" -> ast.Hole("x")), anything else is
// a plain atom name.
func parseTerm(raw string) ast.Term {
	if strings.HasPrefix(raw, "?") {
		return ast.Hole(strings.TrimPrefix(raw, "?"))
	}
	return ast.Atom(raw)
}

// parseNode builds a Node from three CLI positional arguments.
func parseNode(subject, relation, object string) *ast.Node {
	return &ast.Node{Subject: parseTerm(subject), Relation: relation, Object: parseTerm(object)}
}

// termString renders a Term back into the CLI's flat convention, for
// printing query bindings and proof goals.
func termString(t ast.Term) string {
	switch t.Kind {
	case ast.TermHole:
		return "?" + t.Name
	case ast.TermNode:
		if t.Node == nil {
			return "<nested:nil>"
		}
		return "(" + termString(t.Node.Subject) + " " + t.Node.Relation + " " + termString(t.Node.Object) + ")"
	default:
		return t.Name
	}
}
