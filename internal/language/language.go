// Package language wraps the third-party GraphQL request grammar
// (vektah/gqlparser/v2) behind a narrow surface, so the elaborator and the
// server depend on one parsing entrypoint instead of the grammar package
// directly.
package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses GraphQL request text into a document. It performs no
// schema validation.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
