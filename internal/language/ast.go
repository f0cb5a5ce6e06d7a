package language

import "github.com/vektah/gqlparser/v2/ast"

type (
	QueryDocument      = ast.QueryDocument
	OperationDefinition = ast.OperationDefinition
	SelectionSet       = ast.SelectionSet
	Selection          = ast.Selection
	Field              = ast.Field
	InlineFragment     = ast.InlineFragment
	FragmentDefinition = ast.FragmentDefinition
	FragmentSpread     = ast.FragmentSpread
	ArgumentList       = ast.ArgumentList
	Argument           = ast.Argument
	Value              = ast.Value
)

type Operation = ast.Operation

const (
	Query        Operation = ast.Query
	Mutation     Operation = ast.Mutation
	Subscription Operation = ast.Subscription
)
