// Package qengine defines the elaborated query algebra (§3 "Query tree"),
// the partial-result ProtoJson tree (§4.B), and the Interpreter/Mapping
// contracts a backend implements (§6). These three live together because
// Component and Staged both need to refer to an owning Interpreter, and
// splitting them across packages would create an import cycle with the
// evaluator in package engine, which only ever reads these types.
package qengine

import (
	"context"

	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/predicate"
	"github.com/hanpama/mosaicql/internal/problem"
)

// Query is the elaborated, pre-validated query tree the evaluator walks. It
// is produced by an elaborator (§4.F) from parsed request text; the core
// evaluator treats it as an opaque algebraic value.
type Query interface {
	isQuery()
}

// Select is a field selection, typically wrapped in PossiblyRenamedSelect
// when the result name differs from FieldName (a GraphQL alias).
type Select struct {
	FieldName string
	Args      map[string]any
	Child     Query
}

// PossiblyRenamedSelect rewrites the result key under which Inner's value is
// emitted; ResultName equals the underlying field name when there was no
// alias.
type PossiblyRenamedSelect struct {
	Inner      Query
	ResultName string
}

// Rename rewrites the result key of Inner to ResultName, independent of any
// field selection machinery (used for Wrap/Count rewriting rules in §4.C).
type Rename struct {
	ResultName string
	Inner      Query
}

// Wrap emits {FieldName: <result of Child>}.
type Wrap struct {
	FieldName string
	Child     Query
}

// Group concatenates sibling selections.
type Group struct {
	Children []Query
}

// Unique asserts at most one element in the list Child resolves to, then
// evaluates that element (or null/error per cardinality, §4.C rule 8).
type Unique struct {
	Child Query
}

// Narrow asserts the cursor's concrete type is ConcreteType before
// evaluating Child against it (polymorphic narrowing).
type Narrow struct {
	ConcreteType string
	Child        Query
}

// Introspect delegates Child to the schema's built-in introspection
// handling (typename resolution, __schema/__type queries).
type Introspect struct {
	Schema *gqltype.Schema
	Child  Query
}

// Environment pushes Env onto the cursor's environment before evaluating
// Child, making bindings visible to predicate evaluation.
type Environment struct {
	Env   cursor.Env
	Child Query
}

// Count evaluates the cardinality of Child's underlying field (a Select)
// and emits it under ResultName as an integer.
type Count struct {
	ResultName string
	Child      Query // expected to be a Select
}

// OrderTerm is one ORDER BY key: Term ascending unless Desc.
type OrderTerm struct {
	Term predicate.Term
	Desc bool
}

// FilterOrderByOffsetLimit wraps a list query with filter/order/paging.
// Pred, OrderBy, Offset and Limit are each optional (nil/zero-length means
// absent; both offset and limit absent is the identity transform).
type FilterOrderByOffsetLimit struct {
	Pred    predicate.Predicate // nil if absent
	OrderBy []OrderTerm         // nil if absent
	Offset  *int
	Limit   *int
	Child   Query
}

// JoinFunc rewrites a child query against a parent cursor before delegating
// it to another interpreter (Component) or to the same interpreter's next
// stage (Defer). It may return a Group of independently-rooted
// continuations, handled per §4.C rule 6.
type JoinFunc func(c cursor.Cursor, child Query) problem.Result[Query]

// Component delegates Child to another interpreter, using Join to rewrite
// (or split) the child query against the current cursor first.
type Component struct {
	Interpreter Interpreter
	Join        JoinFunc
	Child       Query
}

// Defer delegates Child to the *same* interpreter's next stage.
type Defer struct {
	Join     JoinFunc
	Child    Query
	RootType *gqltype.TypeRef
}

// Empty is a no-op query node.
type Empty struct{}

func (Select) isQuery()                {}
func (PossiblyRenamedSelect) isQuery() {}
func (Rename) isQuery()                {}
func (Wrap) isQuery()                  {}
func (Group) isQuery()                 {}
func (Unique) isQuery()                {}
func (Narrow) isQuery()                {}
func (Introspect) isQuery()            {}
func (Environment) isQuery()           {}
func (Count) isQuery()                 {}
func (FilterOrderByOffsetLimit) isQuery() {}
func (Component) isQuery()             {}
func (Defer) isQuery()                 {}
func (Empty) isQuery()                 {}

// RootName returns the identifiable root field name of a query, used when
// a Component join produces a Group of continuations (§4.C rule 6, §9 open
// question) or when validating a Defer/Component join's result shape.
// It returns ("", false) for shapes with no identifiable root.
func RootName(q Query) (string, bool) {
	switch n := q.(type) {
	case PossiblyRenamedSelect:
		return n.ResultName, true
	case Select:
		return n.FieldName, true
	case Wrap:
		return n.FieldName, true
	case Rename:
		return n.ResultName, true
	case Environment:
		return RootName(n.Child)
	default:
		return "", false
	}
}

// RootRequest is one element of a batched RunRootValues call: a query to
// evaluate at the interpreter's root, the GraphQL type expected there, and
// the environment bindings carried from the staging site.
type RootRequest struct {
	Query    Query
	RootType *gqltype.TypeRef
	Env      cursor.Env
}

// Interpreter is the per-backend evaluator an Interpreter exposes to the
// completion engine (§6). A Mapping (below) owns exactly one Interpreter.
type Interpreter interface {
	// RunRootValue evaluates a single root query, producing a (possibly
	// still-deferred) ProtoJson.
	RunRootValue(ctx context.Context, q Query, rootTpe *gqltype.TypeRef, env cursor.Env) problem.Result[ProtoJson]

	// RunRootValues is the batched entry point the completion engine calls;
	// results are aligned positionally to reqs. The default behavior (most
	// interpreters) is to call RunRootValue once per request; interpreters
	// backed by a store that can coalesce lookups may override this to issue
	// one physical query for the whole batch.
	RunRootValues(ctx context.Context, reqs []RootRequest) ([]problem.Problem, []ProtoJson)
}

// RootCursorResult is returned by Mapping.RootCursor: the query continuation
// to evaluate (which may differ from the requested child, e.g. a mutation
// field elaborates its projection lazily) and the cursor to evaluate it
// against.
type RootCursorResult struct {
	Query  Query
	Cursor cursor.Cursor
}

// Mapping is a backend adapter: it resolves root fields to cursors and owns
// the Interpreter that subsequently walks queries against those cursors.
type Mapping interface {
	Interpreter() Interpreter
	RootCursor(ctx context.Context, fieldName string, alias string, args map[string]any, child Query, env cursor.Env) problem.Result[RootCursorResult]
}
