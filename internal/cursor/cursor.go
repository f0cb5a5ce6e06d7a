// Package cursor defines the navigator contract the evaluator walks: an
// opaque, immutable view over a backend's data, typed at the GraphQL type it
// currently stands for (§3 "Cursor").
package cursor

import (
	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/problem"
)

// Json is a JSON-safe Go value: nil, bool, float64/int64, string,
// []any, or map[string]any.
type Json = any

// Cursor is implemented once per backend (Mapping). The core evaluator never
// constructs one directly; it only calls through this interface.
type Cursor interface {
	// Type is the GraphQL type this cursor currently stands for.
	Type() *gqltype.TypeRef

	IsLeaf() bool
	IsNullable() bool
	IsList() bool

	// AsLeaf returns the scalar/enum value at this cursor, pre-serialization.
	AsLeaf() problem.Result[Json]

	// AsNullable returns the inner cursor if non-null, or (nil, false) if
	// this position holds null.
	AsNullable() problem.Result[Option]

	// AsList returns the element cursors of a list position.
	AsList() problem.Result[[]Cursor]

	// Field navigates to a named field of an object-shaped cursor. alias, if
	// non-empty, is passed through for backends that key internal caches by
	// result name rather than field name.
	Field(name string, alias string) problem.Result[Cursor]

	// NarrowsTo reports whether this cursor's concrete runtime type is (or
	// implements/belongs to) the named type.
	NarrowsTo(typeName string) bool

	// Narrow asserts NarrowsTo(typeName) and returns a cursor retyped to it.
	Narrow(typeName string) problem.Result[Cursor]

	// ListPath/FlatListPath navigate a dotted field path for predicate
	// evaluation. ListPath expects exactly one terminal cursor per path
	// element encountered and returns an error otherwise at each step;
	// FlatListPath flattens through any list-typed path segment.
	ListPath(path []string) problem.Result[[]Cursor]
	FlatListPath(path []string) problem.Result[[]Cursor]

	// WithEnv returns a cursor whose environment is env, visible to
	// predicate evaluation via FullEnv. The cursor's previous environment is
	// replaced, not merged with env.
	WithEnv(env Env) Cursor
	FullEnv() Env

	// Preunique narrows a pre-list cursor before it is iterated by a Unique
	// query node; most cursors return themselves unchanged.
	Preunique() problem.Result[Cursor]
}

// Option is the result of AsNullable: a present inner cursor, or an absent
// (null) position.
type Option struct {
	Cursor Cursor
	Ok     bool
}

func Some(c Cursor) Option { return Option{Cursor: c, Ok: true} }
func None() Option         { return Option{} }

// Env is an append-only, immutable set of name→value bindings visible to
// predicate evaluation, pushed by Query.Environment nodes.
type Env struct {
	parent   *Env
	bindings map[string]any
}

// EmptyEnv is the environment with no bindings.
var EmptyEnv = Env{}

// Push returns a new Env with bindings layered on top of e; lookups favor
// the newest layer.
func (e Env) Push(bindings map[string]any) Env {
	if len(bindings) == 0 {
		return e
	}
	parent := e
	return Env{parent: &parent, bindings: bindings}
}

// Lookup resolves name through the environment chain, newest first.
func (e Env) Lookup(name string) (any, bool) {
	for cur := &e; cur != nil; cur = cur.parent {
		if cur.bindings != nil {
			if v, ok := cur.bindings[name]; ok {
				return v, true
			}
		}
	}
	return nil, false
}
