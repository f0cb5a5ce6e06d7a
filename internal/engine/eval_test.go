package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/problem"
	"github.com/hanpama/mosaicql/internal/qengine"
)

// fakeSchema mirrors the shape citystore/countrystore build for their own
// tests: a Query root plus a single leaf-bearing object type, enough to
// exercise RunValue/RunFields/RunList without a real backend.
func fakeSchema() *gqltype.Schema {
	return &gqltype.Schema{
		QueryType: "Query",
		TypeOrder: []string{"Query", "Widget", "String"},
		Types: map[string]*gqltype.Type{
			"Query":  {Name: "Query", Kind: gqltype.TypeKindObject},
			"Widget": {Name: "Widget", Kind: gqltype.TypeKindObject, Fields: []*gqltype.Field{
				{Name: "label", Type: gqltype.NonNull(gqltype.Named("String"))},
			}},
			"String": {Name: "String", Kind: gqltype.TypeKindScalar},
		},
	}
}

// leafCursor is a scalar cursor, the evaluator's terminal case.
type leafCursor struct {
	value any
	tpe   *gqltype.TypeRef
	env   cursor.Env
}

func (l leafCursor) Type() *gqltype.TypeRef                    { return l.tpe }
func (l leafCursor) IsLeaf() bool                               { return true }
func (l leafCursor) IsNullable() bool                           { return l.tpe.IsNullable() }
func (l leafCursor) IsList() bool                               { return false }
func (l leafCursor) AsLeaf() problem.Result[cursor.Json]        { return problem.Pure[cursor.Json](l.value) }
func (l leafCursor) AsList() problem.Result[[]cursor.Cursor] {
	return problem.Failf[[]cursor.Cursor]("scalar is not a list")
}
func (l leafCursor) AsNullable() problem.Result[cursor.Option] {
	if l.value == nil {
		return problem.Pure(cursor.None())
	}
	return problem.Pure(cursor.Some(cursor.Cursor(leafCursor{value: l.value, tpe: l.tpe.NonNullOf(), env: l.env})))
}
func (l leafCursor) Field(name, alias string) problem.Result[cursor.Cursor] {
	return problem.Failf[cursor.Cursor]("scalar has no field '%s'", name)
}
func (l leafCursor) NarrowsTo(typeName string) bool { return false }
func (l leafCursor) Narrow(typeName string) problem.Result[cursor.Cursor] {
	return problem.Failf[cursor.Cursor]("cannot narrow scalar to %s", typeName)
}
func (l leafCursor) ListPath(path []string) problem.Result[[]cursor.Cursor] {
	if len(path) == 0 {
		return problem.Pure([]cursor.Cursor{l})
	}
	return problem.Failf[[]cursor.Cursor]("scalar has no field '%s'", path[0])
}
func (l leafCursor) FlatListPath(path []string) problem.Result[[]cursor.Cursor] { return l.ListPath(path) }
func (l leafCursor) WithEnv(env cursor.Env) cursor.Cursor                      { l.env = env; return l }
func (l leafCursor) FullEnv() cursor.Env                                       { return l.env }
func (l leafCursor) Preunique() problem.Result[cursor.Cursor]                  { return problem.Pure[cursor.Cursor](l) }

// widgetCursor is an object cursor with one leaf field, "label".
type widgetCursor struct {
	label string
	tpe   *gqltype.TypeRef
	env   cursor.Env
}

func (w widgetCursor) Type() *gqltype.TypeRef { return w.tpe }
func (w widgetCursor) IsLeaf() bool           { return false }
func (w widgetCursor) IsNullable() bool       { return w.tpe.IsNullable() }
func (w widgetCursor) IsList() bool           { return false }
func (w widgetCursor) AsLeaf() problem.Result[cursor.Json] {
	return problem.Failf[cursor.Json]("Widget is not a leaf value")
}
func (w widgetCursor) AsList() problem.Result[[]cursor.Cursor] {
	return problem.Failf[[]cursor.Cursor]("Widget is not a list")
}
func (w widgetCursor) AsNullable() problem.Result[cursor.Option] {
	return problem.Pure(cursor.Some(cursor.Cursor(widgetCursor{label: w.label, tpe: w.tpe.NonNullOf(), env: w.env})))
}
func (w widgetCursor) Field(name, alias string) problem.Result[cursor.Cursor] {
	if name == "label" {
		return problem.Pure[cursor.Cursor](leafCursor{value: w.label, tpe: gqltype.NonNull(gqltype.Named("String")), env: w.env})
	}
	return problem.Failf[cursor.Cursor]("Type Widget has no field '%s'", name)
}
func (w widgetCursor) NarrowsTo(typeName string) bool { return typeName == "Widget" }
func (w widgetCursor) Narrow(typeName string) problem.Result[cursor.Cursor] {
	if !w.NarrowsTo(typeName) {
		return problem.Failf[cursor.Cursor]("cannot narrow Widget to %s", typeName)
	}
	return problem.Pure[cursor.Cursor](w)
}
func (w widgetCursor) ListPath(path []string) problem.Result[[]cursor.Cursor] {
	r := w.Field(path[0], "")
	v, ok := r.Get()
	if !ok {
		return problem.Fail[[]cursor.Cursor](r.Problems()...)
	}
	return problem.Pure([]cursor.Cursor{v})
}
func (w widgetCursor) FlatListPath(path []string) problem.Result[[]cursor.Cursor] { return w.ListPath(path) }
func (w widgetCursor) WithEnv(env cursor.Env) cursor.Cursor                       { w.env = env; return w }
func (w widgetCursor) FullEnv() cursor.Env                                        { return w.env }
func (w widgetCursor) Preunique() problem.Result[cursor.Cursor]                   { return problem.Pure[cursor.Cursor](w) }

func selectLabel() qengine.Query {
	return qengine.PossiblyRenamedSelect{
		ResultName: "label",
		Inner:      qengine.Select{FieldName: "label", Child: qengine.Empty{}},
	}
}

func TestRunValueSelectsObjectField(t *testing.T) {
	e := &Evaluator{Schema: fakeSchema()}
	c := widgetCursor{label: "gizmo", tpe: gqltype.NonNull(gqltype.Named("Widget"))}

	res := e.RunValue(context.Background(), selectLabel(), gqltype.Named("Widget"), c)
	v, ok := res.Get()
	require.True(t, ok)
	assert.Equal(t, qengine.Concrete{Value: qengine.OrderedObject{
		Keys:   []string{"label"},
		Values: map[string]any{"label": "gizmo"},
	}}, v)
}

func TestRunValueNullableCursorYieldsNull(t *testing.T) {
	e := &Evaluator{Schema: fakeSchema()}
	c := leafCursor{value: nil, tpe: gqltype.Named("String")}

	res := e.RunValue(context.Background(), qengine.Empty{}, gqltype.Named("String"), c)
	v, ok := res.Get()
	require.True(t, ok)
	assert.Equal(t, qengine.Concrete{Value: nil}, v)
}

func TestRunListUniqueNoMatchIsErrorWhenNotNullable(t *testing.T) {
	e := &Evaluator{Schema: fakeSchema()}

	res := e.RunList(context.Background(), selectLabel(), gqltype.NonNull(gqltype.Named("Widget")), nil, true, false)
	_, ok := res.Get()
	assert.False(t, ok)
	require.NotEmpty(t, res.Problems())
	assert.Equal(t, "No match", res.Problems()[0].Message)
}

func TestRunListUniqueNoMatchIsNullWhenNullable(t *testing.T) {
	e := &Evaluator{Schema: fakeSchema()}

	res := e.RunList(context.Background(), selectLabel(), gqltype.Named("Widget"), nil, true, true)
	v, ok := res.Get()
	require.True(t, ok)
	assert.Equal(t, qengine.Concrete{Value: nil}, v)
}

func TestRunListUniqueMultipleMatchesIsError(t *testing.T) {
	e := &Evaluator{Schema: fakeSchema()}
	cs := []cursor.Cursor{
		widgetCursor{label: "a", tpe: gqltype.NonNull(gqltype.Named("Widget"))},
		widgetCursor{label: "b", tpe: gqltype.NonNull(gqltype.Named("Widget"))},
	}

	res := e.RunList(context.Background(), selectLabel(), gqltype.NonNull(gqltype.Named("Widget")), cs, true, false)
	_, ok := res.Get()
	assert.False(t, ok)
	require.NotEmpty(t, res.Problems())
	assert.Equal(t, "Multiple matches", res.Problems()[0].Message)
}

func TestResolveTypenameForObjectKind(t *testing.T) {
	e := &Evaluator{Schema: fakeSchema()}
	c := widgetCursor{label: "gizmo", tpe: gqltype.NonNull(gqltype.Named("Widget"))}

	name, errMsg := e.resolveTypename(gqltype.Named("Widget"), c)
	assert.Empty(t, errMsg)
	assert.Equal(t, "Widget", name)
}
