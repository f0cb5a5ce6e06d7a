package elaborate

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

func testSchema() *gqltype.Schema {
	return &gqltype.Schema{
		QueryType: "Query",
		Types: map[string]*gqltype.Type{
			"Query": {Name: "Query", Kind: gqltype.TypeKindObject, Fields: []*gqltype.Field{
				{Name: "city", Type: gqltype.Named("City")},
				{Name: "cities", Type: gqltype.List(gqltype.Named("City"))},
			}},
			"City": {Name: "City", Kind: gqltype.TypeKindObject, Fields: []*gqltype.Field{
				{Name: "name", Type: gqltype.NonNull(gqltype.Named("String"))},
				{Name: "country", Type: gqltype.Named("Country")},
			}},
			"Country": {Name: "Country", Kind: gqltype.TypeKindObject, Fields: []*gqltype.Field{
				{Name: "name", Type: gqltype.NonNull(gqltype.Named("String"))},
			}},
			"String": {Name: "String", Kind: gqltype.TypeKindScalar},
			"Int":    {Name: "Int", Kind: gqltype.TypeKindScalar},
		},
	}
}

func TestElaborateSimpleSelection(t *testing.T) {
	el := New(testSchema(), nil)
	res, probs := el.Elaborate(`{ city(id: 1) { name } }`, "", nil)
	require.Empty(t, probs)

	group, ok := res.Query.(qengine.Group)
	require.True(t, ok)
	require.Len(t, group.Children, 1)

	prs, ok := group.Children[0].(qengine.PossiblyRenamedSelect)
	require.True(t, ok)
	assert.Equal(t, "city", prs.ResultName)

	sel, ok := prs.Inner.(qengine.Select)
	require.True(t, ok)
	assert.Equal(t, "city", sel.FieldName)
	assert.Equal(t, int64(1), sel.Args["id"])
}

func TestElaborateAlias(t *testing.T) {
	el := New(testSchema(), nil)
	res, probs := el.Elaborate(`{ first: city(id: 1) { name } }`, "", nil)
	require.Empty(t, probs)

	group := res.Query.(qengine.Group)
	prs := group.Children[0].(qengine.PossiblyRenamedSelect)
	assert.Equal(t, "first", prs.ResultName)
	sel := prs.Inner.(qengine.Select)
	assert.Equal(t, "city", sel.FieldName)
}

func TestElaborateListShapeArguments(t *testing.T) {
	el := New(testSchema(), nil)
	res, probs := el.Elaborate(`{ cities(filter: {population_gt: 100}, limit: 5) { name } }`, "", nil)
	require.Empty(t, probs)

	group := res.Query.(qengine.Group)
	prs := group.Children[0].(qengine.PossiblyRenamedSelect)
	sel := prs.Inner.(qengine.Select)
	fool, ok := sel.Child.(qengine.FilterOrderByOffsetLimit)
	require.True(t, ok)
	require.NotNil(t, fool.Pred)
	require.NotNil(t, fool.Limit)
	assert.Equal(t, 5, *fool.Limit)
}

func TestElaborateCrossMappingField(t *testing.T) {
	el := New(testSchema(), Registry{})
	res, probs := el.Elaborate(`{ city(id: 1) { name country { name } } }`, "", nil)
	require.Empty(t, probs)

	group := res.Query.(qengine.Group)
	prs := group.Children[0].(qengine.PossiblyRenamedSelect)
	sel := prs.Inner.(qengine.Select)
	childGroup := sel.Child.(qengine.Group)
	require.Len(t, childGroup.Children, 2)
	countryField := childGroup.Children[1].(qengine.PossiblyRenamedSelect)
	assert.Equal(t, "country", countryField.ResultName)
	// With an empty Registry, "country" elaborates to a plain Select, not a Component.
	countrySel := countryField.Inner.(qengine.Select)
	_, isComponent := countrySel.Child.(qengine.Component)
	assert.False(t, isComponent)
}

type stubInterpreter struct{}

func (stubInterpreter) RunRootValue(ctx context.Context, q qengine.Query, rootTpe *gqltype.TypeRef, env cursor.Env) problem.Result[qengine.ProtoJson] {
	return problem.Pure[qengine.ProtoJson](qengine.Concrete{Value: nil})
}
func (stubInterpreter) RunRootValues(ctx context.Context, reqs []qengine.RootRequest) ([]problem.Problem, []qengine.ProtoJson) {
	return nil, make([]qengine.ProtoJson, len(reqs))
}

func TestElaborateCrossMappingFieldWiresComponent(t *testing.T) {
	cross := Registry{
		"City.country": CrossMapping{
			Interpreter: stubInterpreter{},
			Join: func(c cursor.Cursor, child qengine.Query) problem.Result[qengine.Query] {
				return problem.Pure[qengine.Query](child)
			},
		},
	}
	el := New(testSchema(), cross)
	res, probs := el.Elaborate(`{ city(id: 1) { name country { name } } }`, "", nil)
	require.Empty(t, probs)

	group := res.Query.(qengine.Group)
	prs := group.Children[0].(qengine.PossiblyRenamedSelect)
	sel := prs.Inner.(qengine.Select)
	childGroup := sel.Child.(qengine.Group)
	countryField := childGroup.Children[1].(qengine.PossiblyRenamedSelect)
	countrySel := countryField.Inner.(qengine.Select)
	comp, isComponent := countrySel.Child.(qengine.Component)
	require.True(t, isComponent)
	assert.Equal(t, stubInterpreter{}, comp.Interpreter)
}

func TestElaborateUnknownOperation(t *testing.T) {
	el := New(testSchema(), nil)
	_, probs := el.Elaborate(`query A { city(id: 1) { name } }`, "B", nil)
	assert.NotEmpty(t, probs)
}
