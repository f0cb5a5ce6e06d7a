package citystore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/qengine"
)

func testSchema() *gqltype.Schema {
	return &gqltype.Schema{
		QueryType: "Query",
		Types: map[string]*gqltype.Type{
			"Query": {Name: "Query", Kind: gqltype.TypeKindObject},
			"City": {Name: "City", Kind: gqltype.TypeKindObject, Fields: []*gqltype.Field{
				{Name: "id", Type: gqltype.NonNull(gqltype.Named("Int"))},
			}},
			"String": {Name: "String", Kind: gqltype.TypeKindScalar},
			"Int":    {Name: "Int", Kind: gqltype.TypeKindScalar},
		},
	}
}

func TestRootCursorCityFound(t *testing.T) {
	m := New(testSchema(), NewStore())
	res := m.RootCursor(context.Background(), "city", "city", map[string]any{"id": 1}, qengine.Empty{}, cursor.EmptyEnv)
	rc, ok := res.Get()
	require.True(t, ok)

	_, isUnique := rc.Query.(qengine.Unique)
	assert.True(t, isUnique)

	elems, ok := rc.Cursor.AsList().Get()
	require.True(t, ok)
	require.Len(t, elems, 1)

	nameField, ok := elems[0].Field("name", "").Get()
	require.True(t, ok)
	name, ok := nameField.AsLeaf().Get()
	require.True(t, ok)
	assert.Equal(t, "Kabul", name)
}

func TestRootCursorCityNotFound(t *testing.T) {
	m := New(testSchema(), NewStore())
	res := m.RootCursor(context.Background(), "city", "city", map[string]any{"id": 999}, qengine.Empty{}, cursor.EmptyEnv)
	rc, ok := res.Get()
	require.True(t, ok)

	elems, ok := rc.Cursor.AsList().Get()
	require.True(t, ok)
	assert.Empty(t, elems)
}

func TestRootCursorCities(t *testing.T) {
	m := New(testSchema(), NewStore())
	res := m.RootCursor(context.Background(), "cities", "cities", nil, qengine.Empty{}, cursor.EmptyEnv)
	rc, ok := res.Get()
	require.True(t, ok)

	elems, ok := rc.Cursor.AsList().Get()
	require.True(t, ok)
	assert.Len(t, elems, 5)
}

func TestCreateCityAndUpdatePopulation(t *testing.T) {
	m := New(testSchema(), NewStore())

	created := m.RootCursor(context.Background(), "createCity", "createCity", map[string]any{
		"name": "Kyoto", "countryCode": "JPN", "population": int64(1500000),
	}, qengine.Empty{}, cursor.EmptyEnv)
	rc, ok := created.Get()
	require.True(t, ok)
	idField, ok := rc.Cursor.Field("id", "").Get()
	require.True(t, ok)
	id, ok := idField.AsLeaf().Get()
	require.True(t, ok)
	newID := int(id.(int64))
	assert.Equal(t, 6, newID)

	updated := m.RootCursor(context.Background(), "updatePopulation", "updatePopulation", map[string]any{
		"id": newID, "population": int64(1600000),
	}, qengine.Empty{}, cursor.EmptyEnv)
	urc, ok := updated.Get()
	require.True(t, ok)
	popField, ok := urc.Cursor.Field("population", "").Get()
	require.True(t, ok)
	pop, ok := popField.AsLeaf().Get()
	require.True(t, ok)
	assert.Equal(t, int64(1600000), pop)
}

func TestUpdatePopulationMissingCity(t *testing.T) {
	m := New(testSchema(), NewStore())
	res := m.RootCursor(context.Background(), "updatePopulation", "updatePopulation", map[string]any{
		"id": 999, "population": int64(1),
	}, qengine.Empty{}, cursor.EmptyEnv)
	_, ok := res.Get()
	assert.False(t, ok)
	assert.NotEmpty(t, res.Problems())
}

func TestEvaluatorUniqueRejectsMultipleMatches(t *testing.T) {
	m := New(testSchema(), NewStore())
	all := m.Store.all()
	require.GreaterOrEqual(t, len(all), 2)

	cs := []cursor.Cursor{
		newCityCursor(all[0], gqltype.Named("City")),
		newCityCursor(all[1], gqltype.Named("City")),
	}
	query := qengine.Group{Children: []qengine.Query{
		qengine.PossiblyRenamedSelect{ResultName: "id", Inner: qengine.Select{FieldName: "id", Child: qengine.Empty{}}},
	}}

	res := m.Eval.RunList(context.Background(), query, gqltype.Named("City"), cs, true, false)
	_, ok := res.Get()
	assert.False(t, ok)
	require.NotEmpty(t, res.Problems())
	assert.Equal(t, "Multiple matches", res.Problems()[0].Message)
}

func TestCountryFieldIsLeafBridge(t *testing.T) {
	m := New(testSchema(), NewStore())
	res := m.RootCursor(context.Background(), "city", "city", map[string]any{"id": 1}, qengine.Empty{}, cursor.EmptyEnv)
	rc, _ := res.Get()
	elems, _ := rc.Cursor.AsList().Get()

	countryField, ok := elems[0].Field("country", "").Get()
	require.True(t, ok)
	assert.True(t, countryField.IsLeaf())
	code, ok := countryField.AsLeaf().Get()
	require.True(t, ok)
	assert.Equal(t, "AFG", code)
}
