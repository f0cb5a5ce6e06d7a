package countrystore

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
			"Query":   {Name: "Query", Kind: gqltype.TypeKindObject},
			"Country": {Name: "Country", Kind: gqltype.TypeKindObject},
			"String":  {Name: "String", Kind: gqltype.TypeKindScalar},
			"ID":      {Name: "ID", Kind: gqltype.TypeKindScalar},
		},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	return s
}

func TestByCodeFound(t *testing.T) {
	m := New(testSchema(), openTestStore(t))
	res := m.RootCursor(context.Background(), "countryByCode", "country", map[string]any{"code": "NLD"}, qengine.Empty{}, cursor.EmptyEnv)
	rc, ok := res.Get()
	require.True(t, ok)

	elems, ok := rc.Cursor.AsList().Get()
	require.True(t, ok)
	require.Len(t, elems, 1)

	nameField, _ := elems[0].Field("name", "").Get()
	name, _ := nameField.AsLeaf().Get()
	assert.Equal(t, "Netherlands", name)
}

func TestByCodeNotFound(t *testing.T) {
	m := New(testSchema(), openTestStore(t))
	res := m.RootCursor(context.Background(), "countryByCode", "country", map[string]any{"code": "ZZZ"}, qengine.Empty{}, cursor.EmptyEnv)
	rc, ok := res.Get()
	require.True(t, ok)

	elems, ok := rc.Cursor.AsList().Get()
	require.True(t, ok)
	assert.Empty(t, elems)

	_, isUnique := rc.Query.(qengine.Unique)
	assert.True(t, isUnique)
}

func TestCountriesList(t *testing.T) {
	m := New(testSchema(), openTestStore(t))
	res := m.RootCursor(context.Background(), "countries", "countries", nil, qengine.Empty{}, cursor.EmptyEnv)
	rc, ok := res.Get()
	require.True(t, ok)

	elems, ok := rc.Cursor.AsList().Get()
	require.True(t, ok)
	assert.Len(t, elems, 3)
}
