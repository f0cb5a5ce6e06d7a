package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/engine"
	"github.com/hanpama/mosaicql/internal/qengine"
)

func testDomain(t *testing.T) (*Domain, *engine.Driver) {
	t.Helper()
	dom, err := Build(context.Background(), Config{SqliteDSN: ":memory:"})
	require.NoError(t, err)
	return dom, engine.NewDriver(dom.Schema, dom.RootMappings)
}

// field reads a single field out of a completed response object. The
// completed tree's objects are qengine.OrderedObject rather than a bare
// map[string]any, so field order survives the response (§5 "Ordering
// guarantees"); tests read through this helper instead of a type-asserted
// map index.
func field(t *testing.T, obj cursor.Json, name string) any {
	t.Helper()
	_, get, ok := qengine.AsObject(obj)
	require.True(t, ok, "%v is not an object", obj)
	v, _ := get(name)
	return v
}

func TestCityCrossesIntoCountry(t *testing.T) {
	dom, driver := testDomain(t)
	elaborated, probs := dom.Elaborator.Elaborate(`{ city(id: 1) { name country { name continent } } }`, "", nil)
	require.Empty(t, probs)

	data, runProbs := driver.RunRoot(context.Background(), elaborated.Query, elaborated.RootType, cursor.EmptyEnv)
	require.Empty(t, runProbs)

	city := field(t, data, "city")
	assert.Equal(t, "Kabul", field(t, city, "name"))
	country := field(t, city, "country")
	assert.Equal(t, "Afghanistan", field(t, country, "name"))
	assert.Equal(t, "Asia", field(t, country, "continent"))
}

func TestCitiesListWithFilterAndCrossMapping(t *testing.T) {
	dom, driver := testDomain(t)
	elaborated, probs := dom.Elaborator.Elaborate(`{
		cities(filter: {countryCode_eq: "NLD"}, orderBy: "name_ASC") {
			name
			country { code }
		}
	}`, "", nil)
	require.Empty(t, probs)

	data, runProbs := driver.RunRoot(context.Background(), elaborated.Query, elaborated.RootType, cursor.EmptyEnv)
	require.Empty(t, runProbs)

	cities := field(t, data, "cities").([]any)
	require.Len(t, cities, 2)
	first := cities[0]
	assert.Equal(t, "Amsterdam", field(t, first, "name"))
	assert.Equal(t, "NLD", field(t, field(t, first, "country"), "code"))
}

func TestCityNotFoundIsNull(t *testing.T) {
	dom, driver := testDomain(t)
	elaborated, probs := dom.Elaborator.Elaborate(`{ city(id: 999) { name } }`, "", nil)
	require.Empty(t, probs)

	data, runProbs := driver.RunRoot(context.Background(), elaborated.Query, elaborated.RootType, cursor.EmptyEnv)
	require.Empty(t, runProbs)

	assert.Nil(t, field(t, data, "city"))
}

func TestMutationCreateCity(t *testing.T) {
	dom, driver := testDomain(t)
	elaborated, probs := dom.Elaborator.Elaborate(`mutation { createCity(name: "Kyoto", countryCode: "JPN", population: 1500000) { id name } }`, "", nil)
	require.Empty(t, probs)
	require.True(t, elaborated.IsMutation)

	data, runProbs := driver.RunRoot(context.Background(), elaborated.Query, elaborated.RootType, cursor.EmptyEnv)
	require.Empty(t, runProbs)

	created := field(t, data, "createCity")
	assert.Equal(t, "Kyoto", field(t, created, "name"))
}

// TestRunRootPreservesSelectionOrder locks in §5's field-order guarantee end
// to end: the response's top-level object (and "city"'s own object) must
// list fields in query order, not alphabetical order.
func TestRunRootPreservesSelectionOrder(t *testing.T) {
	dom, driver := testDomain(t)
	elaborated, probs := dom.Elaborator.Elaborate(`{ city(id: 1) { population name countryCode } }`, "", nil)
	require.Empty(t, probs)

	data, runProbs := driver.RunRoot(context.Background(), elaborated.Query, elaborated.RootType, cursor.EmptyEnv)
	require.Empty(t, runProbs)

	city := field(t, data, "city")
	obj, ok := city.(qengine.OrderedObject)
	require.True(t, ok)
	assert.Equal(t, []string{"population", "name", "countryCode"}, obj.Keys)
}
