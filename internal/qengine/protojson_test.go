package qengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeObjectsFlattensConcreteAndPartialEntries(t *testing.T) {
	list := []ProtoJson{
		Concrete{Value: map[string]any{"name": "Amsterdam", "id": int64(3)}},
		PObject{Fields: []PField{{Name: "country", Value: &Staged{}}}},
	}

	merged := MergeObjects(list)
	pobj, ok := merged.(PObject)
	assert.True(t, ok, "a Staged field keeps the merge result un-collapsed")

	names := make([]string, len(pobj.Fields))
	for i, f := range pobj.Fields {
		names[i] = f.Name
	}
	// "name"/"id" arrive via a bare map[string]any, which carries no field
	// order of its own, so MergeObjects falls back to a sorted scan for that
	// entry; "country" keeps its place after it.
	assert.Equal(t, []string{"id", "name", "country"}, names)
}

func TestMergeObjectsCollapsesToConcreteWhenEveryEntryIsConcrete(t *testing.T) {
	list := []ProtoJson{
		Concrete{Value: map[string]any{"b": 2, "a": 1}},
		Concrete{Value: map[string]any{"c": 3}},
	}

	merged := MergeObjects(list)
	c, ok := merged.(Concrete)
	assert.True(t, ok)
	obj, ok := c.Value.(OrderedObject)
	assert.True(t, ok, "a fully concrete merge collapses to an OrderedObject, not a bare map")
	assert.Equal(t, []string{"a", "b", "c"}, obj.Keys)
	assert.Equal(t, map[string]any{"a": 1, "b": 2, "c": 3}, obj.Values)
}

func TestMergeObjectsPreservesOrderFromAnOrderedSource(t *testing.T) {
	first := FromFields([]PField{
		{Name: "name", Value: Concrete{Value: "Rotterdam"}},
		{Name: "id", Value: Concrete{Value: int64(1)}},
	})

	merged := MergeObjects([]ProtoJson{first, Concrete{Value: map[string]any{"country": "NL"}}})
	c, ok := merged.(Concrete)
	assert.True(t, ok)
	obj, ok := c.Value.(OrderedObject)
	assert.True(t, ok)
	// the OrderedObject entry keeps its own field order ("name" before "id");
	// the trailing bare-map entry still falls back to a sorted scan.
	assert.Equal(t, []string{"name", "id", "country"}, obj.Keys)
}

func TestMergeObjectsIsDeterministicAcrossMapIterations(t *testing.T) {
	m := map[string]any{"alpha": 1, "beta": 2, "gamma": 3, "delta": 4, "epsilon": 5}
	var first []string
	for i := 0; i < 20; i++ {
		merged := MergeObjects([]ProtoJson{Concrete{Value: m}})
		c, ok := merged.(Concrete)
		assert.True(t, ok)
		obj, ok := c.Value.(OrderedObject)
		assert.True(t, ok)
		assert.Equal(t, m, obj.Values)
		if first == nil {
			first = obj.Keys
		} else {
			assert.Equal(t, first, obj.Keys)
		}
	}
}

func TestMergeObjectsSkipsNonObjectEntries(t *testing.T) {
	list := []ProtoJson{
		Concrete{Value: "not an object"},
		Concrete{Value: map[string]any{"name": "Rotterdam"}},
	}
	merged := MergeObjects(list)
	c, ok := merged.(Concrete)
	assert.True(t, ok)
	obj, ok := c.Value.(OrderedObject)
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"name": "Rotterdam"}, obj.Values)
}

func TestMergeObjectsEmptyYieldsConcreteNull(t *testing.T) {
	merged := MergeObjects(nil)
	c, ok := merged.(Concrete)
	assert.True(t, ok)
	assert.Nil(t, c.Value)
}

func TestOrderedObjectMarshalJSONPreservesFieldOrder(t *testing.T) {
	obj := OrderedObject{
		Keys:   []string{"country", "name", "id"},
		Values: map[string]any{"country": "NL", "name": "Rotterdam", "id": int64(2)},
	}
	b, err := obj.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `{"country":"NL","name":"Rotterdam","id":2}`, string(b))
}

func TestFromFieldsOrderedObjectSurvivesSelectField(t *testing.T) {
	obj := FromFields([]PField{
		{Name: "b", Value: Concrete{Value: 2}},
		{Name: "a", Value: Concrete{Value: 1}},
	})
	selected := SelectField(obj, "a")
	c, ok := selected.(Concrete)
	assert.True(t, ok)
	assert.Equal(t, 1, c.Value)
}
