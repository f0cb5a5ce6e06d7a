package qengine

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/gqltype"
)

// ProtoJson is the partial-result tree (§3, §4.B): a mixture of concrete
// JSON and deferred placeholders. Constructors enforce the collapse
// invariant — a PObject/PArray/PSelect built entirely from Concrete parts
// collapses to Concrete immediately, so "no Staged anywhere" and "is
// Concrete" coincide structurally (§8 invariant 2).
type ProtoJson interface {
	isProtoJSON()
}

// Concrete is a fully materialized JSON value.
type Concrete struct {
	Value cursor.Json
}

func (Concrete) isProtoJSON() {}

// OrderedObject is the Json representation of an object-shaped Concrete
// value once every field has collapsed: a plain map[string]any can't carry
// field order past its own construction, and encoding/json sorts map keys
// on Marshal regardless, so neither survives to the wire. OrderedObject
// keeps the (Name, Value) pairs as collapsed and writes them back out in
// that order via MarshalJSON (§5 "Ordering guarantees": PObject field order
// is insertion order).
type OrderedObject struct {
	Keys   []string
	Values map[string]any
}

// newOrderedObject builds an OrderedObject from fields in field order,
// keeping the last value on a duplicate name (matches map[string]any
// assignment semantics).
func newOrderedObject(fields []PField, value func(PField) any) OrderedObject {
	o := OrderedObject{Values: make(map[string]any, len(fields))}
	for _, f := range fields {
		if _, dup := o.Values[f.Name]; !dup {
			o.Keys = append(o.Keys, f.Name)
		}
		o.Values[f.Name] = value(f)
	}
	return o
}

// Get looks up a field by name, mirroring a map[string]any's comma-ok read.
func (o OrderedObject) Get(name string) (any, bool) {
	v, ok := o.Values[name]
	return v, ok
}

func (o OrderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(o.Values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AsObject reads an object-shaped Json value's fields in the order the
// producer kept them. A plain map[string]any (built outside this package's
// own collapse, or from a decoded-but-untouched value) has no preserved
// order by construction, so its keys fall back to a sorted scan — still
// deterministic, just not query order.
func AsObject(v any) (keys []string, get func(string) (any, bool), ok bool) {
	switch m := v.(type) {
	case OrderedObject:
		return m.Keys, m.Get, true
	case map[string]any:
		ks := make([]string, 0, len(m))
		for k := range m {
			ks = append(ks, k)
		}
		sort.Strings(ks)
		return ks, func(k string) (any, bool) { v, ok := m[k]; return v, ok }, true
	default:
		return nil, nil, false
	}
}

// Staged is an opaque deferred subtree owned by Interpreter. Staged nodes
// are always referred to through a *Staged pointer: two Staged values built
// from identical (Query, RootType, Env) are still distinct placeholders
// (§3 "Identity invariant"), which the completion engine relies on when it
// scatters results back by pointer identity.
type Staged struct {
	Interpreter Interpreter
	Query       Query
	RootType    *gqltype.TypeRef
	Env         cursor.Env
}

func (*Staged) isProtoJSON() {}

// PObject is a partial object: any field's value may still be deferred.
type PObject struct {
	Fields []PField
}

type PField struct {
	Name  string
	Value ProtoJson
}

func (PObject) isProtoJSON() {}

// PArray is a partial array: any element may still be deferred.
type PArray struct {
	Elems []ProtoJson
}

func (PArray) isProtoJSON() {}

// PSelect projects FieldName out of Inner once Inner materializes.
type PSelect struct {
	Inner     ProtoJson
	FieldName string
}

func (PSelect) isProtoJSON() {}

// FromJSON wraps a fully concrete JSON value.
func FromJSON(v cursor.Json) ProtoJson { return Concrete{Value: v} }

// IsDeferred reports true iff pj is a (non-recursive) Staged placeholder.
func IsDeferred(pj ProtoJson) bool {
	_, ok := pj.(*Staged)
	return ok
}

// NewStaged builds a fresh, identity-distinct deferred placeholder.
func NewStaged(interp Interpreter, q Query, rootTpe *gqltype.TypeRef, env cursor.Env) *Staged {
	return &Staged{Interpreter: interp, Query: q, RootType: rootTpe, Env: env}
}

// FromFields builds a PObject from ordered (name, value) pairs, collapsing
// to Concrete if every field is already Concrete. The collapsed value is an
// OrderedObject so the field order survives the collapse (§5 "Ordering
// guarantees").
func FromFields(fields []PField) ProtoJson {
	allConcrete := true
	for _, f := range fields {
		if _, ok := f.Value.(Concrete); !ok {
			allConcrete = false
			break
		}
	}
	if allConcrete {
		return Concrete{Value: newOrderedObject(fields, func(f PField) any { return f.Value.(Concrete).Value })}
	}
	return PObject{Fields: fields}
}

// FromValues builds a PArray from elements, collapsing to Concrete if every
// element is already Concrete.
func FromValues(elems []ProtoJson) ProtoJson {
	vals := make([]any, len(elems))
	allConcrete := true
	for i, e := range elems {
		c, ok := e.(Concrete)
		if !ok {
			allConcrete = false
			break
		}
		vals[i] = c.Value
	}
	if allConcrete {
		return Concrete{Value: vals}
	}
	return PArray{Elems: elems}
}

// SelectField projects fieldName from inner, collapsing immediately when
// inner is already Concrete.
func SelectField(inner ProtoJson, fieldName string) ProtoJson {
	if c, ok := inner.(Concrete); ok {
		_, get, _ := AsObject(c.Value)
		var v any
		if get != nil {
			v, _ = get(fieldName)
		}
		return Concrete{Value: v}
	}
	return PSelect{Inner: inner, FieldName: fieldName}
}

// MergeObjects flattens a list of object-shaped ProtoJsons into a single
// object preserving insertion order; non-object entries are skipped; an
// empty input yields a Concrete null (§4.B, §8 invariant 7). A Concrete
// entry produced by this package's own collapse (FromFields, an earlier
// MergeObjects) carries its field order as an OrderedObject and that order
// is preserved here; a bare map[string]any reaching this function from
// outside the collapse has no recoverable order, so its keys fall back to
// a sorted scan purely to keep that case deterministic.
func MergeObjects(list []ProtoJson) ProtoJson {
	var fields []PField
	for _, pj := range list {
		switch v := pj.(type) {
		case Concrete:
			keys, get, ok := AsObject(v.Value)
			if !ok {
				continue
			}
			for _, k := range keys {
				val, _ := get(k)
				fields = append(fields, PField{Name: k, Value: Concrete{Value: val}})
			}
		case PObject:
			fields = append(fields, v.Fields...)
		default:
			// not object-shaped; skipped per spec
		}
	}
	if len(fields) == 0 {
		return Concrete{Value: nil}
	}
	return FromFields(fields)
}
