package citystore

import (
	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/problem"
)

// cityCursor navigates a single City record. It is the leaf-and-object
// cursor the evaluator walks for "id"/"name"/"population"/"countryCode" and
// the bridge point for "country" (a Component field — see Field below).
type cityCursor struct {
	rec *City
	tpe *gqltype.TypeRef
	env cursor.Env
}

func newCityCursor(rec *City, tpe *gqltype.TypeRef) cityCursor {
	return cityCursor{rec: rec, tpe: tpe}
}

func (c cityCursor) Type() *gqltype.TypeRef { return c.tpe }
func (c cityCursor) IsLeaf() bool           { return false }
func (c cityCursor) IsNullable() bool       { return c.tpe.IsNullable() }
func (c cityCursor) IsList() bool           { return false }

func (c cityCursor) AsLeaf() problem.Result[cursor.Json] {
	return problem.Failf[cursor.Json]("City is not a leaf value")
}

func (c cityCursor) AsNullable() problem.Result[cursor.Option] {
	if c.rec == nil {
		return problem.Pure(cursor.None())
	}
	return problem.Pure(cursor.Some(cursor.Cursor(c.withType(c.tpe.NonNullOf()))))
}

func (c cityCursor) AsList() problem.Result[[]cursor.Cursor] {
	return problem.Failf[[]cursor.Cursor]("City is not a list")
}

// Field navigates to a named scalar field, or to the "country" bridge point
// (a leaf cursor over the country code, read by the Component's Join).
func (c cityCursor) Field(name string, alias string) problem.Result[cursor.Cursor] {
	switch name {
	case "id":
		return problem.Pure[cursor.Cursor](leafCursor{value: int64(c.rec.ID), tpe: gqltype.NonNull(gqltype.Named("Int")), env: c.env})
	case "name":
		return problem.Pure[cursor.Cursor](leafCursor{value: c.rec.Name, tpe: gqltype.NonNull(gqltype.Named("String")), env: c.env})
	case "population":
		return problem.Pure[cursor.Cursor](leafCursor{value: int64(c.rec.Population), tpe: gqltype.NonNull(gqltype.Named("Int")), env: c.env})
	case "countryCode":
		return problem.Pure[cursor.Cursor](leafCursor{value: c.rec.CountryCode, tpe: gqltype.NonNull(gqltype.Named("String")), env: c.env})
	case "country":
		return problem.Pure[cursor.Cursor](leafCursor{value: c.rec.CountryCode, tpe: gqltype.Named("String"), env: c.env})
	default:
		return problem.Failf[cursor.Cursor]("Type City has no field '%s'", name)
	}
}

func (c cityCursor) NarrowsTo(typeName string) bool { return typeName == "City" }

func (c cityCursor) Narrow(typeName string) problem.Result[cursor.Cursor] {
	if !c.NarrowsTo(typeName) {
		return problem.Failf[cursor.Cursor]("Cannot narrow City to %s", typeName)
	}
	return problem.Pure[cursor.Cursor](c)
}

func (c cityCursor) ListPath(path []string) problem.Result[[]cursor.Cursor] {
	return fieldPath(c, path)
}
func (c cityCursor) FlatListPath(path []string) problem.Result[[]cursor.Cursor] { return c.ListPath(path) }

func (c cityCursor) WithEnv(env cursor.Env) cursor.Cursor { c.env = env; return c }
func (c cityCursor) FullEnv() cursor.Env                  { return c.env }

func (c cityCursor) Preunique() problem.Result[cursor.Cursor] { return problem.Pure[cursor.Cursor](c) }

func (c cityCursor) withType(tpe *gqltype.TypeRef) cityCursor { c.tpe = tpe; return c }

// fieldPath resolves a single-step path against a Cursor for predicate
// evaluation; citystore's filter DSL only ever addresses direct scalar
// fields, so a single Field hop always suffices.
func fieldPath(c cursor.Cursor, path []string) problem.Result[[]cursor.Cursor] {
	cur := c
	for _, seg := range path {
		r := cur.Field(seg, "")
		v, ok := r.Get()
		if !ok {
			return problem.Fail[[]cursor.Cursor](r.Problems()...)
		}
		cur = v
	}
	return problem.Pure([]cursor.Cursor{cur})
}

// leafCursor is a scalar value with no further navigation, used for every
// City field.
type leafCursor struct {
	value any
	tpe   *gqltype.TypeRef
	env   cursor.Env
}

func (l leafCursor) Type() *gqltype.TypeRef { return l.tpe }
func (l leafCursor) IsLeaf() bool           { return true }
func (l leafCursor) IsNullable() bool       { return l.tpe.IsNullable() }
func (l leafCursor) IsList() bool           { return false }

func (l leafCursor) AsLeaf() problem.Result[cursor.Json] { return problem.Pure[cursor.Json](l.value) }

func (l leafCursor) AsNullable() problem.Result[cursor.Option] {
	if l.value == nil {
		return problem.Pure(cursor.None())
	}
	return problem.Pure(cursor.Some(cursor.Cursor(leafCursor{value: l.value, tpe: l.tpe.NonNullOf(), env: l.env})))
}

func (l leafCursor) AsList() problem.Result[[]cursor.Cursor] {
	return problem.Failf[[]cursor.Cursor]("scalar value is not a list")
}
func (l leafCursor) Field(name string, alias string) problem.Result[cursor.Cursor] {
	return problem.Failf[cursor.Cursor]("scalar value has no field '%s'", name)
}
func (l leafCursor) NarrowsTo(typeName string) bool { return false }
func (l leafCursor) Narrow(typeName string) problem.Result[cursor.Cursor] {
	return problem.Failf[cursor.Cursor]("Cannot narrow scalar to %s", typeName)
}
func (l leafCursor) ListPath(path []string) problem.Result[[]cursor.Cursor] {
	if len(path) == 0 {
		return problem.Pure([]cursor.Cursor{l})
	}
	return problem.Failf[[]cursor.Cursor]("scalar value has no field '%s'", path[0])
}
func (l leafCursor) FlatListPath(path []string) problem.Result[[]cursor.Cursor] { return l.ListPath(path) }
func (l leafCursor) WithEnv(env cursor.Env) cursor.Cursor                      { l.env = env; return l }
func (l leafCursor) FullEnv() cursor.Env                                       { return l.env }
func (l leafCursor) Preunique() problem.Result[cursor.Cursor]                  { return problem.Pure[cursor.Cursor](l) }

// cityListCursor navigates a slice of City records, used at the "cities"
// and "city" (pre-Unique) root positions.
type cityListCursor struct {
	recs []*City
	tpe  *gqltype.TypeRef
	env  cursor.Env
}

func newCityListCursor(recs []*City, elemTpe *gqltype.TypeRef) cityListCursor {
	return cityListCursor{recs: recs, tpe: elemTpe}
}

func (c cityListCursor) Type() *gqltype.TypeRef { return gqltype.List(c.tpe) }
func (c cityListCursor) IsLeaf() bool           { return false }
func (c cityListCursor) IsNullable() bool       { return false }
func (c cityListCursor) IsList() bool           { return true }

func (c cityListCursor) AsLeaf() problem.Result[cursor.Json] {
	return problem.Failf[cursor.Json]("list of City is not a leaf value")
}
func (c cityListCursor) AsNullable() problem.Result[cursor.Option] {
	return problem.Pure(cursor.Some(cursor.Cursor(c)))
}
func (c cityListCursor) AsList() problem.Result[[]cursor.Cursor] {
	out := make([]cursor.Cursor, len(c.recs))
	for i, r := range c.recs {
		out[i] = newCityCursor(r, c.tpe).WithEnv(c.env)
	}
	return problem.Pure(out)
}
func (c cityListCursor) Field(name string, alias string) problem.Result[cursor.Cursor] {
	return problem.Failf[cursor.Cursor]("list of City has no field '%s'", name)
}
func (c cityListCursor) NarrowsTo(typeName string) bool { return false }
func (c cityListCursor) Narrow(typeName string) problem.Result[cursor.Cursor] {
	return problem.Failf[cursor.Cursor]("Cannot narrow list of City to %s", typeName)
}
func (c cityListCursor) ListPath(path []string) problem.Result[[]cursor.Cursor] {
	return problem.Failf[[]cursor.Cursor]("predicate path evaluation expects a single element, got a list")
}
func (c cityListCursor) FlatListPath(path []string) problem.Result[[]cursor.Cursor] {
	elems, _ := c.AsList().Get()
	var out []cursor.Cursor
	for _, e := range elems {
		r, ok := fieldPath(e, path).Get()
		if ok {
			out = append(out, r...)
		}
	}
	return problem.Pure(out)
}
func (c cityListCursor) WithEnv(env cursor.Env) cursor.Cursor { c.env = env; return c }
func (c cityListCursor) FullEnv() cursor.Env                  { return c.env }
func (c cityListCursor) Preunique() problem.Result[cursor.Cursor] {
	return problem.Pure[cursor.Cursor](c)
}
