package countrystore

import (
	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/problem"
)

// countryCursor navigates a single Country row.
type countryCursor struct {
	rec *Country
	tpe *gqltype.TypeRef
	env cursor.Env
}

func newCountryCursor(rec *Country, tpe *gqltype.TypeRef) countryCursor {
	return countryCursor{rec: rec, tpe: tpe}
}

func (c countryCursor) Type() *gqltype.TypeRef { return c.tpe }
func (c countryCursor) IsLeaf() bool           { return false }
func (c countryCursor) IsNullable() bool       { return c.tpe.IsNullable() }
func (c countryCursor) IsList() bool           { return false }

func (c countryCursor) AsLeaf() problem.Result[cursor.Json] {
	return problem.Failf[cursor.Json]("Country is not a leaf value")
}
func (c countryCursor) AsNullable() problem.Result[cursor.Option] {
	if c.rec == nil {
		return problem.Pure(cursor.None())
	}
	return problem.Pure(cursor.Some(cursor.Cursor(c.withType(c.tpe.NonNullOf()))))
}
func (c countryCursor) AsList() problem.Result[[]cursor.Cursor] {
	return problem.Failf[[]cursor.Cursor]("Country is not a list")
}

func (c countryCursor) Field(name string, alias string) problem.Result[cursor.Cursor] {
	switch name {
	case "code":
		return problem.Pure[cursor.Cursor](countryLeaf{value: c.rec.Code, tpe: gqltype.NonNull(gqltype.Named("ID")), env: c.env})
	case "name":
		return problem.Pure[cursor.Cursor](countryLeaf{value: c.rec.Name, tpe: gqltype.NonNull(gqltype.Named("String")), env: c.env})
	case "continent":
		return problem.Pure[cursor.Cursor](countryLeaf{value: c.rec.Continent, tpe: gqltype.NonNull(gqltype.Named("String")), env: c.env})
	default:
		return problem.Failf[cursor.Cursor]("Type Country has no field '%s'", name)
	}
}

func (c countryCursor) NarrowsTo(typeName string) bool { return typeName == "Country" }
func (c countryCursor) Narrow(typeName string) problem.Result[cursor.Cursor] {
	if !c.NarrowsTo(typeName) {
		return problem.Failf[cursor.Cursor]("Cannot narrow Country to %s", typeName)
	}
	return problem.Pure[cursor.Cursor](c)
}

func (c countryCursor) ListPath(path []string) problem.Result[[]cursor.Cursor] {
	cur := cursor.Cursor(c)
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
func (c countryCursor) FlatListPath(path []string) problem.Result[[]cursor.Cursor] { return c.ListPath(path) }
func (c countryCursor) WithEnv(env cursor.Env) cursor.Cursor                       { c.env = env; return c }
func (c countryCursor) FullEnv() cursor.Env                                        { return c.env }
func (c countryCursor) Preunique() problem.Result[cursor.Cursor]                   { return problem.Pure[cursor.Cursor](c) }

func (c countryCursor) withType(tpe *gqltype.TypeRef) countryCursor { c.tpe = tpe; return c }

// countryLeaf is a scalar Country field value.
type countryLeaf struct {
	value any
	tpe   *gqltype.TypeRef
	env   cursor.Env
}

func (l countryLeaf) Type() *gqltype.TypeRef { return l.tpe }
func (l countryLeaf) IsLeaf() bool           { return true }
func (l countryLeaf) IsNullable() bool       { return l.tpe.IsNullable() }
func (l countryLeaf) IsList() bool           { return false }

func (l countryLeaf) AsLeaf() problem.Result[cursor.Json] { return problem.Pure[cursor.Json](l.value) }
func (l countryLeaf) AsNullable() problem.Result[cursor.Option] {
	if l.value == nil {
		return problem.Pure(cursor.None())
	}
	return problem.Pure(cursor.Some(cursor.Cursor(countryLeaf{value: l.value, tpe: l.tpe.NonNullOf(), env: l.env})))
}
func (l countryLeaf) AsList() problem.Result[[]cursor.Cursor] {
	return problem.Failf[[]cursor.Cursor]("scalar value is not a list")
}
func (l countryLeaf) Field(name string, alias string) problem.Result[cursor.Cursor] {
	return problem.Failf[cursor.Cursor]("scalar value has no field '%s'", name)
}
func (l countryLeaf) NarrowsTo(typeName string) bool { return false }
func (l countryLeaf) Narrow(typeName string) problem.Result[cursor.Cursor] {
	return problem.Failf[cursor.Cursor]("Cannot narrow scalar to %s", typeName)
}
func (l countryLeaf) ListPath(path []string) problem.Result[[]cursor.Cursor] {
	if len(path) == 0 {
		return problem.Pure([]cursor.Cursor{l})
	}
	return problem.Failf[[]cursor.Cursor]("scalar value has no field '%s'", path[0])
}
func (l countryLeaf) FlatListPath(path []string) problem.Result[[]cursor.Cursor] { return l.ListPath(path) }
func (l countryLeaf) WithEnv(env cursor.Env) cursor.Cursor                       { l.env = env; return l }
func (l countryLeaf) FullEnv() cursor.Env                                        { return l.env }
func (l countryLeaf) Preunique() problem.Result[cursor.Cursor]                   { return problem.Pure[cursor.Cursor](l) }

// countryListCursor navigates a slice of Country rows, used at the
// "countries" and "countryByCode" (pre-Unique) root positions.
type countryListCursor struct {
	recs []*Country
	tpe  *gqltype.TypeRef
	env  cursor.Env
}

func newCountryListCursor(recs []*Country, elemTpe *gqltype.TypeRef) countryListCursor {
	return countryListCursor{recs: recs, tpe: elemTpe}
}

func (c countryListCursor) Type() *gqltype.TypeRef { return gqltype.List(c.tpe) }
func (c countryListCursor) IsLeaf() bool           { return false }
func (c countryListCursor) IsNullable() bool       { return false }
func (c countryListCursor) IsList() bool           { return true }

func (c countryListCursor) AsLeaf() problem.Result[cursor.Json] {
	return problem.Failf[cursor.Json]("list of Country is not a leaf value")
}
func (c countryListCursor) AsNullable() problem.Result[cursor.Option] {
	return problem.Pure(cursor.Some(cursor.Cursor(c)))
}
func (c countryListCursor) AsList() problem.Result[[]cursor.Cursor] {
	out := make([]cursor.Cursor, len(c.recs))
	for i, r := range c.recs {
		out[i] = newCountryCursor(r, c.tpe).WithEnv(c.env)
	}
	return problem.Pure(out)
}
func (c countryListCursor) Field(name string, alias string) problem.Result[cursor.Cursor] {
	return problem.Failf[cursor.Cursor]("list of Country has no field '%s'", name)
}
func (c countryListCursor) NarrowsTo(typeName string) bool { return false }
func (c countryListCursor) Narrow(typeName string) problem.Result[cursor.Cursor] {
	return problem.Failf[cursor.Cursor]("Cannot narrow list of Country to %s", typeName)
}
func (c countryListCursor) ListPath(path []string) problem.Result[[]cursor.Cursor] {
	return problem.Failf[[]cursor.Cursor]("predicate path evaluation expects a single element, got a list")
}
func (c countryListCursor) FlatListPath(path []string) problem.Result[[]cursor.Cursor] {
	elems, _ := c.AsList().Get()
	var out []cursor.Cursor
	for _, e := range elems {
		r, ok := e.(countryCursor).ListPath(path).Get()
		if ok {
			out = append(out, r...)
		}
	}
	return problem.Pure(out)
}
func (c countryListCursor) WithEnv(env cursor.Env) cursor.Cursor { c.env = env; return c }
func (c countryListCursor) FullEnv() cursor.Env                  { return c.env }
func (c countryListCursor) Preunique() problem.Result[cursor.Cursor] {
	return problem.Pure[cursor.Cursor](c)
}
