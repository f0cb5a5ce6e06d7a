package engine

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/problem"
)

// introspectionCursor navigates the static __Schema/__Type/... value graph
// built from a *gqltype.Schema. Field resolution is a direct port of the
// teacher's introspection runtime field switches, just addressed at gqltype
// values instead of the teacher's own schema package.
type introspectionCursor struct {
	value any
	tpe   *gqltype.TypeRef
	sch   *gqltype.Schema
	env   cursor.Env
}

func newIntrospectionCursor(sch *gqltype.Schema, value any, tpe *gqltype.TypeRef) introspectionCursor {
	return introspectionCursor{value: value, tpe: tpe, sch: sch}
}

func (c introspectionCursor) Type() *gqltype.TypeRef { return c.tpe }
func (c introspectionCursor) IsLeaf() bool            { return c.tpe.IsLeaf(c.sch) }
func (c introspectionCursor) IsNullable() bool        { return c.tpe.IsNullable() }
func (c introspectionCursor) IsList() bool            { return c.tpe.Item() != nil }

func (c introspectionCursor) AsLeaf() problem.Result[cursor.Json] {
	return problem.Pure[cursor.Json](c.value)
}

func (c introspectionCursor) AsNullable() problem.Result[cursor.Option] {
	if isNullishValue(c.value) {
		return problem.Pure(cursor.None())
	}
	return problem.Pure(cursor.Some(c))
}

func (c introspectionCursor) AsList() problem.Result[[]cursor.Cursor] {
	elemT := c.tpe.Item()
	if elemT == nil {
		elemT = c.tpe
	}
	rv := reflect.ValueOf(c.value)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return problem.Pure[[]cursor.Cursor](nil)
	}
	out := make([]cursor.Cursor, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = newIntrospectionCursor(c.sch, rv.Index(i).Interface(), elemT).WithEnv(c.env)
	}
	return problem.Pure(out)
}

func (c introspectionCursor) Field(name string, alias string) problem.Result[cursor.Cursor] {
	named := c.tpe.Dealias(c.sch).NamedName()
	ty := c.sch.Types[named]
	if ty == nil {
		return problem.Failf[cursor.Cursor]("Type %s has no field '%s'", named, name)
	}
	fieldDef := ty.FieldByName(name)
	if fieldDef == nil {
		return problem.Failf[cursor.Cursor]("Type %s has no field '%s'", named, name)
	}
	v, ok := resolveIntrospectionField(c.sch, c.value, name)
	if !ok {
		return problem.Failf[cursor.Cursor]("Type %s has no field '%s'", named, name)
	}
	return problem.Pure[cursor.Cursor](newIntrospectionCursor(c.sch, v, fieldDef.Type).WithEnv(c.env))
}

func (c introspectionCursor) NarrowsTo(typeName string) bool {
	return c.tpe.Dealias(c.sch).NamedName() == typeName
}

func (c introspectionCursor) Narrow(typeName string) problem.Result[cursor.Cursor] {
	if !c.NarrowsTo(typeName) {
		return problem.Failf[cursor.Cursor]("Cannot narrow %s to %s", c.tpe.NamedName(), typeName)
	}
	return problem.Pure[cursor.Cursor](c)
}

func (c introspectionCursor) ListPath(path []string) problem.Result[[]cursor.Cursor] {
	return problem.Failf[[]cursor.Cursor]("predicate evaluation is not supported on introspection data")
}

func (c introspectionCursor) FlatListPath(path []string) problem.Result[[]cursor.Cursor] {
	return c.ListPath(path)
}

func (c introspectionCursor) WithEnv(env cursor.Env) cursor.Cursor {
	c.env = env
	return c
}

func (c introspectionCursor) FullEnv() cursor.Env { return c.env }

func (c introspectionCursor) Preunique() problem.Result[cursor.Cursor] {
	return problem.Pure[cursor.Cursor](c)
}

func isNullishValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// resolveIntrospectionField is a direct port of the teacher's per-source-type
// field switches (resolveSchemaField / resolveTypeField / ...), addressed at
// *gqltype.Schema/*gqltype.Type/*gqltype.TypeRef/*gqltype.Field/... values.
func resolveIntrospectionField(sch *gqltype.Schema, source any, field string) (any, bool) {
	switch src := source.(type) {
	case *gqltype.Schema:
		return resolveSchemaField(src, field)
	case *gqltype.Type:
		return resolveTypeField(sch, src, field)
	case *gqltype.TypeRef:
		return resolveTypeRefField(sch, src, field)
	case *gqltype.Field:
		return resolveFieldField(src, field)
	case *gqltype.InputValue:
		return resolveInputValueField(src, field)
	case *gqltype.EnumValue:
		return resolveEnumValueField(src, field)
	case *gqltype.Directive:
		return resolveDirectiveField(src, field)
	}
	return nil, false
}

func resolveSchemaField(sch *gqltype.Schema, field string) (any, bool) {
	switch field {
	case "types":
		return schemaTypesInOrder(sch), true
	case "queryType":
		return sch.GetQueryType(), true
	case "mutationType":
		return sch.GetMutationType(), true
	case "subscriptionType":
		return sch.GetSubscriptionType(), true
	case "directives":
		return schemaDirectivesSorted(sch), true
	case "description":
		return sch.Description, true
	}
	return nil, false
}

func schemaTypesInOrder(sch *gqltype.Schema) []*gqltype.Type {
	out := make([]*gqltype.Type, 0, len(sch.Types))
	for _, name := range sch.TypeOrder {
		if t := sch.Types[name]; t != nil {
			out = append(out, t)
		}
	}
	return out
}

func schemaDirectivesSorted(sch *gqltype.Schema) []*gqltype.Directive {
	out := make([]*gqltype.Directive, 0, len(sch.Directives))
	for _, d := range sch.Directives {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveTypeField(sch *gqltype.Schema, t *gqltype.Type, field string) (any, bool) {
	switch field {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return t.Description, true
	case "fields":
		return typeFieldsSorted(t), true
	case "interfaces":
		return typeInterfacesSorted(sch, t), true
	case "possibleTypes":
		return typePossibleTypesSorted(sch, t), true
	case "enumValues":
		return typeEnumValuesSorted(t), true
	case "inputFields":
		return typeInputFieldsSorted(t), true
	case "ofType":
		return nil, true
	}
	return nil, false
}

func typeFieldsSorted(t *gqltype.Type) []*gqltype.Field {
	if t.Kind != gqltype.TypeKindObject && t.Kind != gqltype.TypeKindInterface {
		return nil
	}
	out := append([]*gqltype.Field{}, t.Fields...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func typeInterfacesSorted(sch *gqltype.Schema, t *gqltype.Type) []*gqltype.Type {
	if t.Kind != gqltype.TypeKindObject && t.Kind != gqltype.TypeKindInterface {
		return nil
	}
	out := make([]*gqltype.Type, 0, len(t.Interfaces))
	for _, name := range t.Interfaces {
		if def := sch.Types[name]; def != nil {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func typePossibleTypesSorted(sch *gqltype.Schema, t *gqltype.Type) []*gqltype.Type {
	if t.Kind != gqltype.TypeKindInterface && t.Kind != gqltype.TypeKindUnion {
		return nil
	}
	out := make([]*gqltype.Type, 0, len(t.PossibleTypes))
	for _, name := range t.PossibleTypes {
		if def := sch.Types[name]; def != nil {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func typeEnumValuesSorted(t *gqltype.Type) []*gqltype.EnumValue {
	if t.Kind != gqltype.TypeKindEnum {
		return nil
	}
	out := append([]*gqltype.EnumValue{}, t.EnumValues...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func typeInputFieldsSorted(t *gqltype.Type) []*gqltype.InputValue {
	if t.Kind != gqltype.TypeKindInputObject {
		return nil
	}
	out := append([]*gqltype.InputValue{}, t.InputFields...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveTypeRefField(sch *gqltype.Schema, tr *gqltype.TypeRef, field string) (any, bool) {
	switch field {
	case "kind":
		return string(tr.Kind), true
	case "name":
		if tr.IsNonNull() || tr.IsList() {
			return nil, true
		}
		return tr.Named, true
	case "ofType":
		if tr.IsNonNull() || tr.IsList() {
			return tr.OfType, true
		}
		return nil, true
	default:
		if name := tr.NamedName(); name != "" {
			if def := sch.Types[name]; def != nil {
				return resolveTypeField(sch, def, field)
			}
		}
		return nil, true
	}
}

func resolveFieldField(f *gqltype.Field, field string) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return f.Description, true
	case "args":
		return append([]*gqltype.InputValue{}, f.Arguments...), true
	case "type":
		return f.Type, true
	case "isDeprecated":
		return f.IsDeprecated, true
	case "deprecationReason":
		if !f.IsDeprecated {
			return nil, true
		}
		return f.DeprecationReason, true
	}
	return nil, false
}

func resolveInputValueField(a *gqltype.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return a.Name, true
	case "description":
		return a.Description, true
	case "type":
		return a.Type, true
	case "defaultValue":
		if a.DefaultValue == nil {
			return nil, true
		}
		return fmt.Sprintf("%v", a.DefaultValue), true
	case "isDeprecated":
		return false, true
	case "deprecationReason":
		return nil, true
	}
	return nil, false
}

func resolveEnumValueField(ev *gqltype.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return ev.Description, true
	case "isDeprecated":
		return ev.IsDeprecated, true
	case "deprecationReason":
		return ev.DeprecationReason, true
	}
	return nil, false
}

func resolveDirectiveField(d *gqltype.Directive, field string) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return d.Description, true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		locs := append([]string{}, d.Locations...)
		sort.Strings(locs)
		return locs, true
	case "args":
		return append([]*gqltype.InputValue{}, d.Arguments...), true
	}
	return nil, false
}
