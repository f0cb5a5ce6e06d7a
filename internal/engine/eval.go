// Package engine walks an elaborated qengine.Query against a qengine.Cursor
// and produces a (possibly still-deferred) qengine.ProtoJson, then drives
// completion of any deferred subtrees into a final response. It is the
// single place that knows how to interpret the query algebra; everything
// else (predicate evaluation, cursor navigation, ProtoJson construction) is
// delegated to the packages that own those concerns.
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/predicate"
	"github.com/hanpama/mosaicql/internal/problem"
	"github.com/hanpama/mosaicql/internal/qengine"
)

// Evaluator holds the schema the evaluator dispatches against, plus the
// Interpreter that owns it — needed to stage Defer nodes under the correct
// owner (rule 7 refers to "self"). A backend constructs one Evaluator and
// delegates its Interpreter.RunRootValue evaluation to it, passing
// itself as Self. It carries no other per-request mutable state; a single
// value may be reused across requests.
type Evaluator struct {
	Schema *gqltype.Schema
	Self   qengine.Interpreter
}

// RunValue dispatches on (query, tpe.dealias) per the evaluator's field
// completion rules.
func (e *Evaluator) RunValue(ctx context.Context, q qengine.Query, tpe *gqltype.TypeRef, c cursor.Cursor) problem.Result[qengine.ProtoJson] {
	if env, ok := q.(qengine.Environment); ok {
		return e.RunValue(ctx, env.Child, tpe, c.WithEnv(env.Env))
	}

	if wrap, ok := q.(qengine.Wrap); ok {
		if _, isComponent := wrap.Child.(qengine.Component); isComponent && listElemType(tpe) != nil {
			return e.runWrappedComponentList(ctx, wrap, tpe, c)
		}
		if _, isDefer := wrap.Child.(qengine.Defer); isDefer && c.IsNullable() {
			opt := c.AsNullable()
			o, ok := opt.Get()
			if !ok {
				return problem.Fail[qengine.ProtoJson](opt.Problems()...)
			}
			if !o.Ok {
				return problem.Both[qengine.ProtoJson](qengine.Concrete{Value: nil}, opt.Problems())
			}
		}
		return problem.Map(e.RunValue(ctx, wrap.Child, tpe, c), func(inner qengine.ProtoJson) qengine.ProtoJson {
			return qengine.FromFields([]qengine.PField{{Name: wrap.FieldName, Value: inner}})
		})
	}

	// Component and Defer dispatch on the cursor as a join key, not as the
	// field's eventual value — the cursor's type routinely disagrees with
	// tpe at a bridge point (§4.C rule 6/7), so the type-compatibility
	// precondition below does not apply to them.
	if comp, ok := q.(qengine.Component); ok {
		return e.runComponent(ctx, comp, tpe, c)
	}

	if def, ok := q.(qengine.Defer); ok {
		return e.runDefer(ctx, def, c)
	}

	// Unique collapses a pre-unique list cursor into the singular tpe it
	// precedes (§4.C rule 8); the mismatch between tpe (singular) and
	// c.Type() (list) here is exactly what Unique exists to resolve, so the
	// precondition below does not apply to it either.
	if uniq, ok := q.(qengine.Unique); ok {
		pre := c.Preunique()
		v, ok2 := pre.Get()
		if !ok2 {
			return problem.Fail[qengine.ProtoJson](pre.Problems()...)
		}
		listRes := v.AsList()
		elems, ok3 := listRes.Get()
		if !ok3 {
			return problem.Fail[qengine.ProtoJson](listRes.Problems()...)
		}
		return e.RunList(ctx, uniq.Child, tpe.NonNullOf(), elems, true, tpe.IsNullable())
	}

	if !gqltype.CursorCompatible(e.Schema, tpe, c.Type()) {
		return problem.Failf[qengine.ProtoJson]("Mismatched query and cursor type in runValue")
	}

	if elemT := listElemType(tpe); elemT != nil {
		listRes := c.AsList()
		elems, ok := listRes.Get()
		if !ok {
			return problem.Fail[qengine.ProtoJson](listRes.Problems()...)
		}
		return e.RunList(ctx, q, elemT, elems, false, false)
	}

	if tpe.IsNullable() {
		opt := c.AsNullable()
		o, ok := opt.Get()
		if !ok {
			return problem.Fail[qengine.ProtoJson](opt.Problems()...)
		}
		if !o.Ok {
			return problem.Both[qengine.ProtoJson](qengine.Concrete{Value: nil}, opt.Problems())
		}
		c = o.Cursor
	}

	named := tpe.Dealias(e.Schema).NamedName()
	ty := e.Schema.Types[named]
	if ty != nil && ty.IsLeaf() {
		leaf := c.AsLeaf()
		return problem.Map(leaf, func(v cursor.Json) qengine.ProtoJson { return qengine.FromJSON(v) })
	}
	if ty != nil && (ty.Kind == gqltype.TypeKindObject || ty.Kind == gqltype.TypeKindInterface || ty.Kind == gqltype.TypeKindUnion) {
		fieldsRes := e.RunFields(ctx, q, tpe, c)
		return problem.Map(fieldsRes, func(fields []qengine.PField) qengine.ProtoJson { return qengine.FromFields(fields) })
	}
	return problem.Failf[qengine.ProtoJson]("Stuck at type %s for query", named)
}

func listElemType(tpe *gqltype.TypeRef) *gqltype.TypeRef {
	u := tpe
	if u.IsNonNull() {
		u = u.OfType
	}
	if u.IsList() {
		return u.OfType
	}
	return nil
}

func (e *Evaluator) runWrappedComponentList(ctx context.Context, wrap qengine.Wrap, tpe *gqltype.TypeRef, c cursor.Cursor) problem.Result[qengine.ProtoJson] {
	elemT := listElemType(tpe)
	listRes := c.AsList()
	elems, ok := listRes.Get()
	if !ok {
		return problem.Fail[qengine.ProtoJson](listRes.Problems()...)
	}
	out := make([]qengine.ProtoJson, 0, len(elems))
	var probs problem.Chain
	for _, elem := range elems {
		r := e.RunValue(ctx, qengine.Wrap{FieldName: wrap.FieldName, Child: wrap.Child}, elemT, elem)
		v, ok := r.Get()
		probs = append(probs, r.Problems()...)
		if !ok {
			return problem.Fail[qengine.ProtoJson](probs...)
		}
		out = append(out, v)
	}
	return problem.Both[qengine.ProtoJson](qengine.FromValues(out), probs)
}

// runComponent implements rule 6: invoke the join, stage (or split) onto the
// other interpreter.
func (e *Evaluator) runComponent(ctx context.Context, comp qengine.Component, fieldTpe *gqltype.TypeRef, c cursor.Cursor) problem.Result[qengine.ProtoJson] {
	prs, ok := comp.Child.(qengine.PossiblyRenamedSelect)
	if !ok {
		return problem.Failf[qengine.ProtoJson]("Bad root query")
	}
	joined := comp.Join(c, prs.Inner)
	jq, ok := joined.Get()
	if !ok {
		return problem.Fail[qengine.ProtoJson](joined.Problems()...)
	}
	if group, isGroup := jq.(qengine.Group); isGroup {
		out := make([]qengine.ProtoJson, 0, len(group.Children))
		for _, cont := range group.Children {
			rootName, has := qengine.RootName(cont)
			if !has {
				return problem.Failf[qengine.ProtoJson]("Join continuation has unexpected shape")
			}
			staged := qengine.NewStaged(comp.Interpreter, cont, fieldTpe, c.FullEnv())
			out = append(out, qengine.PSelect{Inner: staged, FieldName: rootName})
		}
		return problem.Both[qengine.ProtoJson](qengine.FromValues(out), joined.Problems())
	}
	if _, has := qengine.RootName(jq); !has {
		return problem.Failf[qengine.ProtoJson]("Join continuation has unexpected shape")
	}
	renamed := qengine.PossiblyRenamedSelect{Inner: jq, ResultName: prs.ResultName}
	staged := qengine.NewStaged(comp.Interpreter, renamed, fieldTpe, c.FullEnv())
	return problem.Both[qengine.ProtoJson](staged, joined.Problems())
}

// runDefer implements rule 7.
func (e *Evaluator) runDefer(ctx context.Context, def qengine.Defer, c cursor.Cursor) problem.Result[qengine.ProtoJson] {
	if c.IsNullable() {
		opt := c.AsNullable()
		o, ok := opt.Get()
		if !ok {
			return problem.Fail[qengine.ProtoJson](opt.Problems()...)
		}
		if !o.Ok {
			return problem.Both[qengine.ProtoJson](qengine.Concrete{Value: nil}, opt.Problems())
		}
		c = o.Cursor
	}
	joined := def.Join(c, def.Child)
	jq, ok := joined.Get()
	if !ok {
		return problem.Fail[qengine.ProtoJson](joined.Problems()...)
	}
	staged := qengine.NewStaged(e.Self, jq, def.RootType, c.FullEnv())
	return problem.Both[qengine.ProtoJson](staged, joined.Problems())
}

// RunFields evaluates an object-shaped query against tpe/c, producing the
// ordered field list a PObject is built from.
func (e *Evaluator) RunFields(ctx context.Context, q qengine.Query, tpe *gqltype.TypeRef, c cursor.Cursor) problem.Result[[]qengine.PField] {
	switch n := q.(type) {
	case qengine.Narrow:
		if !c.NarrowsTo(n.ConcreteType) {
			return problem.Pure[[]qengine.PField](nil)
		}
		narrowed := c.Narrow(n.ConcreteType)
		nc, ok := narrowed.Get()
		if !ok {
			return problem.Fail[[]qengine.PField](narrowed.Problems()...)
		}
		return e.RunFields(ctx, n.Child, tpe, nc)

	case qengine.Introspect:
		if prs, ok := n.Child.(qengine.PossiblyRenamedSelect); ok {
			if sel, ok := prs.Inner.(qengine.Select); ok && sel.FieldName == "__typename" {
				name, err := e.resolveTypename(tpe, c)
				if err != "" {
					return problem.Failf[[]qengine.PField]("%s", err)
				}
				return problem.Pure([]qengine.PField{{Name: prs.ResultName, Value: qengine.FromJSON(name)}})
			}
		}
		return problem.Failf[[]qengine.PField]("'__typename' cannot be applied to non-selectable type %s", tpe.NamedName())

	case qengine.PossiblyRenamedSelect:
		if tpe.IsNullable() {
			opt := c.AsNullable()
			o, ok := opt.Get()
			if !ok {
				return problem.Fail[[]qengine.PField](opt.Problems()...)
			}
			if !o.Ok {
				return problem.Both[[]qengine.PField]([]qengine.PField{{Name: n.ResultName, Value: qengine.Concrete{Value: nil}}}, opt.Problems())
			}
			c = o.Cursor
		}
		sel, ok := n.Inner.(qengine.Select)
		if !ok {
			return problem.Failf[[]qengine.PField]("Bad root query")
		}
		named := tpe.Dealias(e.Schema).NamedName()
		ty := e.Schema.Types[named]
		if ty == nil {
			return problem.Failf[[]qengine.PField]("Type %s has no field '%s'", named, sel.FieldName)
		}
		fieldDef := ty.FieldByName(sel.FieldName)
		if fieldDef == nil {
			return problem.Failf[[]qengine.PField]("Type %s has no field '%s'", named, sel.FieldName)
		}
		fieldRes := c.Field(sel.FieldName, n.ResultName)
		fc, ok := fieldRes.Get()
		if !ok {
			return problem.Fail[[]qengine.PField](fieldRes.Problems()...)
		}
		valRes := e.RunValue(ctx, sel.Child, fieldDef.Type, fc)
		v, ok := valRes.Get()
		probs := append(append(problem.Chain{}, fieldRes.Problems()...), valRes.Problems()...)
		if !ok {
			return problem.Fail[[]qengine.PField](probs...)
		}
		return problem.Both[[]qengine.PField]([]qengine.PField{{Name: n.ResultName, Value: v}}, probs)

	case qengine.Rename:
		if wrap, ok := n.Inner.(qengine.Wrap); ok {
			return e.RunFields(ctx, qengine.Wrap{FieldName: n.ResultName, Child: wrap.Child}, tpe, c)
		}
		if cnt, ok := n.Inner.(qengine.Count); ok {
			return e.RunFields(ctx, qengine.Count{ResultName: n.ResultName, Child: cnt.Child}, tpe, c)
		}
		return problem.Failf[[]qengine.PField]("Bad root query")

	case qengine.Wrap:
		res := e.RunValue(ctx, n.Child, tpe, c)
		return problem.Map(res, func(v qengine.ProtoJson) []qengine.PField {
			return []qengine.PField{{Name: n.FieldName, Value: v}}
		})

	case qengine.Count:
		sel, ok := n.Child.(qengine.Select)
		if !ok {
			return problem.Failf[[]qengine.PField]("Bad root query")
		}
		return e.runCount(n.ResultName, sel.FieldName, tpe, c)

	case qengine.Group:
		out := make([]qengine.PField, 0)
		var probs problem.Chain
		for _, child := range n.Children {
			r := e.RunFields(ctx, child, tpe, c)
			v, ok := r.Get()
			probs = append(probs, r.Problems()...)
			if !ok {
				return problem.Fail[[]qengine.PField](probs...)
			}
			out = append(out, v...)
		}
		return problem.Both[[]qengine.PField](out, probs)

	case qengine.Environment:
		return e.RunFields(ctx, n.Child, tpe, c.WithEnv(n.Env))

	default:
		return problem.Failf[[]qengine.PField]("Bad root query")
	}
}

func (e *Evaluator) runCount(resultName, countName string, tpe *gqltype.TypeRef, c cursor.Cursor) problem.Result[[]qengine.PField] {
	fieldRes := c.Field(countName, "")
	fc, ok := fieldRes.Get()
	if !ok {
		return problem.Fail[[]qengine.PField](fieldRes.Problems()...)
	}
	var n int
	if fc.IsNullable() {
		opt := fc.AsNullable()
		o, ok := opt.Get()
		if !ok {
			return problem.Fail[[]qengine.PField](opt.Problems()...)
		}
		if !o.Ok {
			return problem.Pure([]qengine.PField{{Name: resultName, Value: qengine.FromJSON(int64(0))}})
		}
		fc = o.Cursor
	}
	if fc.IsList() {
		listRes := fc.AsList()
		elems, ok := listRes.Get()
		if !ok {
			return problem.Fail[[]qengine.PField](listRes.Problems()...)
		}
		n = len(elems)
	} else {
		n = 1
	}
	return problem.Pure([]qengine.PField{{Name: resultName, Value: qengine.FromJSON(int64(n))}})
}

func (e *Evaluator) resolveTypename(tpe *gqltype.TypeRef, c cursor.Cursor) (string, string) {
	named := tpe.Dealias(e.Schema).NamedName()
	ty := e.Schema.Types[named]
	if ty == nil {
		return "", fmt.Sprintf("'__typename' cannot be applied to non-selectable type %s", named)
	}
	switch ty.Kind {
	case gqltype.TypeKindObject:
		return named, ""
	case gqltype.TypeKindInterface, gqltype.TypeKindUnion:
		for _, name := range e.Schema.TypeOrder {
			candidate := e.Schema.Types[name]
			if candidate == nil || candidate.Kind != gqltype.TypeKindObject {
				continue
			}
			if c.NarrowsTo(name) {
				return name, ""
			}
		}
		return "", fmt.Sprintf("'__typename' cannot be applied to non-selectable type %s", named)
	default:
		return "", fmt.Sprintf("'__typename' cannot be applied to non-selectable type %s", named)
	}
}

// RunList implements the list/unique evaluation rules: optional filter,
// order, offset, limit, then per-element evaluation.
func (e *Evaluator) RunList(ctx context.Context, q qengine.Query, tpe *gqltype.TypeRef, cs []cursor.Cursor, unique bool, nullable bool) problem.Result[qengine.ProtoJson] {
	child := q
	if fool, ok := q.(qengine.FilterOrderByOffsetLimit); ok {
		filtered, err := applyFilter(cs, fool.Pred)
		if err != nil {
			return problem.Fail[qengine.ProtoJson](*err)
		}
		if len(fool.OrderBy) > 0 {
			var err2 *problem.Problem
			filtered, err2 = sortCursors(filtered, fool.OrderBy)
			if err2 != nil {
				return problem.Fail[qengine.ProtoJson](*err2)
			}
		}
		filtered = applyOffsetLimit(filtered, fool.Offset, fool.Limit)
		cs = filtered
		child = fool.Child
	}

	out := make([]qengine.ProtoJson, 0, len(cs))
	var probs problem.Chain
	for _, c := range cs {
		if !gqltype.CursorCompatible(e.Schema, tpe, c.Type()) {
			return problem.Failf[qengine.ProtoJson]("Mismatched query and cursor type in runList")
		}
		r := e.RunValue(ctx, child, tpe, c)
		v, ok := r.Get()
		probs = append(probs, r.Problems()...)
		if !ok {
			return problem.Fail[qengine.ProtoJson](probs...)
		}
		out = append(out, v)
	}

	if !unique {
		return problem.Both[qengine.ProtoJson](qengine.FromValues(out), probs)
	}
	switch len(out) {
	case 1:
		return problem.Both[qengine.ProtoJson](out[0], probs)
	case 0:
		if nullable {
			return problem.Both[qengine.ProtoJson](qengine.Concrete{Value: nil}, probs)
		}
		return problem.Fail[qengine.ProtoJson](append(probs, problem.New("No match"))...)
	default:
		return problem.Fail[qengine.ProtoJson](append(probs, problem.New("Multiple matches"))...)
	}
}

func applyFilter(cs []cursor.Cursor, pred predicate.Predicate) ([]cursor.Cursor, *problem.Problem) {
	if pred == nil {
		return cs, nil
	}
	out := make([]cursor.Cursor, 0, len(cs))
	for _, c := range cs {
		r := predicate.EvalBool(pred, c)
		v, ok := r.Get()
		if !ok {
			p := r.Problems()[0]
			return nil, &p
		}
		if v {
			out = append(out, c)
		}
	}
	return out, nil
}

func sortCursors(cs []cursor.Cursor, orderBy []qengine.OrderTerm) ([]cursor.Cursor, *problem.Problem) {
	type keyed struct {
		c    cursor.Cursor
		keys []any
	}
	items := make([]keyed, len(cs))
	for i, c := range cs {
		keys := make([]any, len(orderBy))
		for j, ot := range orderBy {
			r := ot.Term.Eval(c)
			v, ok := r.Get()
			if !ok {
				p := r.Problems()[0]
				return nil, &p
			}
			keys[j] = v
		}
		items[i] = keyed{c: c, keys: keys}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		for k, ot := range orderBy {
			cmp := compareAny(a.keys[k], b.keys[k])
			if cmp == 0 {
				continue
			}
			if ot.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	out := make([]cursor.Cursor, len(items))
	for i, it := range items {
		out[i] = it.c
	}
	return out, nil
}

func applyOffsetLimit(cs []cursor.Cursor, offset, limit *int) []cursor.Cursor {
	start := 0
	if offset != nil {
		start = *offset
	}
	if start > len(cs) {
		start = len(cs)
	}
	cs = cs[start:]
	if limit != nil && *limit < len(cs) {
		cs = cs[:*limit]
	}
	return cs
}

// compareAny orders two order-key values: numerically for numbers, lexically
// for strings, falling back to equal for incomparable pairs (bad orderBy
// terms fail earlier, in predicate evaluation, not here).
func compareAny(a, b any) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := toFloat64(b); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case int64:
		return compareAny(float64(av), b)
	case int:
		return compareAny(float64(av), b)
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	}
	return 0
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
