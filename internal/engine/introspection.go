package engine

import (
	"context"

	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/problem"
	"github.com/hanpama/mosaicql/internal/qengine"
)

// introspectionInterpreter is the built-in Interpreter the driver routes
// Introspect root queries to. It answers __schema/__type synchronously over
// the original (non-extended) schema, but dispatches nested field
// resolution through an Evaluator bound to the introspection-extended
// schema so that __Type/__Field/... field lookups succeed.
type introspectionInterpreter struct {
	dataSchema *gqltype.Schema
	eval       *Evaluator
}

// NewIntrospectionInterpreter builds the driver's introspection backend. sch
// is the application's own (non-extended) schema.
func NewIntrospectionInterpreter(sch *gqltype.Schema) qengine.Interpreter {
	extended := gqltype.ExtendWithIntrospection(sch)
	ii := &introspectionInterpreter{dataSchema: sch}
	ii.eval = &Evaluator{Schema: extended, Self: ii}
	return ii
}

func (ii *introspectionInterpreter) RunRootValue(ctx context.Context, q qengine.Query, rootTpe *gqltype.TypeRef, env cursor.Env) problem.Result[qengine.ProtoJson] {
	introspect, ok := q.(qengine.Introspect)
	if !ok {
		return problem.Failf[qengine.ProtoJson]("Bad root query")
	}
	prs, ok := introspect.Child.(qengine.PossiblyRenamedSelect)
	if !ok {
		return problem.Failf[qengine.ProtoJson]("Bad root query")
	}
	sel, ok := prs.Inner.(qengine.Select)
	if !ok {
		return problem.Failf[qengine.ProtoJson]("Bad root query")
	}

	var rootValue any
	var fieldTpe *gqltype.TypeRef
	switch sel.FieldName {
	case "__typename":
		named := rootTpe.Dealias(ii.dataSchema).NamedName()
		return problem.Pure[qengine.ProtoJson](qengine.FromFields([]qengine.PField{{Name: prs.ResultName, Value: qengine.FromJSON(named)}}))
	case "__schema":
		rootValue = ii.dataSchema
		fieldTpe = gqltype.NonNull(gqltype.Named("__Schema"))
	case "__type":
		name, _ := sel.Args["name"].(string)
		rootValue = ii.dataSchema.Types[name]
		fieldTpe = gqltype.Named("__Type")
	default:
		return problem.Failf[qengine.ProtoJson]("Root type has no field '%s'", sel.FieldName)
	}

	rootCursor := newIntrospectionCursor(ii.eval.Schema, rootValue, fieldTpe).WithEnv(env)
	return ii.eval.RunValue(ctx, qengine.Wrap{FieldName: prs.ResultName, Child: sel.Child}, fieldTpe, rootCursor)
}

func (ii *introspectionInterpreter) RunRootValues(ctx context.Context, reqs []qengine.RootRequest) ([]problem.Problem, []qengine.ProtoJson) {
	out := make([]qengine.ProtoJson, len(reqs))
	var probs []problem.Problem
	for i, req := range reqs {
		r := ii.RunRootValue(ctx, req.Query, req.RootType, req.Env)
		v, ok := r.Get()
		probs = append(probs, r.Problems()...)
		if !ok {
			v = qengine.Concrete{Value: nil}
		}
		out[i] = v
	}
	return probs, out
}
