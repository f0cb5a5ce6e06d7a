package engine

import (
	"context"

	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/problem"
	"github.com/hanpama/mosaicql/internal/qengine"
)

// Driver owns the schema, the built-in introspection interpreter, the
// registry of root-field-name to owning Mapping, and the Evaluator used to
// run non-introspection root queries. It is the engine's single request
// entrypoint (§4.D).
type Driver struct {
	Schema        *gqltype.Schema
	Evaluator     *Evaluator
	Introspection qengine.Interpreter
	RootMappings  map[string]qengine.Mapping
}

// NewDriver builds a Driver over sch and the given root-field routing table,
// wiring up the built-in introspection interpreter and a bare Evaluator for
// root-level dispatch (root-level queries never stage a Defer of their own).
func NewDriver(sch *gqltype.Schema, rootMappings map[string]qengine.Mapping) *Driver {
	return &Driver{
		Schema:        sch,
		Evaluator:     &Evaluator{Schema: sch},
		Introspection: NewIntrospectionInterpreter(sch),
		RootMappings:  rootMappings,
	}
}

// RunRoot executes a top-level query to a single concrete Json value plus
// accumulated problems.
func (d *Driver) RunRoot(ctx context.Context, q qengine.Query, rootTpe *gqltype.TypeRef, env cursor.Env) (cursor.Json, problem.Chain) {
	pj, probs := d.runRootToProtoJSON(ctx, q, rootTpe, env)
	return Complete(ctx, pj, probs)
}

// runRootToProtoJSON implements the split/merge half of §4.D, stopping short
// of completion so tests can inspect the still-deferred tree.
func (d *Driver) runRootToProtoJSON(ctx context.Context, q qengine.Query, rootTpe *gqltype.TypeRef, env cursor.Env) (qengine.ProtoJson, problem.Chain) {
	var rootQueries []qengine.Query
	if group, ok := q.(qengine.Group); ok {
		rootQueries = group.Children
	} else {
		rootQueries = []qengine.Query{q}
	}

	isIntrospection := make([]bool, len(rootQueries))
	var introspectionQueries, regularQueries []qengine.Query
	for i, rq := range rootQueries {
		if _, ok := rq.(qengine.Introspect); ok {
			isIntrospection[i] = true
			introspectionQueries = append(introspectionQueries, rq)
		} else {
			regularQueries = append(regularQueries, rq)
		}
	}

	var probs problem.Chain
	introspectResults := make([]qengine.ProtoJson, len(introspectionQueries))
	for i, iq := range introspectionQueries {
		r := d.Introspection.RunRootValue(ctx, iq, rootTpe, env)
		v, ok := r.Get()
		probs = append(probs, r.Problems()...)
		if !ok {
			v = qengine.Concrete{Value: nil}
		}
		introspectResults[i] = v
	}

	var regularResults []qengine.ProtoJson
	if len(regularQueries) > 0 {
		reqs := make([]qengine.RootRequest, len(regularQueries))
		for i, rq := range regularQueries {
			reqs[i] = qengine.RootRequest{Query: rq, RootType: rootTpe, Env: env}
		}
		rprobs, vs := d.runRootValues(ctx, reqs)
		probs = append(probs, rprobs...)
		regularResults = vs
	}

	merged := make([]qengine.ProtoJson, 0, len(rootQueries))
	ii, ri := 0, 0
	for _, introspect := range isIntrospection {
		if introspect {
			merged = append(merged, introspectResults[ii])
			ii++
		} else {
			merged = append(merged, regularResults[ri])
			ri++
		}
	}

	reversed := make([]qengine.ProtoJson, len(merged))
	for i, v := range merged {
		reversed[len(merged)-1-i] = v
	}
	return qengine.MergeObjects(reversed), probs
}

// runRootValues is the driver's own (default) batched entrypoint for
// root-level, non-delegated queries: it calls runRootValue0 once per
// request. Backends batch within their own Interpreter.RunRootValues
// instead, which the driver only reaches once a Component/Defer has staged.
func (d *Driver) runRootValues(ctx context.Context, reqs []qengine.RootRequest) (problem.Chain, []qengine.ProtoJson) {
	var probs problem.Chain
	out := make([]qengine.ProtoJson, len(reqs))
	for i, req := range reqs {
		r := d.runRootValue0(ctx, req.Query, req.RootType, req.Env)
		v, ok := r.Get()
		probs = append(probs, r.Problems()...)
		if !ok {
			v = qengine.Concrete{Value: nil}
		}
		out[i] = v
	}
	return probs, out
}

// runRootValue0 handles the three root query shapes (§4.D).
func (d *Driver) runRootValue0(ctx context.Context, q qengine.Query, rootTpe *gqltype.TypeRef, env cursor.Env) problem.Result[qengine.ProtoJson] {
	switch n := q.(type) {
	case qengine.Environment:
		return d.runRootValue0(ctx, n.Child, rootTpe, n.Env)

	case qengine.Wrap:
		if comp, ok := n.Child.(qengine.Component); ok {
			return comp.Interpreter.RunRootValue(ctx, comp.Child, rootTpe, env)
		}
		return problem.Failf[qengine.ProtoJson]("Bad root query")

	case qengine.PossiblyRenamedSelect:
		sel, ok := n.Inner.(qengine.Select)
		if !ok {
			return problem.Failf[qengine.ProtoJson]("Bad root query")
		}
		mapping := d.RootMappings[sel.FieldName]
		if mapping == nil {
			return problem.Failf[qengine.ProtoJson]("Root type has no field '%s'", sel.FieldName)
		}
		rcRes := mapping.RootCursor(ctx, sel.FieldName, n.ResultName, sel.Args, sel.Child, env)
		rc, ok := rcRes.Get()
		if !ok {
			return problem.Fail[qengine.ProtoJson](rcRes.Problems()...)
		}
		fieldTpe := rootFieldType(d.Schema, rootTpe, sel.FieldName)
		valRes := d.Evaluator.RunValue(ctx, qengine.Wrap{FieldName: n.ResultName, Child: rc.Query}, fieldTpe, rc.Cursor)
		probs := append(problem.Chain{}, rcRes.Problems()...)
		v, ok := valRes.Get()
		probs = append(probs, valRes.Problems()...)
		if !ok {
			return problem.Fail[qengine.ProtoJson](probs...)
		}
		return problem.Both[qengine.ProtoJson](v, probs)

	default:
		return problem.Failf[qengine.ProtoJson]("Bad root query")
	}
}

func rootFieldType(sch *gqltype.Schema, rootTpe *gqltype.TypeRef, fieldName string) *gqltype.TypeRef {
	named := rootTpe.Dealias(sch).NamedName()
	ty := sch.Types[named]
	if ty == nil {
		return nil
	}
	f := ty.FieldByName(fieldName)
	if f == nil {
		return nil
	}
	return f.Type
}
