package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/eventbus"
	"github.com/hanpama/mosaicql/internal/events"
	"github.com/hanpama/mosaicql/internal/problem"
	"github.com/hanpama/mosaicql/internal/qengine"
)

// Complete resolves a single ProtoJson to a concrete Json, folding in probs
// accumulated before completion started.
func Complete(ctx context.Context, pj qengine.ProtoJson, probs problem.Chain) (cursor.Json, problem.Chain) {
	if c, ok := pj.(qengine.Concrete); ok {
		return c.Value, probs
	}
	results, more := CompleteAll(ctx, []qengine.ProtoJson{pj})
	return results[0], append(probs, more...)
}

// CompleteAll implements the gather/bucket/invoke/recurse/scatter algorithm
// of §4.E, driving every reachable Staged placeholder in pjs to a concrete
// Json and returning results aligned positionally to pjs.
func CompleteAll(ctx context.Context, pjs []qengine.ProtoJson) ([]cursor.Json, problem.Chain) {
	// Gather: reference-identity worklist of every Staged reachable from pjs.
	seen := map[*qengine.Staged]bool{}
	var order []*qengine.Staged
	for _, pj := range pjs {
		gatherStaged(pj, seen, &order)
	}

	if len(order) == 0 {
		results := make([]cursor.Json, len(pjs))
		for i, pj := range pjs {
			results[i] = scatter(pj, nil)
		}
		return results, nil
	}

	// Bucket: group placeholders by owning interpreter, preserving per-bucket
	// order so returned ProtoJsons can be matched back positionally.
	var interpreters []qengine.Interpreter
	buckets := map[qengine.Interpreter][]*qengine.Staged{}
	for _, s := range order {
		if _, ok := buckets[s.Interpreter]; !ok {
			interpreters = append(interpreters, s.Interpreter)
		}
		buckets[s.Interpreter] = append(buckets[s.Interpreter], s)
	}

	var probs problem.Chain
	var nextLevel []qengine.ProtoJson
	var placeholderOf []*qengine.Staged

	for _, interp := range interpreters {
		placeholders := buckets[interp]
		reqs := make([]qengine.RootRequest, len(placeholders))
		for i, p := range placeholders {
			reqs[i] = qengine.RootRequest{Query: p.Query, RootType: p.RootType, Env: p.Env}
		}
		start := time.Now()
		invokeProbs, results := interp.RunRootValues(ctx, reqs)
		eventbus.Publish(ctx, events.CompletionStage{
			Interpreter: fmt.Sprintf("%T", interp),
			BatchSize:   len(placeholders),
			Duration:    time.Since(start),
		})
		probs = append(probs, invokeProbs...)
		for i, p := range placeholders {
			nextLevel = append(nextLevel, results[i])
			placeholderOf = append(placeholderOf, p)
		}
	}

	// Recurse: the batch's own results may themselves contain Staged nodes.
	concreteResults, recProbs := CompleteAll(ctx, nextLevel)
	probs = append(probs, recProbs...)

	// Build substitution map; unresolved placeholders (should not occur) map
	// to Null per §4.E step 5.
	subst := make(map[*qengine.Staged]cursor.Json, len(placeholderOf))
	for i, p := range placeholderOf {
		subst[p] = concreteResults[i]
	}

	results := make([]cursor.Json, len(pjs))
	for i, pj := range pjs {
		results[i] = scatter(pj, subst)
	}
	return results, probs
}

func gatherStaged(pj qengine.ProtoJson, seen map[*qengine.Staged]bool, order *[]*qengine.Staged) {
	switch v := pj.(type) {
	case qengine.Concrete:
		return
	case *qengine.Staged:
		if !seen[v] {
			seen[v] = true
			*order = append(*order, v)
		}
	case qengine.PObject:
		for _, f := range v.Fields {
			gatherStaged(f.Value, seen, order)
		}
	case qengine.PArray:
		for _, e := range v.Elems {
			gatherStaged(e, seen, order)
		}
	case qengine.PSelect:
		gatherStaged(v.Inner, seen, order)
	}
}

// scatter substitutes every Staged placeholder in pj with its resolved Json
// from subst, applying the PObject single-field-inline collapse rule.
func scatter(pj qengine.ProtoJson, subst map[*qengine.Staged]cursor.Json) cursor.Json {
	switch v := pj.(type) {
	case qengine.Concrete:
		return v.Value
	case *qengine.Staged:
		return subst[v]
	case qengine.PObject:
		out := qengine.OrderedObject{Values: make(map[string]any, len(v.Fields))}
		set := func(name string, val any) {
			if _, dup := out.Values[name]; !dup {
				out.Keys = append(out.Keys, name)
			}
			out.Values[name] = val
		}
		for _, f := range v.Fields {
			if staged, ok := f.Value.(*qengine.Staged); ok {
				resolved := subst[staged]
				if keys, get, ok := qengine.AsObject(resolved); ok && len(keys) == 1 {
					only, _ := get(keys[0])
					set(f.Name, only)
					continue
				}
				set(f.Name, resolved)
				continue
			}
			set(f.Name, scatter(f.Value, subst))
		}
		return out
	case qengine.PArray:
		out := make([]any, len(v.Elems))
		for i, e := range v.Elems {
			out[i] = scatter(e, subst)
		}
		return out
	case qengine.PSelect:
		inner := scatter(v.Inner, subst)
		_, get, ok := qengine.AsObject(inner)
		if !ok {
			return nil
		}
		val, ok := get(v.FieldName)
		if !ok {
			return nil
		}
		return val
	default:
		return nil
	}
}
