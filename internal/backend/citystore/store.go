// Package citystore is an in-memory, mutable Mapping: cities keyed by id,
// with mutation root fields (createCity, updatePopulation) that realize the
// cross-mapping staging scenarios against countrystore (§4.G). It is
// grounded on the teacher's treatment of mutations as ordinary root fields
// (executor.Runtime never special-cases "Mutation" beyond root type
// selection) and is the simplest possible Cursor implementation in the
// corpus: one struct, no indirection through reflection or SQL.
package citystore

import (
	"context"
	"sort"
	"sync"

	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/engine"
	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/problem"
	"github.com/hanpama/mosaicql/internal/qengine"
)

// City is one record. Population is mutated in place by updatePopulation;
// the store otherwise never mutates a City it has already returned a
// cursor over, so readers never observe a half-written record.
type City struct {
	ID          int
	Name        string
	Population  int
	CountryCode string
}

// Store is the mutable backing state. All access is serialized by mu; the
// store is small enough that a single mutex beats sharding for this demo.
type Store struct {
	mu     sync.Mutex
	byID   map[int]*City
	nextID int
}

// NewStore seeds the store with the fixture cities used by the worked
// scenarios in §8.
func NewStore() *Store {
	s := &Store{byID: make(map[int]*City), nextID: 1}
	for _, c := range []City{
		{ID: 1, Name: "Kabul", Population: 1780000, CountryCode: "AFG"},
		{ID: 2, Name: "Qandahar", Population: 237500, CountryCode: "AFG"},
		{ID: 3, Name: "Amsterdam", Population: 731000, CountryCode: "NLD"},
		{ID: 4, Name: "Rotterdam", Population: 593000, CountryCode: "NLD"},
		{ID: 5, Name: "New York", Population: 8175000, CountryCode: "USA"},
	} {
		c := c
		s.byID[c.ID] = &c
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
	}
	return s
}

func (s *Store) get(id int) (*City, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	return c, ok
}

func (s *Store) all() []*City {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*City, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) updatePopulation(id int, population int) (*City, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	c.Population = population
	return c, true
}

func (s *Store) create(name, countryCode string, population int) *City {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &City{ID: s.nextID, Name: name, Population: population, CountryCode: countryCode}
	s.byID[c.ID] = c
	s.nextID++
	return c
}

// Mapping wires Store into the qengine.Mapping/Interpreter contracts. It
// implements Interpreter itself (pointer receiver, so it is comparable and
// can key the completion engine's per-interpreter bucket map, §4.E).
type Mapping struct {
	Store *Store
	Eval  *engine.Evaluator
	// CityType is the GraphQL object type name, used to type root-level
	// single-city cursors and list elements.
	CityType *gqltype.TypeRef
}

// New builds a Mapping backed by store, against sch (the full application
// schema, so field lookups inside Evaluator.RunFields succeed).
func New(sch *gqltype.Schema, store *Store) *Mapping {
	m := &Mapping{Store: store, CityType: gqltype.Named("City")}
	m.Eval = &engine.Evaluator{Schema: sch, Self: m}
	return m
}

func (m *Mapping) Interpreter() qengine.Interpreter { return m }

// RootCursor resolves the four root fields this Mapping owns.
func (m *Mapping) RootCursor(ctx context.Context, fieldName string, alias string, args map[string]any, child qengine.Query, env cursor.Env) problem.Result[qengine.RootCursorResult] {
	switch fieldName {
	case "city":
		id, ok := intArg(args, "id")
		if !ok {
			return problem.Failf[qengine.RootCursorResult]("city: missing or invalid 'id' argument")
		}
		var elems []*City
		if c, found := m.Store.get(id); found {
			elems = []*City{c}
		}
		listCursor := newCityListCursor(elems, gqltype.Named("City")).WithEnv(env)
		return problem.Pure(qengine.RootCursorResult{Query: qengine.Unique{Child: child}, Cursor: listCursor})

	case "cities":
		listCursor := newCityListCursor(m.Store.all(), gqltype.Named("City")).WithEnv(env)
		return problem.Pure(qengine.RootCursorResult{Query: child, Cursor: listCursor})

	case "createCity":
		name, _ := args["name"].(string)
		countryCode, _ := args["countryCode"].(string)
		population, _ := intArg(args, "population")
		created := m.Store.create(name, countryCode, population)
		c := newCityCursor(created, gqltype.Named("City")).WithEnv(env)
		return problem.Pure(qengine.RootCursorResult{Query: child, Cursor: c})

	case "updatePopulation":
		id, _ := intArg(args, "id")
		population, _ := intArg(args, "population")
		updated, ok := m.Store.updatePopulation(id, population)
		if !ok {
			return problem.Failf[qengine.RootCursorResult]("updatePopulation: no city with id %d", id)
		}
		c := newCityCursor(updated, gqltype.Named("City")).WithEnv(env)
		return problem.Pure(qengine.RootCursorResult{Query: child, Cursor: c})

	default:
		return problem.Failf[qengine.RootCursorResult]("Root type has no field '%s'", fieldName)
	}
}

func intArg(args map[string]any, name string) (int, bool) {
	switch v := args[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// RunRootValue evaluates a query that staged back onto this interpreter —
// the Defer continuation for createCity/updatePopulation's nested `country`
// field never lands here (that crosses into countrystore instead), but a
// City-to-City cross reference would.
func (m *Mapping) RunRootValue(ctx context.Context, q qengine.Query, rootTpe *gqltype.TypeRef, env cursor.Env) problem.Result[qengine.ProtoJson] {
	sel, ok := q.(qengine.PossiblyRenamedSelect)
	if !ok {
		return problem.Failf[qengine.ProtoJson]("Bad root query")
	}
	inner, ok := sel.Inner.(qengine.Select)
	if !ok {
		return problem.Failf[qengine.ProtoJson]("Bad root query")
	}
	rc := m.RootCursor(ctx, inner.FieldName, sel.ResultName, inner.Args, inner.Child, env)
	rcv, ok := rc.Get()
	if !ok {
		return problem.Fail[qengine.ProtoJson](rc.Problems()...)
	}
	return m.Eval.RunValue(ctx, qengine.Wrap{FieldName: sel.ResultName, Child: rcv.Query}, rootTpe, rcv.Cursor)
}

func (m *Mapping) RunRootValues(ctx context.Context, reqs []qengine.RootRequest) ([]problem.Problem, []qengine.ProtoJson) {
	out := make([]qengine.ProtoJson, len(reqs))
	var probs []problem.Problem
	for i, req := range reqs {
		r := m.RunRootValue(ctx, req.Query, req.RootType, req.Env)
		v, ok := r.Get()
		probs = append(probs, r.Problems()...)
		if !ok {
			v = qengine.Concrete{Value: nil}
		}
		out[i] = v
	}
	return probs, out
}
