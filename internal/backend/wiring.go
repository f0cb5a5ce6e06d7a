// Package backend assembles the demo domain: the programmatic schema (City,
// Country, and their Query/Mutation root fields), the two Mappings
// (citystore, countrystore), and the elaborate.Registry entry that wires
// City.country across the mapping boundary via Component (§4.G).
package backend

import (
	"context"
	"fmt"

	"github.com/hanpama/mosaicql/internal/backend/citystore"
	"github.com/hanpama/mosaicql/internal/backend/countrystore"
	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/elaborate"
	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/problem"
	"github.com/hanpama/mosaicql/internal/qengine"
)

// Domain bundles everything cmd/mosaicql needs to run a request: the schema
// (with introspection types folded in), the elaborator, and the root-field
// routing table the Driver dispatches against.
type Domain struct {
	Schema       *gqltype.Schema
	Elaborator   *elaborate.Elaborator
	RootMappings map[string]qengine.Mapping
	Countries    *countrystore.Store
}

// Config selects the backing stores. SqliteDSN may be ":memory:" for an
// ephemeral run.
type Config struct {
	SqliteDSN string
}

// Build constructs the full demo Domain: schema, both mappings, and the
// cross-mapping wiring for City.country.
func Build(ctx context.Context, cfg Config) (*Domain, error) {
	sch := gqltype.ExtendWithIntrospection(buildSchema())

	countryDB, err := countrystore.Open(ctx, cfg.SqliteDSN)
	if err != nil {
		return nil, fmt.Errorf("open country store: %w", err)
	}
	countryMapping := countrystore.New(sch, countryDB)
	cityMapping := citystore.New(sch, citystore.NewStore())

	cross := elaborate.Registry{
		"City.country": elaborate.CrossMapping{
			Interpreter: countryMapping.Interpreter(),
			Join:        joinCityToCountry,
		},
	}

	return &Domain{
		Schema:     sch,
		Elaborator: elaborate.New(sch, cross),
		RootMappings: map[string]qengine.Mapping{
			"city":             cityMapping,
			"cities":           cityMapping,
			"createCity":       cityMapping,
			"updatePopulation": cityMapping,
			"country":          countryMapping,
			"countryByCode":    countryMapping,
			"countries":        countryMapping,
		},
		Countries: countryDB,
	}, nil
}

// joinCityToCountry reads the country code off the City.country leaf cursor
// and rewrites the child query into a countryByCode root selection carrying
// that code as an argument — the Component boundary crossed in §8 scenario
// S2/S3.
func joinCityToCountry(c cursor.Cursor, child qengine.Query) problem.Result[qengine.Query] {
	codeRes := c.AsLeaf()
	code, ok := codeRes.Get()
	if !ok {
		return problem.Fail[qengine.Query](codeRes.Problems()...)
	}
	codeStr, _ := code.(string)
	sel, ok := child.(qengine.Select)
	if !ok {
		return problem.Failf[qengine.Query]("City.country: unexpected join continuation shape")
	}
	args := map[string]any{"code": codeStr}
	// A bare Select, not PossiblyRenamedSelect: runComponent wraps whatever
	// Join returns in its own PossiblyRenamedSelect carrying the original
	// alias, so the RootName this produces ("countryByCode") is allowed to
	// differ from the result key the caller ultimately sees ("country").
	return problem.Pure[qengine.Query](qengine.Select{FieldName: "countryByCode", Args: args, Child: sel.Child})
}

// buildSchema declares the demo Query/Mutation root, City, and Country
// types programmatically (§4.F — this front end never parses SDL text).
func buildSchema() *gqltype.Schema {
	idType := gqltype.NonNull(gqltype.Named("ID"))
	stringType := gqltype.NonNull(gqltype.Named("String"))
	intType := gqltype.NonNull(gqltype.Named("Int"))

	cityType := &gqltype.Type{
		Name: "City",
		Kind: gqltype.TypeKindObject,
		Fields: []*gqltype.Field{
			{Name: "id", Type: idType},
			{Name: "name", Type: stringType},
			{Name: "population", Type: intType},
			{Name: "countryCode", Type: stringType},
			{Name: "country", Type: gqltype.Named("Country")},
		},
	}

	countryType := &gqltype.Type{
		Name: "Country",
		Kind: gqltype.TypeKindObject,
		Fields: []*gqltype.Field{
			{Name: "code", Type: idType},
			{Name: "name", Type: stringType},
			{Name: "continent", Type: stringType},
		},
	}

	cityFilterArgs := func() []*gqltype.InputValue {
		return []*gqltype.InputValue{
			{Name: "filter", Type: gqltype.Named("CityFilter")},
			{Name: "orderBy", Type: gqltype.List(gqltype.Named("String"))},
			{Name: "offset", Type: gqltype.Named("Int")},
			{Name: "limit", Type: gqltype.Named("Int")},
		}
	}

	queryType := &gqltype.Type{
		Name: "Query",
		Kind: gqltype.TypeKindObject,
		Fields: []*gqltype.Field{
			{Name: "city", Type: gqltype.Named("City"), Arguments: []*gqltype.InputValue{
				{Name: "id", Type: idType},
			}},
			{Name: "cities", Type: gqltype.NonNull(gqltype.List(gqltype.NonNull(gqltype.Named("City")))), Arguments: cityFilterArgs()},
			{Name: "countryByCode", Type: gqltype.Named("Country"), Arguments: []*gqltype.InputValue{
				{Name: "code", Type: stringType},
			}},
			{Name: "countries", Type: gqltype.NonNull(gqltype.List(gqltype.NonNull(gqltype.Named("Country"))))},
		},
	}

	mutationType := &gqltype.Type{
		Name: "Mutation",
		Kind: gqltype.TypeKindObject,
		Fields: []*gqltype.Field{
			{Name: "createCity", Type: gqltype.NonNull(gqltype.Named("City")), Arguments: []*gqltype.InputValue{
				{Name: "name", Type: stringType},
				{Name: "countryCode", Type: stringType},
				{Name: "population", Type: intType},
			}},
			{Name: "updatePopulation", Type: gqltype.NonNull(gqltype.Named("City")), Arguments: []*gqltype.InputValue{
				{Name: "id", Type: idType},
				{Name: "population", Type: intType},
			}},
		},
	}

	cityFilterInput := &gqltype.Type{
		Name: "CityFilter",
		Kind: gqltype.TypeKindInputObject,
		InputFields: []*gqltype.InputValue{
			{Name: "name_eq", Type: gqltype.Named("String")},
			{Name: "population_gt", Type: gqltype.Named("Int")},
			{Name: "population_gte", Type: gqltype.Named("Int")},
			{Name: "population_lt", Type: gqltype.Named("Int")},
			{Name: "population_lte", Type: gqltype.Named("Int")},
			{Name: "countryCode_eq", Type: gqltype.Named("String")},
		},
	}

	idScalar := &gqltype.Type{Name: "ID", Kind: gqltype.TypeKindScalar}
	stringScalar := &gqltype.Type{Name: "String", Kind: gqltype.TypeKindScalar}
	intScalar := &gqltype.Type{Name: "Int", Kind: gqltype.TypeKindScalar}
	boolScalar := &gqltype.Type{Name: "Boolean", Kind: gqltype.TypeKindScalar}
	floatScalar := &gqltype.Type{Name: "Float", Kind: gqltype.TypeKindScalar}

	types := []*gqltype.Type{
		queryType, mutationType, cityType, countryType, cityFilterInput,
		idScalar, stringScalar, intScalar, boolScalar, floatScalar,
	}

	sch := &gqltype.Schema{
		QueryType:    "Query",
		MutationType: "Mutation",
		Types:        make(map[string]*gqltype.Type, len(types)),
	}
	for _, t := range types {
		sch.Types[t.Name] = t
		sch.TypeOrder = append(sch.TypeOrder, t.Name)
	}
	return sch
}
