// Package countrystore is a SQL-backed, read-mostly Mapping over
// database/sql and the pure-Go modernc.org/sqlite driver (§4.G). Cities
// join into it by country code through a Component; this package never
// imports citystore, and uses internal/engine only for its Evaluator — the
// coupling between the two stores runs through the cross-mapping Join wired
// in internal/backend.
package countrystore

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/engine"
	"github.com/hanpama/mosaicql/internal/gqltype"
	"github.com/hanpama/mosaicql/internal/problem"
	"github.com/hanpama/mosaicql/internal/qengine"
)

// Country is one row of the countries table.
type Country struct {
	Code      string
	Name      string
	Continent string
}

// Store owns the *sql.DB. Queries are issued with context per call; the
// store holds no other state, so it is safe to share across requests.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dsn and seeds it with the
// fixture countries used by the worked scenarios in §8 if the table is
// empty. dsn may be ":memory:" for an ephemeral store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS countries (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		continent TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create countries table: %w", err)
	}
	s := &Store{db: db}
	if err := s.seedIfEmpty(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) seedIfEmpty(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM countries`).Scan(&n); err != nil {
		return fmt.Errorf("count countries: %w", err)
	}
	if n > 0 {
		return nil
	}
	rows := []Country{
		{Code: "AFG", Name: "Afghanistan", Continent: "Asia"},
		{Code: "NLD", Name: "Netherlands", Continent: "Europe"},
		{Code: "USA", Name: "United States", Continent: "North America"},
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed countries: %w", err)
	}
	defer tx.Rollback()
	for _, c := range rows {
		if _, err := tx.ExecContext(ctx, `INSERT INTO countries(code, name, continent) VALUES (?, ?, ?)`, c.Code, c.Name, c.Continent); err != nil {
			return fmt.Errorf("seed countries: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) byCode(ctx context.Context, code string) (*Country, error) {
	row := s.db.QueryRowContext(ctx, `SELECT code, name, continent FROM countries WHERE code = ?`, code)
	var c Country
	if err := row.Scan(&c.Code, &c.Name, &c.Continent); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) all(ctx context.Context) ([]*Country, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name, continent FROM countries ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Country
	for rows.Next() {
		var c Country
		if err := rows.Scan(&c.Code, &c.Name, &c.Continent); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Mapping wires Store into the qengine.Mapping/Interpreter contracts.
type Mapping struct {
	Store *Store
	Eval  *engine.Evaluator
}

func New(sch *gqltype.Schema, store *Store) *Mapping {
	m := &Mapping{Store: store}
	m.Eval = &engine.Evaluator{Schema: sch, Self: m}
	return m
}

func (m *Mapping) Interpreter() qengine.Interpreter { return m }

// RootCursor resolves the "countryByCode" and "countries" root fields.
// "countryByCode" also serves as the Component target for City.country
// (§4.G) — a cross-mapping field is otherwise an ordinary root field from
// the target mapping's point of view.
func (m *Mapping) RootCursor(ctx context.Context, fieldName string, alias string, args map[string]any, child qengine.Query, env cursor.Env) problem.Result[qengine.RootCursorResult] {
	switch fieldName {
	case "countryByCode", "country":
		code, _ := args["code"].(string)
		rec, err := m.Store.byCode(ctx, code)
		if err != nil {
			return problem.Failf[qengine.RootCursorResult]("countryByCode: %s", err.Error())
		}
		var elems []*Country
		if rec != nil {
			elems = []*Country{rec}
		}
		lc := newCountryListCursor(elems, gqltype.Named("Country")).WithEnv(env)
		return problem.Pure(qengine.RootCursorResult{Query: qengine.Unique{Child: child}, Cursor: lc})

	case "countries":
		recs, err := m.Store.all(ctx)
		if err != nil {
			return problem.Failf[qengine.RootCursorResult]("countries: %s", err.Error())
		}
		lc := newCountryListCursor(recs, gqltype.Named("Country")).WithEnv(env)
		return problem.Pure(qengine.RootCursorResult{Query: child, Cursor: lc})

	default:
		return problem.Failf[qengine.RootCursorResult]("Root type has no field '%s'", fieldName)
	}
}

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
