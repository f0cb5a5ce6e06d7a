// Package predicate implements the reified term/predicate algebra the
// evaluator uses to filter lists (§4.A): comparisons, boolean connectives,
// string/numeric operations and typed path accessors over a Cursor. Terms
// are closed algebraic values, not closures, so a backend can inspect and
// lower them instead of only evaluating them in memory.
package predicate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hanpama/mosaicql/internal/cursor"
	"github.com/hanpama/mosaicql/internal/problem"
)

// Term is a reified expression that yields a value (or boolean, for the
// Predicate convention) given a Cursor. Terms are immutable and inspectable:
// Children exposes the subterms for generic traversals, Render prints a
// debug s-expression (logging/tracing only, never evaluation).
type Term interface {
	Eval(c cursor.Cursor) problem.Result[any]
	Children() []Term
	Render() string
}

// Predicate is exactly Term[Boolean]: evaluated with EvalBool.
type Predicate = Term

// EvalBool evaluates t as a bool; a non-bool result reads as false.
func EvalBool(t Term, c cursor.Cursor) problem.Result[bool] {
	return problem.Map(t.Eval(c), func(v any) bool {
		b, _ := v.(bool)
		return b
	})
}

// Fold performs a generic bottom-up-free traversal of t and its children.
func Fold[A any](t Term, acc A, f func(A, Term) A) A {
	acc = f(acc, t)
	for _, c := range t.Children() {
		acc = Fold(c, acc, f)
	}
	return acc
}

// Exists reports whether pred holds for t or any of its descendants.
func Exists(t Term, pred func(Term) bool) bool {
	if pred(t) {
		return true
	}
	for _, c := range t.Children() {
		if Exists(c, pred) {
			return true
		}
	}
	return false
}

// Forall reports whether pred holds for t and all of its descendants.
func Forall(t Term, pred func(Term) bool) bool {
	if !pred(t) {
		return false
	}
	for _, c := range t.Children() {
		if !Forall(c, pred) {
			return false
		}
	}
	return true
}

func noChildren() []Term { return nil }

// ---- leaves ----

type Const struct{ Value any }

func (c Const) Eval(cursor.Cursor) problem.Result[any] { return problem.Pure[any](c.Value) }
func (c Const) Children() []Term                       { return noChildren() }
func (c Const) Render() string                          { return fmt.Sprintf("%v", c.Value) }

// UniquePath evaluates to the single scalar reached by cursor.ListPath(Path);
// it is an error if zero or more than one leaf is reached.
type UniquePath struct{ Path []string }

func (t UniquePath) Eval(c cursor.Cursor) problem.Result[any] {
	return problem.FlatMap(c.ListPath(t.Path), func(cs []cursor.Cursor) problem.Result[any] {
		if len(cs) != 1 {
			return problem.Failf[any]("Expected exactly one element for path %s", strings.Join(t.Path, "."))
		}
		return cs[0].AsLeaf()
	})
}
func (t UniquePath) Children() []Term { return noChildren() }
func (t UniquePath) Render() string   { return "path:" + strings.Join(t.Path, ".") }

// ListPath evaluates to the list of scalars at cursor.FlatListPath(Path).
type ListPath struct{ Path []string }

func (t ListPath) Eval(c cursor.Cursor) problem.Result[any] {
	return problem.FlatMap(c.FlatListPath(t.Path), func(cs []cursor.Cursor) problem.Result[any] {
		out := make([]any, 0, len(cs))
		var probs problem.Chain
		for _, leaf := range cs {
			r := leaf.AsLeaf()
			v, ok := r.Get()
			probs = append(probs, r.Problems()...)
			if !ok {
				return problem.Fail[any](probs...)
			}
			out = append(out, v)
		}
		return problem.Both[any](out, probs)
	})
}
func (t ListPath) Children() []Term { return noChildren() }
func (t ListPath) Render() string   { return "paths:" + strings.Join(t.Path, ".") }

// ---- boolean constants and connectives ----

type boolConst bool

func (b boolConst) Eval(cursor.Cursor) problem.Result[any] { return problem.Pure[any](bool(b)) }
func (b boolConst) Children() []Term                       { return noChildren() }
func (b boolConst) Render() string {
	if bool(b) {
		return "true"
	}
	return "false"
}

var (
	True  Term = boolConst(true)
	False Term = boolConst(false)
)

func isTrue(t Term) bool  { b, ok := t.(boolConst); return ok && bool(b) }
func isFalse(t Term) bool { b, ok := t.(boolConst); return ok && !bool(b) }

type And struct{ X, Y Term }

func (a And) Eval(c cursor.Cursor) problem.Result[any] {
	return problem.FlatMap(EvalBool(a.X, c), func(x bool) problem.Result[any] {
		if !x {
			return problem.Pure[any](false)
		}
		return a.Y.Eval(c)
	})
}
func (a And) Children() []Term { return []Term{a.X, a.Y} }
func (a And) Render() string   { return "(and " + a.X.Render() + " " + a.Y.Render() + ")" }

type Or struct{ X, Y Term }

func (o Or) Eval(c cursor.Cursor) problem.Result[any] {
	return problem.FlatMap(EvalBool(o.X, c), func(x bool) problem.Result[any] {
		if x {
			return problem.Pure[any](true)
		}
		return o.Y.Eval(c)
	})
}
func (o Or) Children() []Term { return []Term{o.X, o.Y} }
func (o Or) Render() string   { return "(or " + o.X.Render() + " " + o.Y.Render() + ")" }

type Not struct{ X Term }

func (n Not) Eval(c cursor.Cursor) problem.Result[any] {
	return problem.Map(EvalBool(n.X, c), func(x bool) any { return !x })
}
func (n Not) Children() []Term { return []Term{n.X} }
func (n Not) Render() string   { return "(not " + n.X.Render() + ")" }

// And3 folds a list of predicates with absorbing/identity simplification
// applied at construction: And3([]) == True; any False collapses the whole
// conjunction to False; a single term is returned unwrapped.
func And3(terms []Term) Term {
	kept := make([]Term, 0, len(terms))
	for _, t := range terms {
		if isFalse(t) {
			return False
		}
		if isTrue(t) {
			continue
		}
		kept = append(kept, t)
	}
	switch len(kept) {
	case 0:
		return True
	case 1:
		return kept[0]
	default:
		acc := kept[0]
		for _, t := range kept[1:] {
			acc = And{X: acc, Y: t}
		}
		return acc
	}
}

// Or3 is Or's analogue of And3: Or3([]) == False; any True collapses the
// whole disjunction to True.
func Or3(terms []Term) Term {
	kept := make([]Term, 0, len(terms))
	for _, t := range terms {
		if isTrue(t) {
			return True
		}
		if isFalse(t) {
			continue
		}
		kept = append(kept, t)
	}
	switch len(kept) {
	case 0:
		return False
	case 1:
		return kept[0]
	default:
		acc := kept[0]
		for _, t := range kept[1:] {
			acc = Or{X: acc, Y: t}
		}
		return acc
	}
}

// ---- comparisons ----

type cmpOp int

const (
	cmpEql cmpOp = iota
	cmpNEql
	cmpLt
	cmpLtEql
	cmpGt
	cmpGtEql
)

// Eql, NEql, Lt, LtEql, Gt, GtEql each carry their comparison witness via a
// shared internal comparison node; the exported constructors fix the op.
type comparison struct {
	Op   cmpOp
	X, Y Term
}

func (c comparison) Children() []Term { return []Term{c.X, c.Y} }
func (c comparison) Render() string {
	names := map[cmpOp]string{cmpEql: "=", cmpNEql: "!=", cmpLt: "<", cmpLtEql: "<=", cmpGt: ">", cmpGtEql: ">="}
	return fmt.Sprintf("(%s %s %s)", names[c.Op], c.X.Render(), c.Y.Render())
}

func (c comparison) Eval(cur cursor.Cursor) problem.Result[any] {
	return problem.FlatMap(c.X.Eval(cur), func(x any) problem.Result[any] {
		return problem.FlatMap(c.Y.Eval(cur), func(y any) problem.Result[any] {
			if c.Op == cmpEql || c.Op == cmpNEql {
				eq := valuesEqual(x, y)
				if c.Op == cmpNEql {
					eq = !eq
				}
				return problem.Pure[any](eq)
			}
			ord, ok := compareOrdered(x, y)
			if !ok {
				return problem.Failf[any]("cannot order values %v and %v", x, y)
			}
			var result bool
			switch c.Op {
			case cmpLt:
				result = ord < 0
			case cmpLtEql:
				result = ord <= 0
			case cmpGt:
				result = ord > 0
			case cmpGtEql:
				result = ord >= 0
			}
			return problem.Pure[any](result)
		})
	})
}

func Eql(x, y Term) Term   { return comparison{Op: cmpEql, X: x, Y: y} }
func NEql(x, y Term) Term  { return comparison{Op: cmpNEql, X: x, Y: y} }
func Lt(x, y Term) Term    { return comparison{Op: cmpLt, X: x, Y: y} }
func LtEql(x, y Term) Term { return comparison{Op: cmpLtEql, X: x, Y: y} }
func Gt(x, y Term) Term    { return comparison{Op: cmpGt, X: x, Y: y} }
func GtEql(x, y Term) Term { return comparison{Op: cmpGtEql, X: x, Y: y} }

// EqlTerm reports whether t is an Eql comparison, returning its operands.
func EqlTerm(t Term) (x, y Term, ok bool) {
	c, isCmp := t.(comparison)
	if !isCmp || c.Op != cmpEql {
		return nil, nil, false
	}
	return c.X, c.Y, true
}

// Contains reports whether elem occurs in the list produced by evaluating
// list (expected to yield []any).
type Contains struct{ List, Elem Term }

func (c Contains) Eval(cur cursor.Cursor) problem.Result[any] {
	return problem.FlatMap(c.List.Eval(cur), func(lv any) problem.Result[any] {
		return problem.FlatMap(c.Elem.Eval(cur), func(ev any) problem.Result[any] {
			items, _ := lv.([]any)
			for _, it := range items {
				if valuesEqual(it, ev) {
					return problem.Pure[any](true)
				}
			}
			return problem.Pure[any](false)
		})
	})
}
func (c Contains) Children() []Term { return []Term{c.List, c.Elem} }
func (c Contains) Render() string   { return "(contains " + c.List.Render() + " " + c.Elem.Render() + ")" }

// In tests term against a fixed set of constant values.
type In struct {
	Term   Term
	Values []any
}

func (in In) Eval(cur cursor.Cursor) problem.Result[any] {
	return problem.Map(in.Term.Eval(cur), func(v any) any {
		for _, want := range in.Values {
			if valuesEqual(v, want) {
				return true
			}
		}
		return false
	})
}
func (in In) Children() []Term { return []Term{in.Term} }
func (in In) Render() string   { return fmt.Sprintf("(in %s %v)", in.Term.Render(), in.Values) }

// FromEqls recognizes a list of equalities path = c1, path = c2, ... sharing
// an identical left-hand term and constant right-hand sides, rewriting them
// to a single In. Returns (In, true) on success.
func FromEqls(eqls []Term) (Term, bool) {
	if len(eqls) == 0 {
		return nil, false
	}
	var left Term
	values := make([]any, 0, len(eqls))
	for _, t := range eqls {
		x, y, ok := EqlTerm(t)
		if !ok {
			return nil, false
		}
		c, ok := y.(Const)
		if !ok {
			return nil, false
		}
		if left == nil {
			left = x
		} else if left.Render() != x.Render() {
			return nil, false
		}
		values = append(values, c.Value)
	}
	return In{Term: left, Values: values}, true
}

// IsNull tests emptiness of an optional term: Eval yields Want == (the
// evaluated term is null).
type IsNull struct {
	Term Term
	Want bool
}

func (n IsNull) Eval(cur cursor.Cursor) problem.Result[any] {
	return problem.Map(n.Term.Eval(cur), func(v any) any { return (v == nil) == n.Want })
}
func (n IsNull) Children() []Term { return []Term{n.Term} }
func (n IsNull) Render() string   { return fmt.Sprintf("(isnull %s %v)", n.Term.Render(), n.Want) }

// ---- string operations ----

type Matches struct {
	Term  Term
	Regex string
}

func (m Matches) Eval(cur cursor.Cursor) problem.Result[any] {
	return problem.FlatMap(m.Term.Eval(cur), func(v any) problem.Result[any] {
		s, _ := v.(string)
		re, err := regexp.Compile(m.Regex)
		if err != nil {
			return problem.Failf[any]("invalid regex %q: %v", m.Regex, err)
		}
		return problem.Pure[any](re.MatchString(s))
	})
}
func (m Matches) Children() []Term { return []Term{m.Term} }
func (m Matches) Render() string   { return fmt.Sprintf("(matches %s %q)", m.Term.Render(), m.Regex) }

type StartsWith struct {
	Term   Term
	Prefix string
}

func (s StartsWith) Eval(cur cursor.Cursor) problem.Result[any] {
	return problem.Map(s.Term.Eval(cur), func(v any) any {
		str, _ := v.(string)
		return strings.HasPrefix(str, s.Prefix)
	})
}
func (s StartsWith) Children() []Term { return []Term{s.Term} }
func (s StartsWith) Render() string   { return fmt.Sprintf("(starts-with %s %q)", s.Term.Render(), s.Prefix) }

type ToUpperCase struct{ Term Term }

func (t ToUpperCase) Eval(cur cursor.Cursor) problem.Result[any] {
	return problem.Map(t.Term.Eval(cur), func(v any) any {
		s, _ := v.(string)
		return strings.ToUpper(s)
	})
}
func (t ToUpperCase) Children() []Term { return []Term{t.Term} }
func (t ToUpperCase) Render() string   { return "(upper " + t.Term.Render() + ")" }

type ToLowerCase struct{ Term Term }

func (t ToLowerCase) Eval(cur cursor.Cursor) problem.Result[any] {
	return problem.Map(t.Term.Eval(cur), func(v any) any {
		s, _ := v.(string)
		return strings.ToLower(s)
	})
}
func (t ToLowerCase) Children() []Term { return []Term{t.Term} }
func (t ToLowerCase) Render() string   { return "(lower " + t.Term.Render() + ")" }

// ---- bitwise over integer terms ----

type bitOp int

const (
	bitAnd bitOp = iota
	bitOr
	bitXor
)

type bitBinary struct {
	Op   bitOp
	X, Y Term
}

func (b bitBinary) Eval(cur cursor.Cursor) problem.Result[any] {
	return problem.FlatMap(b.X.Eval(cur), func(x any) problem.Result[any] {
		return problem.FlatMap(b.Y.Eval(cur), func(y any) problem.Result[any] {
			xi, ok1 := asInt64(x)
			yi, ok2 := asInt64(y)
			if !ok1 || !ok2 {
				return problem.Failf[any]("bitwise operation requires integer operands")
			}
			var r int64
			switch b.Op {
			case bitAnd:
				r = xi & yi
			case bitOr:
				r = xi | yi
			case bitXor:
				r = xi ^ yi
			}
			return problem.Pure[any](r)
		})
	})
}
func (b bitBinary) Children() []Term { return []Term{b.X, b.Y} }
func (b bitBinary) Render() string {
	names := map[bitOp]string{bitAnd: "band", bitOr: "bor", bitXor: "bxor"}
	return fmt.Sprintf("(%s %s %s)", names[b.Op], b.X.Render(), b.Y.Render())
}

func AndB(x, y Term) Term { return bitBinary{Op: bitAnd, X: x, Y: y} }
func OrB(x, y Term) Term  { return bitBinary{Op: bitOr, X: x, Y: y} }
func XorB(x, y Term) Term { return bitBinary{Op: bitXor, X: x, Y: y} }

type NotB struct{ X Term }

func (n NotB) Eval(cur cursor.Cursor) problem.Result[any] {
	return problem.FlatMap(n.X.Eval(cur), func(x any) problem.Result[any] {
		xi, ok := asInt64(x)
		if !ok {
			return problem.Failf[any]("bitwise not requires an integer operand")
		}
		return problem.Pure[any](^xi)
	})
}
func (n NotB) Children() []Term { return []Term{n.X} }
func (n NotB) Render() string   { return "(bnot " + n.X.Render() + ")" }

// ---- value helpers ----

func valuesEqual(a, b any) bool {
	if af, aok := asFloat64(a); aok {
		if bf, bok := asFloat64(b); bok {
			return af == bf
		}
	}
	return a == b
}

// compareOrdered returns -1/0/1 for a<b/a==b/a>b, and false if the values
// are not comparable (differing kinds, neither numeric nor both strings).
func compareOrdered(a, b any) (int, bool) {
	if af, aok := asFloat64(a); aok {
		if bf, bok := asFloat64(b); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
