// Package problem implements the accumulating error/result type the
// evaluator threads throughout: a Problem is a structured, located error, and
// a Result[A] is either a Problem chain, a value, or both (a value produced
// despite recorded problems) — the "Ior" shape described in §3/§7 of the
// specification.
package problem

import (
	"fmt"
	"strings"
)

// Location is a 1-based line/column into request source text.
type Location struct {
	Line   int
	Column int
}

// Problem is a single structured error.
type Problem struct {
	Message   string
	Locations []Location
	Path      []string
}

func (p Problem) Error() string { return p.Message }

// New builds a Problem with no location/path context.
func New(format string, args ...any) Problem {
	if len(args) == 0 {
		return Problem{Message: format}
	}
	return Problem{Message: fmt.Sprintf(format, args...)}
}

// WithPath returns a copy of p annotated with the given response path.
func (p Problem) WithPath(path []string) Problem {
	p.Path = path
	return p
}

// Chain is a non-empty-by-convention slice of Problems; a nil/empty Chain
// means "no problems".
type Chain []Problem

func (c Chain) Error() string {
	msgs := make([]string, len(c))
	for i, p := range c {
		msgs[i] = p.Message
	}
	return strings.Join(msgs, "; ")
}

// Result is Either-with-accumulation: it may hold just problems, just a
// value, or both (a best-effort value alongside accumulated problems).
type Result[A any] struct {
	value    A
	hasValue bool
	problems Chain
}

// Pure wraps a value with no problems.
func Pure[A any](v A) Result[A] { return Result[A]{value: v, hasValue: true} }

// Fail produces a value-less error result.
func Fail[A any](probs ...Problem) Result[A] { return Result[A]{problems: probs} }

// Failf is a convenience wrapper around Fail + New.
func Failf[A any](format string, args ...any) Result[A] {
	return Fail[A](New(format, args...))
}

// Both produces a best-effort value alongside accumulated problems.
func Both[A any](v A, probs Chain) Result[A] {
	return Result[A]{value: v, hasValue: true, problems: probs}
}

func (r Result[A]) IsError() bool      { return !r.hasValue }
func (r Result[A]) HasProblems() bool  { return len(r.problems) > 0 }
func (r Result[A]) Problems() Chain    { return r.problems }
func (r Result[A]) Value() A           { return r.value }

// Get returns (value, ok): ok is false only for a pure error result.
func (r Result[A]) Get() (A, bool) { return r.value, r.hasValue }

// Map transforms the value of a Result, preserving accumulated problems.
func Map[A, B any](r Result[A], f func(A) B) Result[B] {
	if !r.hasValue {
		return Result[B]{problems: r.problems}
	}
	return Result[B]{value: f(r.value), hasValue: true, problems: r.problems}
}

// FlatMap sequences two Result-producing steps, accumulating problems from
// both. If r is a pure error, f is not invoked.
func FlatMap[A, B any](r Result[A], f func(A) Result[B]) Result[B] {
	if !r.hasValue {
		return Result[B]{problems: r.problems}
	}
	next := f(r.value)
	merged := append(append(Chain{}, r.problems...), next.problems...)
	if len(merged) == 0 {
		merged = nil
	}
	if !next.hasValue {
		return Result[B]{problems: merged}
	}
	return Result[B]{value: next.value, hasValue: true, problems: merged}
}
