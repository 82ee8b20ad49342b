package upsert

import (
	"fmt"
	"strings"
)

// Conflict describes how a key collision is resolved under PolicyUpdate.
//
// Target defaults to the table key. Set defaults to every batch column outside
// the target, each assigned its incoming value. Where, when present, guards the update.
type Conflict struct {
	Target []string
	Set    []Assignment
	Where  Predicate
}

// Assignment sets Column to the value of Value on conflict
type Assignment struct {
	Column string
	Value  Expr
}

// Assign is shorthand for Assignment{Column: column, Value: value}
func Assign(column string, value Expr) Assignment {
	return Assignment{Column: column, Value: value}
}

// Expr is a value inside the conflict clause
type Expr interface {
	render(r *renderer) (string, error)
}

// Predicate is a boolean condition inside the conflict clause
type Predicate interface {
	render(r *renderer) (string, error)
}

type excludedExpr struct{ column string }

// Excluded refers to the incoming value of a batch column
func Excluded(column string) Expr { return excludedExpr{column: column} }

func (e excludedExpr) render(r *renderer) (string, error) {
	if !contains(r.columns, e.column) {
		return "", fmt.Errorf("%w: excluded column %q is not part of the batch", ErrMalformedConflict, e.column)
	}
	return "excluded." + quoteIdent(e.column), nil
}

type currentExpr struct{ column string }

// Current refers to the value stored in the existing row
func Current(column string) Expr { return currentExpr{column: column} }

func (e currentExpr) render(r *renderer) (string, error) {
	if e.column == "" {
		return "", fmt.Errorf("%w: empty column name", ErrMalformedConflict)
	}
	return r.table + "." + quoteIdent(e.column), nil
}

type paramExpr struct{ value any }

// Param binds a constant value as a statement parameter
func Param(value any) Expr { return paramExpr{value: value} }

func (e paramExpr) render(r *renderer) (string, error) {
	return r.bind(e.value), nil
}

type compare struct {
	op   string
	a, b Expr
}

func (c compare) render(r *renderer) (string, error) {
	left, err := c.a.render(r)
	if err != nil {
		return "", err
	}
	right, err := c.b.render(r)
	if err != nil {
		return "", err
	}
	op := c.op
	if op == opDistinct {
		op = r.dialect.distinctOp()
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

const opDistinct = "<distinct>"

// Distinct holds when a and b differ, treating NULLs as comparable values
func Distinct(a, b Expr) Predicate { return compare{op: opDistinct, a: a, b: b} }

// Greater holds when a > b
func Greater(a, b Expr) Predicate { return compare{op: ">", a: a, b: b} }

type junction struct {
	op    string
	preds []Predicate
}

func (j junction) render(r *renderer) (string, error) {
	if len(j.preds) == 0 {
		return "", fmt.Errorf("%w: empty %s", ErrMalformedConflict, j.op)
	}
	parts := make([]string, 0, len(j.preds))
	for _, p := range j.preds {
		s, err := p.render(r)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " "+j.op+" ") + ")", nil
}

// AnyOf holds when at least one predicate holds
func AnyOf(preds ...Predicate) Predicate { return junction{op: "OR", preds: preds} }

// AllOf holds when every predicate holds
func AllOf(preds ...Predicate) Predicate { return junction{op: "AND", preds: preds} }

// Changed holds when any of the columns differs between the stored and incoming row
func Changed(columns ...string) Predicate {
	preds := make([]Predicate, len(columns))
	for i, col := range columns {
		preds[i] = Distinct(Current(col), Excluded(col))
	}
	return AnyOf(preds...)
}

// Newer holds when the incoming value of column is greater than the stored one
func Newer(column string) Predicate {
	return Greater(Excluded(column), Current(column))
}
