// Package upsert writes homogeneous row batches into a relational table as one
// atomic unit under a chosen conflict policy.
package upsert

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for upsert operations
var (
	ErrMalformedBatch    = errors.New("malformed batch")
	ErrMalformedConflict = errors.New("malformed conflict specification")
	ErrTransformFailed   = errors.New("value transform failed")
	ErrNonFiniteValue    = errors.New("non-finite value")
	ErrPersistence       = errors.New("persistence failed")
	ErrTransactionFailed = errors.New("transaction failed")
	ErrStatementFailed   = errors.New("statement failed")
)

// Policy decides what happens when an incoming row collides with an existing key
type Policy int

const (
	// PolicyInsert fails the whole batch on the first duplicate key
	PolicyInsert Policy = iota + 1
	// PolicyReplace replaces the stored row sharing the key
	PolicyReplace
	// PolicyUpdate updates the stored row according to a Conflict specification
	PolicyUpdate
)

func (p Policy) String() string {
	switch p {
	case PolicyInsert:
		return "insert"
	case PolicyReplace:
		return "replace"
	case PolicyUpdate:
		return "update"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Table names the target table and its primary key columns.
// The key is the default conflict target.
type Table struct {
	Name string
	Key  []string
}

// Writer executes one statement for every row inside a single transaction.
// Either every row is committed or none is.
type Writer interface {
	Dialect() Dialect
	Exec(ctx context.Context, stmt Statement, rows [][]any) (int64, error)
}

// Transform converts a raw value right before it is bound to the statement
type Transform func(column string, value any) (any, error)

// Option configures a single write
type Option func(*options)

type options struct {
	transform Transform
}

// WithTransform sets the per-field value transform applied before binding
func WithTransform(fn Transform) Option {
	return func(o *options) { o.transform = fn }
}

// Insert writes the batch and fails on any duplicate key
func Insert(ctx context.Context, w Writer, table Table, batch *Batch, opts ...Option) (int64, error) {
	return write(ctx, w, table, batch, PolicyInsert, nil, opts)
}

// InsertOrReplace writes the batch replacing rows that share a key
func InsertOrReplace(ctx context.Context, w Writer, table Table, batch *Batch, opts ...Option) (int64, error) {
	return write(ctx, w, table, batch, PolicyReplace, nil, opts)
}

// InsertOnConflict writes the batch and resolves key conflicts with the given specification
func InsertOnConflict(ctx context.Context, w Writer, table Table, batch *Batch, conflict Conflict, opts ...Option) (int64, error) {
	return write(ctx, w, table, batch, PolicyUpdate, &conflict, opts)
}

// Write dispatches on policy. conflict is only read for PolicyUpdate.
func Write(ctx context.Context, w Writer, table Table, batch *Batch, policy Policy, conflict Conflict, opts ...Option) (int64, error) {
	if policy == PolicyUpdate {
		return write(ctx, w, table, batch, policy, &conflict, opts)
	}
	return write(ctx, w, table, batch, policy, nil, opts)
}

func write(ctx context.Context, w Writer, table Table, batch *Batch, policy Policy, conflict *Conflict, opts []Option) (int64, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := batch.Validate(); err != nil {
		return 0, err
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	stmt, err := Build(w.Dialect(), table, batch.Columns, policy, conflict)
	if err != nil {
		return 0, err
	}

	args, err := bindRows(batch, stmt.Params, o.transform)
	if err != nil {
		return 0, err
	}

	return w.Exec(ctx, stmt, args)
}

// bindRows transforms every value and appends the statement's own parameters
func bindRows(batch *Batch, params []any, transform Transform) ([][]any, error) {
	args := make([][]any, len(batch.Rows))
	for i, row := range batch.Rows {
		values := make([]any, 0, len(row)+len(params))
		for j, value := range row {
			if transform != nil {
				converted, err := transform(batch.Columns[j], value)
				if err != nil {
					return nil, fmt.Errorf("%w: row %d column %q: %w", ErrTransformFailed, i, batch.Columns[j], err)
				}
				value = converted
			}
			values = append(values, value)
		}
		args[i] = append(values, params...)
	}
	return args, nil
}
