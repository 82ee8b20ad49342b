package upsert

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLWriter implements Writer on top of database/sql
type SQLWriter struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLWriter creates a writer for the given database handle and dialect
func NewSQLWriter(db *sql.DB, dialect Dialect) *SQLWriter {
	return &SQLWriter{db: db, dialect: dialect}
}

// Dialect reports the dialect the writer was created with
func (w *SQLWriter) Dialect() Dialect {
	return w.dialect
}

// Exec prepares the statement once and executes it for every row inside a
// transaction. Any failure rolls the transaction back.
func (w *SQLWriter) Exec(ctx context.Context, stmt Statement, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w: %w", ErrPersistence, ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback() }() // No-op if commit succeeds

	prepared, err := tx.PrepareContext(ctx, stmt.SQL)
	if err != nil {
		return 0, fmt.Errorf("%w: %w: %w", ErrPersistence, ErrStatementFailed, err)
	}
	defer prepared.Close()

	var affected int64
	for i, args := range rows {
		res, err := prepared.ExecContext(ctx, args...)
		if err != nil {
			return 0, fmt.Errorf("%w: %w: row %d: %w", ErrPersistence, ErrStatementFailed, i, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("%w: %w: row %d: %w", ErrPersistence, ErrStatementFailed, i, err)
		}
		affected += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %w: %w", ErrPersistence, ErrTransactionFailed, err)
	}

	return affected, nil
}
