package upsert

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxBeginner starts pgx transactions. *pgxpool.Pool, *pgx.Conn and pgx.Tx satisfy it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgxWriter implements Writer for PostgreSQL using pgx
type PgxWriter struct {
	db TxBeginner
}

// NewPgxWriter creates a writer on top of a pool, connection or outer transaction
func NewPgxWriter(db TxBeginner) *PgxWriter {
	return &PgxWriter{db: db}
}

// Dialect reports Postgres
func (w *PgxWriter) Dialect() Dialect {
	return Postgres
}

// Exec queues the statement once per row in a single pgx batch inside a
// transaction. The transaction is rolled back on the first failing row.
func (w *PgxWriter) Exec(ctx context.Context, stmt Statement, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := w.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w: %w", ErrPersistence, ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // No-op if commit succeeds

	batch := &pgx.Batch{}
	for _, args := range rows {
		batch.Queue(stmt.SQL, args...)
	}

	results := tx.SendBatch(ctx, batch)

	var affected int64
	for i := range rows {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("%w: %w: row %d: %w", ErrPersistence, ErrStatementFailed, i, err)
		}
		affected += tag.RowsAffected()
	}

	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("%w: %w: %w", ErrPersistence, ErrStatementFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: %w: %w", ErrPersistence, ErrTransactionFailed, err)
	}

	return affected, nil
}
