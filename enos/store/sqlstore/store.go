// Package sqlstore persists aggregated rows through the upsert layer into
// PostgreSQL (pgx) or SQLite (database/sql).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screwyprof/enos/enos"
	"github.com/screwyprof/enos/enos/store/dbrow"
	"github.com/screwyprof/enos/pkg/upsert"
)

// Sentinel errors for store operations
var (
	ErrSaveFailed         = errors.New("save failed")
	ErrUnknownWritePolicy = errors.New("unknown write policy")
)

// WritePolicy decides how rows colliding with stored keys are handled
type WritePolicy string

const (
	// WriteInsert fails the batch on any stored key
	WriteInsert WritePolicy = "insert"
	// WriteReplace overwrites stored rows sharing a key
	WriteReplace WritePolicy = "replace"
	// WriteUpdateChanged updates stored rows only when a value differs
	WriteUpdateChanged WritePolicy = "update-changed"
)

// ParseWritePolicy validates a write policy name
func ParseWritePolicy(s string) (WritePolicy, error) {
	switch p := WritePolicy(s); p {
	case WriteInsert, WriteReplace, WriteUpdateChanged:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownWritePolicy, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *WritePolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseWritePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Option configures the Store
type Option func(*Store)

// WithWritePolicy sets the conflict handling of every save
func WithWritePolicy(p WritePolicy) Option {
	return func(s *Store) { s.policy = p }
}

// Store implements enos.Store on top of an upsert.Writer
type Store struct {
	w      upsert.Writer
	policy WritePolicy
}

var _ enos.Store = (*Store)(nil)

// New creates a store writing through w. Rows are replaced by default.
func New(w upsert.Writer, opts ...Option) *Store {
	s := &Store{w: w, policy: WriteReplace}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewPgx creates a PostgreSQL store with an existing connection pool.
// Returns the store and a closer function.
func NewPgx(pool *pgxpool.Pool, opts ...Option) (*Store, func()) {
	store := New(upsert.NewPgxWriter(pool), opts...)
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// NewSQLite creates a SQLite store with an open database.
// Returns the store and a closer function.
func NewSQLite(db *sql.DB, opts ...Option) (*Store, func()) {
	store := New(upsert.NewSQLWriter(db, upsert.SQLite), opts...)
	closer := func() {
		_ = db.Close()
	}
	return store, closer
}

// SavePoolLiquidity writes liquidity rows as one atomic batch
func (s *Store) SavePoolLiquidity(ctx context.Context, rows []enos.PoolLiquidityRow) error {
	return s.save(ctx, dbrow.ENOLiquidity, dbrow.PoolLiquidityBatch(rows))
}

// SaveDelegatorStakes writes delegator rows as one atomic batch
func (s *Store) SaveDelegatorStakes(ctx context.Context, rows []enos.DelegatorStakeRow) error {
	return s.save(ctx, dbrow.ENODelegators, dbrow.DelegatorStakeBatch(rows))
}

func (s *Store) save(ctx context.Context, table upsert.Table, batch *upsert.Batch) error {
	transform := upsert.WithTransform(dbrow.RowTransform)

	var err error
	switch s.policy {
	case WriteInsert:
		_, err = upsert.Insert(ctx, s.w, table, batch, transform)
	case WriteReplace:
		_, err = upsert.InsertOrReplace(ctx, s.w, table, batch, transform)
	case WriteUpdateChanged:
		changed := upsert.Conflict{Where: upsert.Changed(dbrow.NonKeyColumns(table, batch.Columns)...)}
		_, err = upsert.InsertOnConflict(ctx, s.w, table, batch, changed, transform)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownWritePolicy, s.policy)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSaveFailed, table.Name, err)
	}
	return nil
}
