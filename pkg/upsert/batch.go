package upsert

import "fmt"

// Batch is an ordered list of fixed-arity rows sharing one column list
type Batch struct {
	Columns []string
	Rows    [][]any
}

// NewBatch creates an empty batch for the given columns
func NewBatch(columns ...string) *Batch {
	return &Batch{Columns: columns}
}

// Add appends a row. Values are positional and must follow Columns.
func (b *Batch) Add(values ...any) *Batch {
	b.Rows = append(b.Rows, values)
	return b
}

// Len returns the number of rows
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

// Validate checks the batch shape once: at least one column, no duplicate
// or empty column names, and every row carrying exactly one value per column.
func (b *Batch) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil batch", ErrMalformedBatch)
	}
	if len(b.Columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrMalformedBatch)
	}

	seen := make(map[string]struct{}, len(b.Columns))
	for _, col := range b.Columns {
		if col == "" {
			return fmt.Errorf("%w: empty column name", ErrMalformedBatch)
		}
		if _, dup := seen[col]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrMalformedBatch, col)
		}
		seen[col] = struct{}{}
	}

	for i, row := range b.Rows {
		if len(row) != len(b.Columns) {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrMalformedBatch, i, len(row), len(b.Columns))
		}
	}

	return nil
}
