package upsert

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Dialect selects the SQL flavour a statement is rendered in
type Dialect int

const (
	Postgres Dialect = iota + 1
	SQLite
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "dialect(" + strconv.Itoa(int(d)) + ")"
	}
}

// placeholder returns the bind marker for the n-th (1-based) parameter
func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (d Dialect) distinctOp() string {
	if d == Postgres {
		return "IS DISTINCT FROM"
	}
	return "IS NOT"
}

// Statement is a rendered SQL statement. Params are bound after each row's values.
type Statement struct {
	SQL    string
	Params []any
}

// Build renders the statement executed once per row of a batch with the given columns
func Build(d Dialect, table Table, columns []string, policy Policy, conflict *Conflict) (Statement, error) {
	if d != Postgres && d != SQLite {
		return Statement{}, fmt.Errorf("%w: unsupported %s", ErrMalformedBatch, d)
	}
	if table.Name == "" {
		return Statement{}, fmt.Errorf("%w: empty table name", ErrMalformedBatch)
	}
	if len(columns) == 0 {
		return Statement{}, fmt.Errorf("%w: no columns", ErrMalformedBatch)
	}

	r := &renderer{
		dialect: d,
		table:   quoteIdent(lastSegment(table.Name)),
		columns: columns,
		offset:  len(columns),
	}

	var sb strings.Builder
	if policy == PolicyReplace && d == SQLite {
		sb.WriteString("INSERT OR REPLACE INTO ")
	} else {
		sb.WriteString("INSERT INTO ")
	}
	sb.WriteString(quoteTable(table.Name))
	sb.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteIdent(col))
	}
	sb.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.placeholder(i + 1))
	}
	sb.WriteString(")")

	switch policy {
	case PolicyInsert:
	case PolicyReplace:
		// Postgres has no REPLACE; overwrite every non-key column instead
		if d == Postgres {
			clause, err := r.conflictClause(table, Conflict{})
			if err != nil {
				return Statement{}, err
			}
			sb.WriteString(clause)
		}
	case PolicyUpdate:
		if conflict == nil {
			return Statement{}, fmt.Errorf("%w: missing conflict specification", ErrMalformedConflict)
		}
		clause, err := r.conflictClause(table, *conflict)
		if err != nil {
			return Statement{}, err
		}
		sb.WriteString(clause)
	default:
		return Statement{}, fmt.Errorf("%w: unknown %s", ErrMalformedConflict, policy)
	}

	return Statement{SQL: sb.String(), Params: r.params}, nil
}

type renderer struct {
	dialect Dialect
	table   string
	columns []string
	offset  int
	params  []any
}

func (r *renderer) bind(v any) string {
	r.params = append(r.params, v)
	return r.dialect.placeholder(r.offset + len(r.params))
}

func (r *renderer) conflictClause(table Table, c Conflict) (string, error) {
	target := c.Target
	if len(target) == 0 {
		target = table.Key
	}
	if len(target) == 0 {
		return "", fmt.Errorf("%w: table %q has no key and no conflict target was given", ErrMalformedConflict, table.Name)
	}
	for _, col := range target {
		if !contains(r.columns, col) {
			return "", fmt.Errorf("%w: conflict target %q is not part of the batch", ErrMalformedConflict, col)
		}
	}

	set := c.Set
	if set == nil {
		for _, col := range r.columns {
			if !contains(target, col) {
				set = append(set, Assign(col, Excluded(col)))
			}
		}
	}

	quoted := make([]string, len(target))
	for i, col := range target {
		quoted[i] = quoteIdent(col)
	}
	clause := " ON CONFLICT (" + strings.Join(quoted, ", ") + ")"

	if len(set) == 0 {
		return clause + " DO NOTHING", nil
	}

	assignments := make([]string, 0, len(set))
	for _, a := range set {
		if a.Column == "" || a.Value == nil {
			return "", fmt.Errorf("%w: incomplete assignment", ErrMalformedConflict)
		}
		value, err := a.Value.render(r)
		if err != nil {
			return "", err
		}
		assignments = append(assignments, quoteIdent(a.Column)+" = "+value)
	}
	clause += " DO UPDATE SET " + strings.Join(assignments, ", ")

	if c.Where != nil {
		where, err := c.Where.render(r)
		if err != nil {
			return "", err
		}
		clause += " WHERE " + where
	}

	return clause, nil
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// quoteTable quotes a possibly schema-qualified table name
func quoteTable(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

func contains(columns []string, name string) bool {
	return slices.Contains(columns, name)
}
