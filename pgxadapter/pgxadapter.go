// Package pgxadapter applies keyset pages to raw PostgreSQL queries executed
// through pgx.
package pgxadapter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Alp4ka/keyset"
	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Options controls which sort keys the adapter accepts.
type Options struct {
	// Columns lists the result columns of the base query that may be sorted
	// and filtered on.
	Columns []string
	// ColumnMapping maps public aliases to result columns. It takes
	// precedence over Columns.
	ColumnMapping keyset.ColumnMapping
}

// Adapter implements keyset.QueryAdapter over a base SELECT statement. The
// base statement is wrapped as a sub-select so it may carry its own joins,
// grouping and $n parameters.
//
// Example:
//
//	SELECT * FROM (SELECT ... FROM meter WHERE project_id = $1) AS page
//	WHERE (counter_name < $2 OR (counter_name = $3 AND resource_id < $4))
//	ORDER BY counter_name DESC, resource_id DESC
//	LIMIT 10
type Adapter[T any] struct {
	querier  Querier
	base     string
	baseArgs []any
	allowed  map[string]string

	orderBy    string
	where      string
	filterArgs []any
	limit      int
}

// New creates an adapter for base, bound with args.
func New[T any](q Querier, base string, args []any, opts Options) *Adapter[T] {
	a := &Adapter[T]{
		querier:  q,
		base:     strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(base), ";")),
		baseArgs: args,
		limit:    keyset.NoLimit,
	}

	switch {
	case opts.ColumnMapping != nil:
		a.allowed = opts.ColumnMapping
	case len(opts.Columns) > 0:
		a.allowed = make(map[string]string, len(opts.Columns))
		for _, column := range opts.Columns {
			a.allowed[column] = column
		}
	}

	return a
}

// ApplyOrdering - implements keyset.QueryAdapter.
func (a *Adapter[T]) ApplyOrdering(orderings keyset.Orderings) error {
	resolved := make(keyset.Orderings, 0, len(orderings))
	for _, key := range orderings {
		column, err := a.resolve(key.Column)
		if err != nil {
			return err
		}
		resolved = append(resolved, keyset.SortKey{Column: column, Direction: key.Direction})
	}

	a.orderBy = resolved.ToSQL()

	return nil
}

// ApplyFilter - implements keyset.QueryAdapter. Placeholders are numbered
// after the base query arguments.
func (a *Adapter[T]) ApplyFilter(predicate keyset.CompoundPredicate) error {
	resolved := make(keyset.CompoundPredicate, 0, len(predicate))
	for _, conjunction := range predicate {
		c := make(keyset.Conjunction, 0, len(conjunction))
		for _, comparison := range conjunction {
			column, err := a.resolve(comparison.Column)
			if err != nil {
				return err
			}
			comparison.Column = column
			c = append(c, comparison)
		}
		resolved = append(resolved, c)
	}

	a.where, a.filterArgs = resolved.ToSQL(keyset.DollarPlaceholder(len(a.baseArgs)))

	return nil
}

// ApplyLimit - implements keyset.QueryAdapter.
func (a *Adapter[T]) ApplyLimit(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", keyset.ErrInvalidLimit, n)
	}

	a.limit = n

	return nil
}

// SQL returns the statement and its arguments as they will be executed.
func (a *Adapter[T]) SQL() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM (")
	sb.WriteString(a.base)
	sb.WriteString(") AS page")

	if a.where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(a.where)
	}

	if a.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(a.orderBy)
	}

	if a.limit != keyset.NoLimit {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(a.limit))
	}

	args := make([]any, 0, len(a.baseArgs)+len(a.filterArgs))
	args = append(args, a.baseArgs...)
	args = append(args, a.filterArgs...)

	return sb.String(), args
}

// Execute - implements keyset.QueryAdapter. Rows are mapped onto T by column
// name (see pgx.RowToStructByName). Store errors are returned as is.
func (a *Adapter[T]) Execute(ctx context.Context) ([]T, error) {
	sql, args := a.SQL()

	rows, err := a.querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

func (a *Adapter[T]) resolve(column string) (string, error) {
	if a.allowed == nil {
		return column, nil
	}

	mapped, ok := a.allowed[column]
	if !ok || mapped == "" {
		return "", fmt.Errorf("%w: '%s'", keyset.ErrUnknownSortKey, column)
	}

	return mapped, nil
}

var _ keyset.QueryAdapter[struct{}] = (*Adapter[struct{}])(nil)
