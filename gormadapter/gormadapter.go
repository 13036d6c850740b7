// Package gormadapter applies keyset pages to GORM queries.
package gormadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/Alp4ka/keyset"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Options controls how sort keys are resolved to columns.
type Options struct {
	// Model is a pointer to a GORM model. When set, sort keys must name one of
	// its fields, either by column or by Go field name, optionally qualified
	// with a table name ("meters.id").
	Model any
	// ColumnMapping, when set, takes precedence over Model: sort keys are
	// aliases and only mapped aliases are accepted.
	ColumnMapping keyset.ColumnMapping
}

// Adapter implements keyset.QueryAdapter over a *gorm.DB. The base query may
// carry any joins, sub-queries and conditions; the adapter only adds ORDER BY,
// WHERE and LIMIT clauses.
type Adapter[T any] struct {
	db      *gorm.DB
	mapping keyset.ColumnMapping
	schema  *schema.Schema
}

// New creates an adapter over db. It fails when opts.Model cannot be parsed
// by GORM.
func New[T any](db *gorm.DB, opts Options) (*Adapter[T], error) {
	a := &Adapter[T]{
		db:      db,
		mapping: opts.ColumnMapping,
	}

	if opts.Model != nil && opts.ColumnMapping == nil {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(opts.Model); err != nil {
			return nil, fmt.Errorf("cannot parse model schema: %w", err)
		}
		a.schema = stmt.Schema
	}

	return a, nil
}

// DB returns the query with every applied clause.
func (a *Adapter[T]) DB() *gorm.DB {
	return a.db
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

	a.db = a.db.Order(resolved.ToSQL())

	return nil
}

// ApplyFilter - implements keyset.QueryAdapter.
func (a *Adapter[T]) ApplyFilter(predicate keyset.CompoundPredicate) error {
	exp, err := a.toExpression(predicate)
	if err != nil {
		return err
	}
	if exp == nil {
		return nil
	}

	a.db = a.db.Clauses(exp)

	return nil
}

// ApplyLimit - implements keyset.QueryAdapter.
func (a *Adapter[T]) ApplyLimit(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", keyset.ErrInvalidLimit, n)
	}

	// An always-false condition keeps a zero-row page empty on every dialect.
	if n == 0 {
		a.db = a.db.Where("1 = 0")
	}

	a.db = a.db.Limit(n)

	return nil
}

// Execute - implements keyset.QueryAdapter. Store errors are returned as is.
func (a *Adapter[T]) Execute(ctx context.Context) ([]T, error) {
	var rows []T
	if err := a.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

// Paginate applies q to db and returns the scoped query without executing
// it.
func Paginate(db *gorm.DB, q keyset.PageQuery, opts Options) (*gorm.DB, error) {
	a, err := New[struct{}](db, opts)
	if err != nil {
		return nil, err
	}

	if err = a.ApplyOrdering(q.Orderings); err != nil {
		return nil, err
	}

	if q.Filter != nil {
		if err = a.ApplyFilter(*q.Filter); err != nil {
			return nil, err
		}
	}

	if q.IsLimited() {
		if err = a.ApplyLimit(q.Limit); err != nil {
			return nil, err
		}
	}

	return a.DB(), nil
}

func (a *Adapter[T]) resolve(column string) (string, error) {
	if a.mapping != nil {
		mapped, ok := a.mapping[column]
		if !ok || mapped == "" {
			return "", fmt.Errorf("%w: '%s'", keyset.ErrUnknownSortKey, column)
		}

		return mapped, nil
	}

	if a.schema == nil {
		return column, nil
	}

	qualifier, name := "", column
	if idx := strings.LastIndexByte(column, '.'); idx != -1 {
		qualifier, name = column[:idx+1], column[idx+1:]
	}

	field := a.schema.LookUpField(name)
	if field == nil || field.DBName == "" {
		return "", fmt.Errorf("%w: '%s' is not a column of %s", keyset.ErrUnknownSortKey, column, a.schema.Name)
	}

	return qualifier + field.DBName, nil
}

// toExpression converts the predicate into a clause.Expression. Comparisons
// become "Column Operator ?" expressions, conjunctions clause.And and the
// predicate itself clause.Or. Single-element levels are not wrapped.
//
// IMPORTANT: The method uses the SQL placeholder "?".
func (a *Adapter[T]) toExpression(predicate keyset.CompoundPredicate) (clause.Expression, error) {
	orExpressions := make([]clause.Expression, 0, len(predicate))

	for _, conjunction := range predicate {
		andExpressions := make([]clause.Expression, 0, len(conjunction))
		for _, comparison := range conjunction {
			column, err := a.resolve(comparison.Column)
			if err != nil {
				return nil, err
			}

			comparison.Column = column
			sqlClause, arg := comparison.ToSQL(keyset.QuestionPlaceholder, 1)
			andExpressions = append(andExpressions, clause.Expr{
				SQL:  sqlClause,
				Vars: []any{arg},
			})
		}

		switch len(andExpressions) {
		case 0:
			continue
		case 1:
			orExpressions = append(orExpressions, andExpressions[0])
		default:
			orExpressions = append(orExpressions, clause.And(andExpressions...))
		}
	}

	switch len(orExpressions) {
	case 0:
		return nil, nil
	case 1:
		return orExpressions[0], nil
	default:
		return clause.Or(orExpressions...), nil
	}
}

var _ keyset.QueryAdapter[struct{}] = (*Adapter[struct{}])(nil)
