// Package memadapter implements keyset.QueryAdapter over an in-memory slice.
// It is the reference implementation of the adapter contract and is handy in
// tests and for small, already materialised datasets.
//
// nil values order like NULL in PostgreSQL: last for ascending keys and first
// for descending ones. They never satisfy a marker comparison.
package memadapter

import (
	"context"
	"fmt"
	"slices"

	"github.com/Alp4ka/keyset"
)

// Adapter filters, sorts and limits a copy of rows. Column values are read
// through getters; a column without a getter is an unknown sort key.
type Adapter[T any] struct {
	rows      []T
	getters   keyset.Getters[T]
	orderings keyset.Orderings
	filter    *keyset.CompoundPredicate
	limit     int
}

func New[T any](rows []T, getters keyset.Getters[T]) *Adapter[T] {
	return &Adapter[T]{
		rows:    rows,
		getters: getters,
		limit:   keyset.NoLimit,
	}
}

func (a *Adapter[T]) ApplyOrdering(orderings keyset.Orderings) error {
	for _, key := range orderings {
		if _, ok := a.getters[key.Column]; !ok {
			return fmt.Errorf("%w: '%s'", keyset.ErrUnknownSortKey, key.Column)
		}
	}

	a.orderings = orderings

	return nil
}

func (a *Adapter[T]) ApplyFilter(predicate keyset.CompoundPredicate) error {
	for _, column := range predicate.Columns() {
		if _, ok := a.getters[column]; !ok {
			return fmt.Errorf("%w: '%s'", keyset.ErrUnknownSortKey, column)
		}
	}

	a.filter = &predicate

	return nil
}

func (a *Adapter[T]) ApplyLimit(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", keyset.ErrInvalidLimit, n)
	}

	a.limit = n

	return nil
}

// Execute returns the matching rows. The source slice is never modified.
func (a *Adapter[T]) Execute(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ret := make([]T, 0, len(a.rows))
	for _, row := range a.rows {
		if a.filter != nil {
			ok, err := a.filter.Evaluate(a.getters.Accessor(row))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}

		ret = append(ret, row)
	}

	var sortErr error
	slices.SortStableFunc(ret, func(x, y T) int {
		c, err := a.compare(x, y)
		if err != nil && sortErr == nil {
			sortErr = err
		}

		return c
	})
	if sortErr != nil {
		return nil, sortErr
	}

	if a.limit != keyset.NoLimit && len(ret) > a.limit {
		ret = ret[:a.limit]
	}

	return ret, nil
}

// compare orders x and y by every sort key in turn. nil is greater than any
// value (NULLS LAST ascending, NULLS FIRST descending).
func (a *Adapter[T]) compare(x, y T) (int, error) {
	for _, key := range a.orderings {
		getter := a.getters[key.Column]

		c, err := compareNullable(getter(x), getter(y))
		if err != nil {
			return 0, fmt.Errorf("column '%s': %w", key.Column, err)
		}

		if key.Direction == keyset.DirectionDESC {
			c = -c
		}
		if c != 0 {
			return c, nil
		}
	}

	return 0, nil
}

func compareNullable(x, y any) (int, error) {
	switch {
	case x == nil && y == nil:
		return 0, nil
	case x == nil:
		return 1, nil
	case y == nil:
		return -1, nil
	default:
		return keyset.Compare(x, y)
	}
}

var _ keyset.QueryAdapter[struct{}] = (*Adapter[struct{}])(nil)
