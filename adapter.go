package keyset

import "context"

// QueryAdapter applies a PageQuery to an underlying queryable source and
// executes it. Implementations own the translation of column names to
// engine-native references and report unknown columns with ErrUnknownSortKey.
// Store failures are returned unchanged.
type QueryAdapter[T any] interface {
	// ApplyOrdering applies the keys as a single multi-level sort, in order.
	ApplyOrdering(orderings Orderings) error
	ApplyFilter(predicate CompoundPredicate) error
	// ApplyLimit caps the number of returned rows. n is never negative.
	ApplyLimit(n int) error
	Execute(ctx context.Context) ([]T, error)
}

// Fetch applies q to adapter and executes it. A query with limit 0 returns an
// empty page without executing. Errors from the adapter are returned as is.
func Fetch[T any](ctx context.Context, adapter QueryAdapter[T], q PageQuery) ([]T, error) {
	if err := adapter.ApplyOrdering(q.Orderings); err != nil {
		return nil, err
	}

	if q.Filter != nil {
		if err := adapter.ApplyFilter(*q.Filter); err != nil {
			return nil, err
		}
	}

	if q.IsEmpty() {
		return []T{}, nil
	}

	if q.IsLimited() {
		if err := adapter.ApplyLimit(q.Limit); err != nil {
			return nil, err
		}
	}

	return adapter.Execute(ctx)
}

// PaginationResult is a generic paginated result container.
type PaginationResult[T any] struct {
	// Items result elements.
	Items []T
	// AppliedLimit effective limit used for the query.
	AppliedLimit int
	// NextMarker marker of the next page; nil on the last page.
	NextMarker Marker
}
