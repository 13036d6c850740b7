package keyset

import "fmt"

// PageRequest describes one keyset page: how to sort, where the previous page
// ended, and how many rows to return (NoLimit for all of them).
type PageRequest struct {
	Sort   SortSpec
	Marker Marker
	Limit  int
}

// Build is a shortcut for BuildPage(r.Sort, r.Marker, r.Limit).
func (r PageRequest) Build() (PageQuery, error) {
	return BuildPage(r.Sort, r.Marker, r.Limit)
}

// PageQuery is the engine-neutral description of a page query. It is handed
// to a QueryAdapter and discarded.
type PageQuery struct {
	// Orderings must be applied as one stable multi-level sort, in order.
	Orderings Orderings
	// Filter is nil on the first page.
	Filter *CompoundPredicate
	// Limit is a hard cap applied after ordering and filtering, or NoLimit.
	Limit int
}

// IsLimited reports whether the query caps the number of rows.
func (q PageQuery) IsLimited() bool {
	return q.Limit != NoLimit
}

// IsEmpty reports whether the query can only produce an empty page.
func (q PageQuery) IsEmpty() bool {
	return q.Limit == 0
}

// BuildPage turns a sort spec, an optional marker and a limit into ordering
// instructions and the compound predicate selecting rows strictly after the
// marker.
//
// For keys k1..kn with marker values m1..mn the predicate is
//
//	(k1 op1 m1) OR (k1 = m1 AND k2 op2 m2) OR ... OR (k1 = m1 AND ... AND kn opn mn)
//
// where opi is ">" for ascending and "<" for descending keys. A nil or empty
// marker produces no predicate. BuildPage is pure and safe for concurrent use.
func BuildPage(spec SortSpec, marker Marker, limit int) (PageQuery, error) {
	if spec.IsZero() {
		return PageQuery{}, ErrEmptySortSpec
	}

	if limit < NoLimit {
		return PageQuery{}, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	ret := PageQuery{
		Orderings: spec.Keys(),
		Limit:     limit,
	}

	if marker.IsEmpty() {
		return ret, nil
	}

	values, err := marker.values(spec.keys)
	if err != nil {
		return PageQuery{}, err
	}

	filter := buildPredicate(spec.keys, values)
	ret.Filter = &filter

	return ret, nil
}

// buildPredicate expands the marker into the DNF described at BuildPage.
// Term i pins every key before i to its marker value and lets key i advance
// strictly in its own direction.
func buildPredicate(keys Orderings, values []any) CompoundPredicate {
	ret := make(CompoundPredicate, 0, len(keys))
	for i, key := range keys {
		conjunction := make(Conjunction, 0, i+1)
		for j := range keys[:i] {
			conjunction = append(conjunction, Comparison{
				Column:   keys[j].Column,
				Operator: OperatorEQ,
				Value:    values[j],
			})
		}

		conjunction = append(conjunction, Comparison{
			Column:   key.Column,
			Operator: key.Direction.ForOperator(),
			Value:    values[i],
		})

		ret = append(ret, conjunction)
	}

	return ret
}
