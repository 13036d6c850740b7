package keyset

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// RawPageRequest is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging RawPageRequest `json:",inline"`
//	}
type RawPageRequest struct {
	// Limit - maximum number of records to return in the response.
	Limit int `json:"limit"`
	// StartToken - marker token obtained via Marker.Token().
	// If empty, the first page with Limit records is returned.
	StartToken string `json:"startToken"`
}

// Decode converts RawPageRequest into *Pager, normalizing Limit (see
// NormalizeLimit) and decoding StartToken. Returns *Pager with WithSort applied.
func (p RawPageRequest) Decode(sortKeys ...SortKey) (*Pager, error) {
	marker, err := DecodeMarker(p.StartToken)
	if err != nil {
		return nil, err
	}

	return NewPager().
		WithMarker(marker).
		WithSubstitutedSort(sortKeys...).
		WithLimit(NormalizeLimit(p.Limit)), nil
}

// Pager collects the parameters of a keyset page request step by step and
// builds the PageQuery for it.
type Pager struct {
	lookahead bool
	limit     int
	marker    Marker
	sort      Orderings
	uniqueKey string
}

// NewPager returns a pager of DefaultLimit rows without sort keys.
func NewPager() *Pager {
	return &Pager{limit: DefaultLimit}
}

// WithLookahead enables lookahead pagination, which fetches one extra row to
// determine whether the current page is the last.
//
// IMPORTANT:
// Cannot be used together with WithUnlimited() or WithLimit(NoLimit).
func (p *Pager) WithLookahead() *Pager {
	if p == nil {
		p = NewPager()
	}

	p.lookahead = true

	return p
}

// WithUnlimited allows returning all records without a limit.
//
// IMPORTANT:
// Cannot be used together with WithLookahead.
func (p *Pager) WithUnlimited() *Pager {
	if p == nil {
		p = NewPager()
	}

	p.limit = NoLimit

	return p
}

// WithLimit sets the maximum number of returned records.
//
// IMPORTANT:
//   - NoLimit cannot be used together with WithLookahead.
//   - Limits above MaxLimit are clamped.
//   - 0 requests an empty page that never reaches the store.
//   - Other negative limits are rejected by Build.
func (p *Pager) WithLimit(limit int) *Pager {
	if p == nil {
		p = NewPager()
	}

	if limit == NoLimit {
		return p.WithUnlimited()
	}
	p.limit = clampLimit(limit)

	return p
}

// WithMarker sets the marker of the previous page explicitly.
func (p *Pager) WithMarker(marker Marker) *Pager {
	if p == nil {
		p = NewPager()
	}

	p.marker = marker

	return p
}

// WithUniqueKey overrides the column expected to identify a record
// (DefaultUniqueKey by default).
func (p *Pager) WithUniqueKey(column string) *Pager {
	if p == nil {
		p = NewPager()
	}

	p.uniqueKey = column

	return p
}

// WithSubstitutedSort resets previous sort keys and applies the provided ones.
func (p *Pager) WithSubstitutedSort(keys ...SortKey) *Pager {
	if p == nil {
		p = NewPager()
	}

	p.sort = nil

	return p.WithSort(keys...)
}

// WithSort appends sort keys without overwriting existing ones.
// Order is preserved as if calling:
//
//	OrderBy(k1).ThenBy(k2).ThenBy(k3)...
//
// A key repeating an earlier column replaces it and moves to the end.
func (p *Pager) WithSort(keys ...SortKey) *Pager {
	if p == nil {
		p = NewPager()
	}

	for _, k := range keys {
		idx := slices.IndexFunc(p.sort, func(processed SortKey) bool {
			return processed.Column == k.Column
		})

		// Remove previous occurrence (avoid duplication).
		if idx != -1 {
			p.sort = slices.Delete(p.sort, idx, idx+1)
		}

		p.sort = append(p.sort, k)
	}

	return p
}

// Spec validates the collected sort keys into a SortSpec.
func (p *Pager) Spec() (SortSpec, error) {
	if p == nil {
		return SortSpec{}, fmt.Errorf("pager is nil")
	}

	return NewSortSpecFromKeys(p.sort, SpecOptions{UniqueKey: p.uniqueKey})
}

// Build validates the pager and builds the query of the requested page. With
// lookahead the query limit is one more than the page limit.
func (p *Pager) Build() (PageQuery, error) {
	if err := p.validate(); err != nil {
		return PageQuery{}, fmt.Errorf("cannot paginate: %w", err)
	}

	spec, err := p.Spec()
	if err != nil {
		return PageQuery{}, fmt.Errorf("cannot paginate: %w", err)
	}

	q, err := BuildPage(spec, p.marker, p.GetDatasetLimit())
	if err != nil {
		return PageQuery{}, fmt.Errorf("cannot paginate: %w", err)
	}

	return q, nil
}

// GetSort returns sort keys that will be applied to the dataset.
func (p *Pager) GetSort() Orderings {
	if p == nil {
		return nil
	}

	return p.sort
}

// IsUnlimited returns true if the limit equals NoLimit (unbounded number of records).
func (p *Pager) IsUnlimited() bool {
	if p == nil {
		return false
	}

	return p.limit == NoLimit
}

// IsLookahead returns true if lookahead pagination is enabled.
func (p *Pager) IsLookahead() bool {
	if p == nil {
		return false
	}

	return p.lookahead
}

// GetLimit returns the limit as it is stored in Pager.
// The return value is >= 0 or NoLimit for every pager that passes Build.
func (p *Pager) GetLimit() int {
	if p == nil {
		return 0
	}

	return p.limit
}

// GetMarker returns the marker stored in Pager as-is.
func (p *Pager) GetMarker() Marker {
	if p == nil {
		return nil
	}

	return p.marker
}

// GetDatasetLimit returns the limit adjusted for lookahead:
//   - if Lookahead = true → GetLimit() + 1
//   - if Lookahead = false → GetLimit()
//
// NoLimit and 0 are never adjusted.
func (p *Pager) GetDatasetLimit() int {
	limit := p.GetLimit()
	if limit == NoLimit || limit == 0 {
		return limit
	}

	return lo.Ternary(p.IsLookahead(), limit+1, limit)
}

func (p *Pager) validate() error {
	if p == nil {
		return fmt.Errorf("pager is nil")
	}

	if p.limit < NoLimit {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, p.limit)
	}

	if p.limit == NoLimit && p.lookahead {
		return fmt.Errorf("cannot apply lookahead to unlimited paging")
	}

	return nil
}

// IsLastPage returns true if the result set is the last page in the dataset.
//
// The last page is determined by one of two conditions:
//  1. The number of returned records is less than Limit.
//  2. Lookahead = true and the number of returned records is less than or equal to Limit.
//
// An unlimited or empty page is always the last one: there is no row to
// continue from.
func IsLastPage[T any](pager *Pager, resultSet []T) bool {
	if pager.IsUnlimited() || len(resultSet) == 0 {
		return true
	}

	return len(resultSet) < pager.limit ||
		(pager.lookahead && len(resultSet) <= pager.limit)
}

// TrimResultSet trims the result set to what should be returned to the client.
//
// If lookahead = true and the extra row was fetched, drop it. Suppose
// limit = 2 and resultSet = [a, b, c].
//
//   - With lookahead → resultSet becomes [a, b].
//   - Without lookahead → resultSet remains unchanged.
func TrimResultSet[T any](pager *Pager, resultSet []T) []T {
	if pager.lookahead && len(resultSet) > pager.limit {
		resultSet = resultSet[:pager.limit]
	}

	return resultSet
}

// NextPage trims the result set and takes the marker of the next page from
// its last row. The marker is nil when resultSet is the last page.
func NextPage[T any](pager *Pager, resultSet []T, getters Getters[T]) ([]T, Marker, error) {
	if err := pager.validate(); err != nil {
		return nil, nil, fmt.Errorf("cannot build next page marker: %w", err)
	}

	spec, err := pager.Spec()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot build next page marker: %w", err)
	}

	if IsLastPage(pager, resultSet) {
		return TrimResultSet(pager, resultSet), nil, nil
	}
	resultSet = TrimResultSet(pager, resultSet)

	marker, err := MarkerOf(spec, lo.LastOrEmpty(resultSet), getters)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot build next page marker: %w", err)
	}

	return resultSet, marker, nil
}

// Paginate builds the query of the requested page, fetches it through adapter
// and prepares the marker of the next page.
func Paginate[T any](
	ctx context.Context,
	pager *Pager,
	adapter QueryAdapter[T],
	getters Getters[T],
) (PaginationResult[T], error) {
	q, err := pager.Build()
	if err != nil {
		return PaginationResult[T]{}, err
	}

	rows, err := Fetch(ctx, adapter, q)
	if err != nil {
		return PaginationResult[T]{}, err
	}

	items, next, err := NextPage(pager, rows, getters)
	if err != nil {
		return PaginationResult[T]{}, err
	}

	return PaginationResult[T]{
		Items:        items,
		AppliedLimit: pager.GetLimit(),
		NextMarker:   next,
	}, nil
}
