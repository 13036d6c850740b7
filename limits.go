package keyset

const (
	// NoLimit requests every row; it cannot be combined with lookahead.
	NoLimit = -1
	// MaxLimit caps the page size accepted by Pager.WithLimit.
	MaxLimit = 100
	// DefaultLimit is the page size of a new Pager and of API requests that
	// do not give one.
	DefaultLimit = 10
)

// NormalizeLimit maps a limit received in an API payload onto a page size.
// Values <= 0 mean "not given" and become DefaultLimit; values above
// MaxLimit are clamped.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}

	return clampLimit(limit)
}

// clampLimit caps limit at MaxLimit. Zero and negative values are kept.
func clampLimit(limit int) int {
	return min(limit, MaxLimit)
}
