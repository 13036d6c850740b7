package keyset

import "errors"

// Validation errors. All of them are caller-input errors returned before any
// interaction with the underlying store; wrap-checked with errors.Is.
var (
	ErrConflictingDirections  = errors.New("shared direction and per-key directions are mutually exclusive")
	ErrDirectionCountMismatch = errors.New("number of directions does not match number of sort keys")
	ErrUnknownSortDirection   = errors.New("unknown sort direction, must be 'asc' or 'desc'")
	ErrUnknownSortKey         = errors.New("unknown sort key")
	ErrMarkerValueMissing     = errors.New("marker has no value for sort key")

	ErrEmptySortSpec      = errors.New("empty sort key list")
	ErrDuplicateSortKey   = errors.New("duplicate sort key")
	ErrUniqueKeyNotSorted = errors.New("unique key is not among sort keys")
	ErrInvalidLimit       = errors.New("invalid limit")
	ErrInvalidMarker      = errors.New("invalid marker token")
	ErrIncomparableValues = errors.New("values are not comparable")
)
