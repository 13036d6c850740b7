// Package keyset provides engine-neutral keyset (marker based) pagination
// primitives.
//
// # Overview
//
// Keyset pagination continues a listing from the last row of the previous
// page instead of skipping an offset. Given sort keys k1..kn and the values
// m1..mn of the last row, the next page is selected by
//
//	(k1 > m1) OR (k1 = m1 AND k2 > m2) OR ... OR (k1 = m1 AND ... AND kn > mn)
//
// with ">" replaced by "<" for every descending key. Together the keys must
// identify a row uniquely (usually the last key is "id"), otherwise rows
// sharing all key values may be skipped or repeated.
//
// Key concepts
//   - SortSpec: validated multi-column ordering with a direction per key.
//   - Marker: sort-key values of the previous page's last row.
//   - BuildPage: turns (SortSpec, Marker, limit) into a PageQuery holding
//     ordering instructions, a CompoundPredicate and the limit.
//   - QueryAdapter: applies a PageQuery to a concrete engine. See the
//     gormadapter, pgxadapter and memadapter packages.
//   - Pager: request builder with lookahead and next-marker helpers.
//
// The package performs no I/O.
package keyset
