package keyset

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Direction defines the sort direction of a single sort key.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

// DefaultUniqueKey is the column assumed to identify a record when
// SpecOptions.UniqueKey is empty.
const DefaultUniqueKey = "id"

// Valid reports whether o is DirectionASC or DirectionDESC.
func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

// ForOperator returns the strict operator that advances past the marker in
// this direction.
func (o Direction) ForOperator() Operator {
	switch o {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", o))
	}
}

// ParseDirection parses "asc" or "desc" in any letter case.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: '%s'", ErrUnknownSortDirection, s)
	}

	return d, nil
}

type (
	// SortKey is one level of a multi-column sort.
	SortKey struct {
		Column    string
		Direction Direction
	}

	// Orderings is an ordered list of sort keys. The first key has the
	// highest precedence.
	Orderings []SortKey

	ColumnAlias = string

	// ColumnMapping maps external column aliases to fully qualified column names.
	// Use it when bare column names could cause an "ambiguous column name" error.
	// Key is an external alias, value is an internal column name.
	ColumnMapping = map[ColumnAlias]string
)

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

func (o SortKey) validate() error {
	if !o.Direction.Valid() {
		return fmt.Errorf("%w: '%s' for column '%s'", ErrUnknownSortDirection, o.Direction, o.Column)
	}

	if o.Column == "" {
		return fmt.Errorf("%w: empty column name", ErrUnknownSortKey)
	}

	// Guard against SQL injection by restricting allowed characters in column names.
	if !lo.Every(_availableColumnNameSymbols, []rune(o.Column)) {
		return fmt.Errorf("%w: column name contains forbidden symbols '%s'", ErrUnknownSortKey, o.Column)
	}

	return nil
}

// Columns returns column names in precedence order.
func (o Orderings) Columns() []string {
	return lo.Map(o, func(k SortKey, _ int) string { return k.Column })
}

// ToSQLSlice converts Orderings to a slice of strings in the form
// "<order_column> <order_direction>" suitable for SQL query builders.
//
// Example: for Orderings: [{"a", "ASC"}, {"b", "DESC"}] returns ["a ASC", "b DESC"].
func (o Orderings) ToSQLSlice() []string {
	ret := make([]string, 0, len(o))
	for _, ordering := range o {
		ret = append(ret, fmt.Sprintf("%s %s", ordering.Column, ordering.Direction))
	}

	return ret
}

// ToSQL converts Orderings to a single string
// "<order_column_1> <order_direction_1>, <order_column_2> <order_direction_2>"
// suitable for embedding into an SQL query.
// Example: for [{"a", "ASC"}, {"b", "DESC"}] returns "a ASC, b DESC".
//
// Usage:
//
//	query := fmt.Sprintf("SELECT * FROM table ORDER BY %s", orderings.ToSQL())
func (o Orderings) ToSQL() string {
	return strings.Join(o.ToSQLSlice(), ", ")
}

func (o Orderings) validate() error {
	if len(o) == 0 {
		return ErrEmptySortSpec
	}

	seen := make(map[string]struct{}, len(o))
	for _, ordering := range o {
		if err := ordering.validate(); err != nil {
			return err
		}

		if _, ok := seen[ordering.Column]; ok {
			return fmt.Errorf("%w: '%s'", ErrDuplicateSortKey, ordering.Column)
		}
		seen[ordering.Column] = struct{}{}
	}

	return nil
}

// SpecOptions controls SortSpec construction.
type SpecOptions struct {
	// Direction applied to every key. Mutually exclusive with Directions.
	Direction Direction
	// Directions holds one direction per key. Mutually exclusive with Direction.
	Directions []Direction
	// UniqueKey is the column that identifies a record. Defaults to DefaultUniqueKey.
	UniqueKey string
	// Strict turns the "unique key not in sort keys" advisory into ErrUniqueKeyNotSorted.
	Strict bool
}

// SortSpec is a validated, immutable list of sort keys.
type SortSpec struct {
	keys Orderings
}

// NewSortSpec builds a SortSpec from column names and either a shared
// direction or one direction per column. Ascending is used when neither is
// given.
func NewSortSpec(columns []string, opts SpecOptions) (SortSpec, error) {
	if opts.Direction != "" && opts.Directions != nil {
		return SortSpec{}, ErrConflictingDirections
	}

	directions := opts.Directions
	if directions == nil {
		shared := lo.Ternary(opts.Direction == "", DirectionASC, opts.Direction)
		directions = lo.Map(columns, func(string, int) Direction { return shared })
	}

	if len(directions) != len(columns) {
		return SortSpec{}, fmt.Errorf(
			"%w: %d directions for %d keys", ErrDirectionCountMismatch, len(directions), len(columns),
		)
	}

	keys := make(Orderings, 0, len(columns))
	for i, column := range columns {
		keys = append(keys, SortKey{Column: column, Direction: directions[i]})
	}

	return newSortSpec(keys, opts)
}

// NewSortSpecFromKeys builds a SortSpec from (column, direction) pairs.
// opts.Direction and opts.Directions must be left empty.
func NewSortSpecFromKeys(keys []SortKey, opts SpecOptions) (SortSpec, error) {
	if opts.Direction != "" || opts.Directions != nil {
		return SortSpec{}, ErrConflictingDirections
	}

	return newSortSpec(slices.Clone(keys), opts)
}

// MustSortSpec is like NewSortSpecFromKeys but panics on error.
func MustSortSpec(keys ...SortKey) SortSpec {
	spec, err := NewSortSpecFromKeys(keys, SpecOptions{})
	if err != nil {
		panic(err)
	}

	return spec
}

func newSortSpec(keys Orderings, opts SpecOptions) (SortSpec, error) {
	for i := range keys {
		keys[i].Direction = Direction(strings.ToUpper(string(keys[i].Direction)))
	}

	if err := keys.validate(); err != nil {
		return SortSpec{}, err
	}

	uniqueKey := lo.Ternary(opts.UniqueKey == "", DefaultUniqueKey, opts.UniqueKey)
	if !slices.Contains(keys.Columns(), uniqueKey) {
		if opts.Strict {
			return SortSpec{}, fmt.Errorf("%w: '%s'", ErrUniqueKeyNotSorted, uniqueKey)
		}

		logger().Info("unique key not in sort keys; pagination may skip or repeat rows",
			"unique_key", uniqueKey,
			"sort_keys", keys.Columns(),
		)
	}

	return SortSpec{keys: keys}, nil
}

// Keys returns a copy of the sort keys in precedence order.
func (s SortSpec) Keys() Orderings {
	return slices.Clone(s.keys)
}

// Len returns the number of sort keys.
func (s SortSpec) Len() int {
	return len(s.keys)
}

// IsZero reports whether the spec was never constructed.
func (s SortSpec) IsZero() bool {
	return len(s.keys) == 0
}

// Leading returns the key with the highest precedence.
func (s SortSpec) Leading() SortKey {
	return lo.FirstOrEmpty(s.keys)
}

// ParseSort builds Orderings from a list of strings in the format
// "column asc|desc". Column aliases are resolved via ColumnMapping.
// Returns an error if an alias is not found in the mapping.
func ParseSort(stringsOrderings []string, columnMapping ColumnMapping) (Orderings, error) {
	ret := make(Orderings, 0, len(stringsOrderings))
	aliases := lo.Keys(columnMapping)
	slices.Sort(aliases)

	for _, stringOrdering := range stringsOrderings {
		cutStringOrdering := strings.Fields(stringOrdering)
		if len(cutStringOrdering) != 2 {
			return nil, fmt.Errorf("invalid ordering string format '%s'", stringOrdering)
		}

		columnAlias := cutStringOrdering[0]
		direction, err := ParseDirection(cutStringOrdering[1])
		if err != nil {
			return nil, err
		}

		columnName := columnMapping[columnAlias]
		if columnName == "" {
			return nil, fmt.Errorf(
				"%w: '%s', closest: '%s'", ErrUnknownSortKey, columnAlias, closestAlias(columnAlias, aliases),
			)
		}

		ret = append(ret, SortKey{
			Column:    columnName,
			Direction: direction,
		})
	}

	return ret, nil
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	minDist := math.MaxInt
	closest := ""

	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		if dist < minDist {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}
