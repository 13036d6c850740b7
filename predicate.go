package keyset

import (
	"bytes"
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"
)

type (
	// Comparison is the atom Operator(Column, Value).
	Comparison struct {
		Column   string
		Operator Operator
		Value    any
	}

	// Conjunction is a list of comparisons joined by AND.
	Conjunction []Comparison

	// CompoundPredicate represents the disjunctive normal form (DNF) of a
	// logical expression. Each conjunction is joined by OR, and each
	// conjunction consists of a list of comparisons which are joined by AND.
	//
	// Thus:
	//
	//	DNF = X1 OR X2 ... OR Xn, where Xi = Ai1 AND Ai2 ... AND Aim.
	//	DNF = (A11 AND A12 AND A13) OR (A21 AND A22 AND A23), for n=2, m=3.
	//
	// The description is engine-neutral. Adapters translate it into their
	// native filter representation.
	CompoundPredicate []Conjunction
)

// RowAccessor returns the value a row holds for column. ok is false when the
// row has no such attribute.
type RowAccessor func(column string) (value any, ok bool)

// String renders the comparison with Go-quoted values, e.g. `name < "abc"`.
func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Column, c.Operator, formatValue(c.Value))
}

func (c Comparison) evaluate(row RowAccessor) (bool, error) {
	v, ok := row(c.Column)
	if !ok {
		return false, fmt.Errorf("%w: '%s'", ErrUnknownSortKey, c.Column)
	}

	// NULL never satisfies a comparison, as in SQL.
	if v == nil {
		return false, nil
	}

	res, err := Compare(v, c.Value)
	if err != nil {
		return false, fmt.Errorf("column '%s': %w", c.Column, err)
	}

	return c.Operator.holds(res), nil
}

func (c Conjunction) String() string {
	parts := make([]string, 0, len(c))
	for _, comparison := range c {
		parts = append(parts, comparison.String())
	}

	if len(parts) == 1 {
		return parts[0]
	}

	return "(" + strings.Join(parts, " AND ") + ")"
}

func (c Conjunction) evaluate(row RowAccessor) (bool, error) {
	for _, comparison := range c {
		ok, err := comparison.evaluate(row)
		if err != nil || !ok {
			return false, err
		}
	}

	return len(c) > 0, nil
}

// String renders the predicate in a human-readable form, e.g.
//
//	counter_name < "odd" OR (counter_name = "odd" AND resource_id < "id7")
func (p CompoundPredicate) String() string {
	parts := make([]string, 0, len(p))
	for _, conjunction := range p {
		if len(conjunction) == 0 {
			continue
		}
		parts = append(parts, conjunction.String())
	}

	return strings.Join(parts, " OR ")
}

// Evaluate reports whether row satisfies the predicate. An empty predicate
// matches nothing.
func (p CompoundPredicate) Evaluate(row RowAccessor) (bool, error) {
	for _, conjunction := range p {
		ok, err := conjunction.evaluate(row)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	return false, nil
}

// Columns returns every distinct column the predicate references in order of
// first appearance.
func (p CompoundPredicate) Columns() []string {
	var ret []string
	seen := make(map[string]struct{})
	for _, conjunction := range p {
		for _, comparison := range conjunction {
			if _, ok := seen[comparison.Column]; ok {
				continue
			}
			seen[comparison.Column] = struct{}{}
			ret = append(ret, comparison.Column)
		}
	}

	return ret
}

func formatValue(v any) string {
	switch vt := v.(type) {
	case string:
		return fmt.Sprintf("%q", vt)
	case time.Time:
		return vt.Format(time.RFC3339Nano)
	case []byte:
		return fmt.Sprintf("%q", vt)
	default:
		return fmt.Sprintf("%v", vt)
	}
}

// Compare compares two values of the same dynamic type and returns -1, 0 or
// +1. Values of different types are never coerced: comparing an int with an
// int64 is ErrIncomparableValues.
func Compare(a, b any) (int, error) {
	if a == nil || b == nil {
		return 0, fmt.Errorf("%w: nil value", ErrIncomparableValues)
	}

	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return 0, fmt.Errorf("%w: %T and %T", ErrIncomparableValues, a, b)
	}

	switch at := a.(type) {
	case time.Time:
		return at.Compare(b.(time.Time)), nil
	case []byte:
		return bytes.Compare(at, b.([]byte)), nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(va.Int(), vb.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(va.Uint(), vb.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(va.Float(), vb.Float()), nil
	case reflect.String:
		return cmp.Compare(va.String(), vb.String()), nil
	case reflect.Bool:
		return compareBool(va.Bool(), vb.Bool()), nil
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrIncomparableValues, a)
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
