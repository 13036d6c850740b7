package keyset

import "fmt"

// Operator defines a comparison operator of a predicate Comparison.
type Operator string

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"

	// OperatorEQ pins the leading keys of a conjunction to the marker values.
	// It never advances the marker on its own.
	OperatorEQ Operator = "="
)

func (o Operator) Valid() bool {
	return o == OperatorLT || o == OperatorGT || o == OperatorEQ
}

// ForOrdering maps a strict operator back to the direction it advances in.
func (o Operator) ForOrdering() Direction {
	switch o {
	case OperatorGT:
		return DirectionASC
	case OperatorLT:
		return DirectionDESC
	default:
		panic(fmt.Errorf("cannot map operator '%s' to ordering", o))
	}
}

// holds reports whether cmp, the result of comparing a row value with the
// marker value, satisfies the operator.
func (o Operator) holds(cmp int) bool {
	switch o {
	case OperatorGT:
		return cmp > 0
	case OperatorLT:
		return cmp < 0
	case OperatorEQ:
		return cmp == 0
	default:
		return false
	}
}
