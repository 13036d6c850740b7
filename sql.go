package keyset

import (
	"fmt"
	"strings"
)

// Placeholder returns the bind parameter marker for the n-th argument
// (1-based) of a statement.
type Placeholder func(n int) string

// QuestionPlaceholder renders "?" markers (MySQL, SQLite, GORM expressions).
func QuestionPlaceholder(int) string {
	return "?"
}

// DollarPlaceholder renders PostgreSQL "$n" markers, numbering from offset+1.
// Use offset when the predicate is appended to a statement that already binds
// offset arguments.
func DollarPlaceholder(offset int) Placeholder {
	return func(n int) string {
		return fmt.Sprintf("$%d", n+offset)
	}
}

// ToSQL converts a comparison of the form Operator(Column, Value) to an SQL
// condition "Column Operator <placeholder>" with the value to bind.
//
// Example:
//
//	Comparison{Column: "id", Operator: ">", Value: 123}
//
// Result:
//
//	("id > ?", 123)
func (c Comparison) ToSQL(ph Placeholder, n int) (string, any) {
	return fmt.Sprintf("%s %s %s", c.Column, c.Operator, ph(n)), c.Value
}

// ToSQL converts a conjunction (K1, K2, K3) into "(K1 AND K2 AND K3)".
// A single comparison is rendered bare. n is the index of the first argument.
func (c Conjunction) ToSQL(ph Placeholder, n int) (string, []any) {
	andClauses := make([]string, 0, len(c))
	andValues := make([]any, 0, len(c))

	for i, comparison := range c {
		andClause, andValue := comparison.ToSQL(ph, n+i)
		andClauses = append(andClauses, andClause)
		andValues = append(andValues, andValue)
	}

	switch len(andClauses) {
	case 0:
		return "", nil
	case 1:
		return andClauses[0], andValues
	default:
		return fmt.Sprintf("(%s)", strings.Join(andClauses, " AND ")), andValues
	}
}

// ToSQL converts the predicate into an SQL condition. Conjunctions are joined
// with OR and wrapped in parentheses; a single conjunction is rendered as is.
// Returns the SQL string and the values for the placeholders.
//
// Example:
//
//	CompoundPredicate{
//		{{Column: "id", Operator: "<", Value: 10}},
//		{{Column: "id", Operator: "=", Value: 10}, {Column: "name", Operator: "<", Value: "abc"}},
//	}
//
// Result:
//
//	("(id < ? OR (id = ? AND name < ?))", [10, 10, "abc"])
func (p CompoundPredicate) ToSQL(ph Placeholder) (string, []any) {
	orClauses := make([]string, 0, len(p))
	values := make([]any, 0, len(p))

	for _, conjunction := range p {
		orClause, orValues := conjunction.ToSQL(ph, len(values)+1)
		if orClause == "" {
			continue
		}

		orClauses = append(orClauses, orClause)
		values = append(values, orValues...)
	}

	switch len(orClauses) {
	case 0:
		return "TRUE", nil
	case 1:
		return orClauses[0], values
	default:
		return fmt.Sprintf("(%s)", strings.Join(orClauses, " OR ")), values
	}
}
