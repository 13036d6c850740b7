package keyset

import (
	"testing"
	"time"
)

func Test_Comparison_ToSQL(t *testing.T) {
	timeNow := time.Now().UTC()

	tests := []struct {
		name       string
		comparison Comparison
		ph         Placeholder
		n          int
		wantSQL    string
		wantVal    any
	}{
		{
			name:       "string less than",
			comparison: Comparison{Column: "name", Operator: OperatorLT, Value: "abc"},
			ph:         QuestionPlaceholder,
			n:          1,
			wantSQL:    "name < ?",
			wantVal:    "abc",
		},
		{
			name:       "timestamp greater than",
			comparison: Comparison{Column: "created_at", Operator: OperatorGT, Value: timeNow},
			ph:         QuestionPlaceholder,
			n:          1,
			wantSQL:    "created_at > ?",
			wantVal:    timeNow,
		},
		{
			name:       "timestamp string is not coerced",
			comparison: Comparison{Column: "created_at", Operator: OperatorGT, Value: "2024-01-02T03:04:05Z"},
			ph:         QuestionPlaceholder,
			n:          1,
			wantSQL:    "created_at > ?",
			wantVal:    "2024-01-02T03:04:05Z",
		},
		{
			name:       "integer equals with dollar placeholder",
			comparison: Comparison{Column: "id", Operator: OperatorEQ, Value: 10},
			ph:         DollarPlaceholder(0),
			n:          3,
			wantSQL:    "id = $3",
			wantVal:    10,
		},
		{
			name:       "float greater than with offset",
			comparison: Comparison{Column: "price", Operator: OperatorGT, Value: 99.99},
			ph:         DollarPlaceholder(2),
			n:          1,
			wantSQL:    "price > $3",
			wantVal:    99.99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotVal := tt.comparison.ToSQL(tt.ph, tt.n)

			if gotSQL != tt.wantSQL {
				t.Errorf("ToSQL() SQL = %v, want %v", gotSQL, tt.wantSQL)
			}

			if gotVal != tt.wantVal {
				t.Errorf("ToSQL() Val = %v, want %v", gotVal, tt.wantVal)
			}
		})
	}
}

func Test_Conjunction_ToSQL(t *testing.T) {
	tests := []struct {
		name        string
		conjunction Conjunction
		wantSQL     string
		wantVals    []any
	}{
		{
			name: "single comparison is rendered bare",
			conjunction: Conjunction{
				{Column: "id", Operator: OperatorGT, Value: 5},
			},
			wantSQL:  "id > ?",
			wantVals: []any{5},
		},
		{
			name: "multiple comparisons",
			conjunction: Conjunction{
				{Column: "id", Operator: OperatorEQ, Value: 5},
				{Column: "name", Operator: OperatorEQ, Value: "abc"},
				{Column: "active", Operator: OperatorGT, Value: true},
			},
			wantSQL:  "(id = ? AND name = ? AND active > ?)",
			wantVals: []any{5, "abc", true},
		},
		{
			name:        "empty conjunction",
			conjunction: Conjunction{},
			wantSQL:     "",
			wantVals:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotVals := tt.conjunction.ToSQL(QuestionPlaceholder, 1)

			if gotSQL != tt.wantSQL {
				t.Errorf("ToSQL() SQL = %v, want %v", gotSQL, tt.wantSQL)
			}

			if len(gotVals) != len(tt.wantVals) {
				t.Errorf("ToSQL() Vals length = %v, want %v", len(gotVals), len(tt.wantVals))
			}

			for i, wantVal := range tt.wantVals {
				if gotVals[i] != wantVal {
					t.Errorf("ToSQL() Vals[%d] = %v, want %v", i, gotVals[i], wantVal)
				}
			}
		})
	}
}

func Test_CompoundPredicate_ToSQL(t *testing.T) {
	tests := []struct {
		name      string
		predicate CompoundPredicate
		ph        Placeholder
		wantSQL   string
		wantVals  []any
	}{
		{
			name: "single conjunction with single comparison",
			predicate: CompoundPredicate{
				{{Column: "id", Operator: OperatorGT, Value: 5}},
			},
			ph:       QuestionPlaceholder,
			wantSQL:  "id > ?",
			wantVals: []any{5},
		},
		{
			name: "keyset predicate over two keys",
			predicate: CompoundPredicate{
				{{Column: "counter_name", Operator: OperatorLT, Value: "odd"}},
				{
					{Column: "counter_name", Operator: OperatorEQ, Value: "odd"},
					{Column: "resource_id", Operator: OperatorLT, Value: "id7"},
				},
			},
			ph:       QuestionPlaceholder,
			wantSQL:  "(counter_name < ? OR (counter_name = ? AND resource_id < ?))",
			wantVals: []any{"odd", "odd", "id7"},
		},
		{
			name: "dollar placeholders are numbered across conjunctions",
			predicate: CompoundPredicate{
				{{Column: "a", Operator: OperatorGT, Value: 1}},
				{{Column: "a", Operator: OperatorEQ, Value: 1}, {Column: "b", Operator: OperatorLT, Value: 2}},
				{
					{Column: "a", Operator: OperatorEQ, Value: 1},
					{Column: "b", Operator: OperatorEQ, Value: 2},
					{Column: "c", Operator: OperatorGT, Value: 3},
				},
			},
			ph:       DollarPlaceholder(0),
			wantSQL:  "(a > $1 OR (a = $2 AND b < $3) OR (a = $4 AND b = $5 AND c > $6))",
			wantVals: []any{1, 1, 2, 1, 2, 3},
		},
		{
			name:      "empty predicate",
			predicate: CompoundPredicate{},
			ph:        QuestionPlaceholder,
			wantSQL:   "TRUE",
			wantVals:  nil,
		},
		{
			name: "empty conjunctions are skipped",
			predicate: CompoundPredicate{
				{},
				{{Column: "id", Operator: OperatorGT, Value: 5}},
				{},
			},
			ph:       QuestionPlaceholder,
			wantSQL:  "id > ?",
			wantVals: []any{5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotVals := tt.predicate.ToSQL(tt.ph)

			if gotSQL != tt.wantSQL {
				t.Errorf("ToSQL() SQL = %v, want %v", gotSQL, tt.wantSQL)
			}

			if len(gotVals) != len(tt.wantVals) {
				t.Errorf("ToSQL() Vals length = %v, want %v", len(gotVals), len(tt.wantVals))
			}

			for i, wantVal := range tt.wantVals {
				if gotVals[i] != wantVal {
					t.Errorf("ToSQL() Vals[%d] = %v, want %v", i, gotVals[i], wantVal)
				}
			}
		})
	}
}
