package sqecore

import (
	"reflect"
	"testing"
)

func TestParseCheckExpression(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		expected    *ExpectationConfig
		expectError bool
	}{
		{
			name:       "not_null",
			expression: "not_null(customer_id)",
			expected: &ExpectationConfig{
				Type:   "expect_column_values_to_not_be_null",
				Kwargs: map[string]any{"column": "customer_id"},
			},
		},
		{
			name:       "unique",
			expression: "unique(order_id)",
			expected: &ExpectationConfig{
				Type:   "expect_column_values_to_be_unique",
				Kwargs: map[string]any{"column": "order_id"},
			},
		},
		{
			name:       "row_count between",
			expression: "row_count between 10 and 10000",
			expected: &ExpectationConfig{
				Type:   "expect_table_row_count_to_be_between",
				Kwargs: map[string]any{"min_value": 10, "max_value": 10000},
			},
		},
		{
			name:       "row_count lower bound only",
			expression: "row_count >= 100",
			expected: &ExpectationConfig{
				Type:   "expect_table_row_count_to_be_between",
				Kwargs: map[string]any{"min_value": 100},
			},
		},
		{
			name:       "values between",
			expression: "values(age) between 0 and 120",
			expected: &ExpectationConfig{
				Type:   "expect_column_values_to_be_between",
				Kwargs: map[string]any{"column": "age", "min_value": 0, "max_value": 120},
			},
		},
		{
			name:       "values between floats",
			expression: "values(price) between 0.5 and 99.99",
			expected: &ExpectationConfig{
				Type:   "expect_column_values_to_be_between",
				Kwargs: map[string]any{"column": "price", "min_value": 0.5, "max_value": 99.99},
			},
		},
		{
			name:       "lengths between",
			expression: "lengths(name) between 1 and 50",
			expected: &ExpectationConfig{
				Type:   "expect_column_value_lengths_to_be_between",
				Kwargs: map[string]any{"column": "name", "min_value": 1, "max_value": 50},
			},
		},
		{
			name:       "mean between",
			expression: "mean(amount) between 10 and 500",
			expected: &ExpectationConfig{
				Type:   "expect_column_mean_to_be_between",
				Kwargs: map[string]any{"column": "amount", "min_value": 10, "max_value": 500},
			},
		},
		{
			name:       "stdev upper bound",
			expression: "stdev(amount) <= 100",
			expected: &ExpectationConfig{
				Type:   "expect_column_stdev_to_be_between",
				Kwargs: map[string]any{"column": "amount", "max_value": 100},
			},
		},
		{
			name:       "sum exact",
			expression: "sum(quantity) == 500",
			expected: &ExpectationConfig{
				Type:   "expect_column_sum_to_be_between",
				Kwargs: map[string]any{"column": "quantity", "min_value": 500, "max_value": 500},
			},
		},
		{
			name:       "in_set",
			expression: "in_set(category, A, B, C)",
			expected: &ExpectationConfig{
				Type:   "expect_column_values_to_be_in_set",
				Kwargs: map[string]any{"column": "category", "value_set": []any{"A", "B", "C"}},
			},
		},
		{
			name:       "matches_regex",
			expression: "matches_regex(email, ^[^@]+@[^@]+$)",
			expected: &ExpectationConfig{
				Type:   "expect_column_values_to_match_regex",
				Kwargs: map[string]any{"column": "email", "regex": "^[^@]+@[^@]+$"},
			},
		},
		{
			name:       "of_type",
			expression: "of_type(age, int)",
			expected: &ExpectationConfig{
				Type:   "expect_column_values_to_be_of_type",
				Kwargs: map[string]any{"column": "age", "type_": "int"},
			},
		},
		{
			name:       "date_parseable",
			expression: "date_parseable(created_at)",
			expected: &ExpectationConfig{
				Type:   "expect_column_values_to_be_dateutil_parseable",
				Kwargs: map[string]any{"column": "created_at"},
			},
		},
		{
			name:        "empty expression",
			expression:  "",
			expectError: true,
		},
		{
			name:        "unknown function",
			expression:  "freshness(updated_at)",
			expectError: true,
		},
		{
			name:        "not_null without column",
			expression:  "not_null()",
			expectError: true,
		},
		{
			name:        "unsupported operator",
			expression:  "row_count != 5",
			expectError: true,
		},
		{
			name:        "range on non numeric function",
			expression:  "not_null(a) between 1 and 2",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCheckExpression(tt.expression)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCheckExpression: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("got  %+v\nwant %+v", got, tt.expected)
			}
		})
	}
}
