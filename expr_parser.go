// Copyright 2025 The SQE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqecore

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Compact expression syntax for standard expectations in YAML rule files:
//
//	not_null(name)
//	unique(order_id)
//	row_count between 10 and 10000
//	values(age) between 0 and 120
//	in_set(category, A, B, C)
//	matches_regex(email, ^[^@]+@[^@]+$)
//
// Each expression expands into one ExpectationConfig of the fallback
// engine's standard kinds.

var (
	exprBetweenRegex  = regexp.MustCompile(`^(\w+)(?:\((.*?)\))?\s+between\s+(.+)\s+and\s+(.+)$`)
	exprOperatorRegex = regexp.MustCompile(`^(\w+)(?:\((.*?)\))?\s*([<>=!]+)\s*(.+)$`)
	exprFuncOnlyRegex = regexp.MustCompile(`^(\w+)(?:\((.*?)\))?$`)
)

// rangeExpectationTypes maps expression functions onto the *_to_be_between
// expectation kinds; they all share the min_value/max_value kwargs shape.
var rangeExpectationTypes = map[string]string{
	"row_count": "expect_table_row_count_to_be_between",
	"values":    "expect_column_values_to_be_between",
	"lengths":   "expect_column_value_lengths_to_be_between",
	"mean":      "expect_column_mean_to_be_between",
	"median":    "expect_column_median_to_be_between",
	"stdev":     "expect_column_stdev_to_be_between",
	"sum":       "expect_column_sum_to_be_between",
}

// ParseCheckExpression expands one compact check expression into an
// expectation config.
func ParseCheckExpression(expression string) (*ExpectationConfig, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("empty expression")
	}

	if matches := exprBetweenRegex.FindStringSubmatch(expression); matches != nil {
		minVal, err := parseExprValue(matches[3])
		if err != nil {
			return nil, fmt.Errorf("failed to parse min value: %v", err)
		}
		maxVal, err := parseExprValue(matches[4])
		if err != nil {
			return nil, fmt.Errorf("failed to parse max value: %v", err)
		}
		return buildRangeExpectation(matches[1], parseExprParameters(matches[2]), minVal, maxVal)
	}

	if matches := exprOperatorRegex.FindStringSubmatch(expression); matches != nil {
		value, err := parseExprValue(matches[4])
		if err != nil {
			return nil, fmt.Errorf("failed to parse threshold value: %v", err)
		}

		params := parseExprParameters(matches[2])
		switch matches[3] {
		case ">=":
			return buildRangeExpectation(matches[1], params, value, nil)
		case "<=":
			return buildRangeExpectation(matches[1], params, nil, value)
		case "==", "=":
			return buildRangeExpectation(matches[1], params, value, value)
		default:
			return nil, fmt.Errorf("unsupported operator %q in expression: %s", matches[3], expression)
		}
	}

	if matches := exprFuncOnlyRegex.FindStringSubmatch(expression); matches != nil {
		return buildSimpleExpectation(matches[1], parseExprParameters(matches[2]))
	}

	return nil, fmt.Errorf("invalid expression format: %s", expression)
}

func buildRangeExpectation(function string, params []string, minVal, maxVal any) (*ExpectationConfig, error) {
	expectationType, ok := rangeExpectationTypes[function]
	if !ok {
		return nil, fmt.Errorf("function %q does not support range thresholds", function)
	}

	kwargs := map[string]any{}
	if minVal != nil {
		kwargs["min_value"] = minVal
	}
	if maxVal != nil {
		kwargs["max_value"] = maxVal
	}

	if function != "row_count" {
		if len(params) == 0 {
			return nil, fmt.Errorf("%s check requires a column parameter", function)
		}
		kwargs["column"] = params[0]
	}

	return &ExpectationConfig{Type: expectationType, Kwargs: kwargs}, nil
}

func buildSimpleExpectation(function string, params []string) (*ExpectationConfig, error) {
	requireColumn := func() (string, error) {
		if len(params) == 0 {
			return "", fmt.Errorf("%s check requires a column parameter", function)
		}
		return params[0], nil
	}

	switch function {
	case "not_null":
		column, err := requireColumn()
		if err != nil {
			return nil, err
		}
		return &ExpectationConfig{
			Type:   "expect_column_values_to_not_be_null",
			Kwargs: map[string]any{"column": column},
		}, nil

	case "unique":
		column, err := requireColumn()
		if err != nil {
			return nil, err
		}
		return &ExpectationConfig{
			Type:   "expect_column_values_to_be_unique",
			Kwargs: map[string]any{"column": column},
		}, nil

	case "in_set":
		if len(params) < 2 {
			return nil, fmt.Errorf("in_set check requires a column and at least one value")
		}
		valueSet := make([]any, len(params)-1)
		for i, v := range params[1:] {
			valueSet[i] = v
		}
		return &ExpectationConfig{
			Type:   "expect_column_values_to_be_in_set",
			Kwargs: map[string]any{"column": params[0], "value_set": valueSet},
		}, nil

	case "matches_regex":
		if len(params) < 2 {
			return nil, fmt.Errorf("matches_regex check requires a column and a pattern")
		}
		// patterns containing commas were split with the rest of the
		// parameter list; stitch them back together
		return &ExpectationConfig{
			Type:   "expect_column_values_to_match_regex",
			Kwargs: map[string]any{"column": params[0], "regex": strings.Join(params[1:], ", ")},
		}, nil

	case "of_type":
		if len(params) < 2 {
			return nil, fmt.Errorf("of_type check requires a column and a type name")
		}
		return &ExpectationConfig{
			Type:   "expect_column_values_to_be_of_type",
			Kwargs: map[string]any{"column": params[0], "type_": params[1]},
		}, nil

	case "date_parseable":
		column, err := requireColumn()
		if err != nil {
			return nil, err
		}
		return &ExpectationConfig{
			Type:   "expect_column_values_to_be_dateutil_parseable",
			Kwargs: map[string]any{"column": column},
		}, nil

	case "strftime":
		if len(params) < 2 {
			return nil, fmt.Errorf("strftime check requires a column and a format")
		}
		return &ExpectationConfig{
			Type:   "expect_column_values_to_match_strftime_format",
			Kwargs: map[string]any{"column": params[0], "strftime_format": params[1]},
		}, nil

	default:
		return nil, fmt.Errorf("unknown check function: %s", function)
	}
}

func parseExprParameters(paramStr string) []string {
	if paramStr == "" {
		return []string{}
	}

	params := strings.Split(paramStr, ",")
	for i, param := range params {
		params[i] = strings.TrimSpace(param)
	}
	return params
}

func parseExprValue(valueStr string) (any, error) {
	valueStr = strings.TrimSpace(valueStr)
	if valueStr == "" {
		return nil, fmt.Errorf("empty value")
	}

	if strings.Contains(valueStr, ".") {
		if floatVal, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return floatVal, nil
		}
	}
	if intVal, err := strconv.Atoi(valueStr); err == nil {
		return intVal, nil
	}

	return valueStr, nil
}
