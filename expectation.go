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
	"strconv"
)

const (
	// ExpectationTypeCustomSQL is the rule kind evaluated by the SQL
	// expectation engine instead of the standard fallback kinds.
	ExpectationTypeCustomSQL = "expect_custom_sql_query_to_return_expected_result"

	// Expected-result policies for custom SQL expectations.
	ResultTypeEmpty        = "empty"
	ResultTypeNonEmpty     = "non_empty"
	ResultTypeCountEquals  = "count_equals"
	ResultTypeCountBetween = "count_between"
)

// ExpectationConfig is a single persisted rule: a kind plus named arguments.
type ExpectationConfig struct {
	Type   string         `json:"expectation_type" yaml:"expectation_type"`
	Kwargs map[string]any `json:"kwargs" yaml:"kwargs"`
}

// Suite is an ordered collection of expectations evaluated together against
// one dataset. Expectation names are not required to be unique.
type Suite struct {
	Name         string              `json:"suite_name"`
	Expectations []ExpectationConfig `json:"expectations"`
}

func (s *Suite) AddExpectation(cfg ExpectationConfig) {
	s.Expectations = append(s.Expectations, cfg)
}

// StringKwarg returns the named argument as a string, or "" when absent.
func (c *ExpectationConfig) StringKwarg(name string) string {
	v, ok := c.Kwargs[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// FloatKwarg returns the named argument as a float64 and whether it was
// present and numeric. JSON decoding hands numbers over as float64; YAML and
// programmatic construction may use ints or numeric strings.
func (c *ExpectationConfig) FloatKwarg(name string) (float64, bool) {
	v, ok := c.Kwargs[name]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// StringsKwarg returns the named argument as a string slice. JSON decoding
// produces []any; each element is stringified.
func (c *ExpectationConfig) StringsKwarg(name string) []string {
	v, ok := c.Kwargs[name]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			out[i] = fmt.Sprintf("%v", item)
		}
		return out
	default:
		return nil
	}
}

// AnyKwarg returns the raw named argument.
func (c *ExpectationConfig) AnyKwarg(name string) (any, bool) {
	v, ok := c.Kwargs[name]
	return v, ok
}

// BuildSQLExpectationConfig assembles a custom SQL expectation from its
// policy fields. expectedResultType defaults to "empty"; expectedValue is
// only recorded when the policy needs one.
func BuildSQLExpectationConfig(name, query, expectedResultType, description string, tolerance float64, expectedValue *float64) *ExpectationConfig {
	if expectedResultType == "" {
		expectedResultType = ResultTypeEmpty
	}

	kwargs := map[string]any{
		"name":                 name,
		"query":                query,
		"expected_result_type": expectedResultType,
		"description":          description,
		"tolerance":            tolerance,
	}
	if expectedValue != nil {
		kwargs["expected_value"] = *expectedValue
	}

	return &ExpectationConfig{
		Type:   ExpectationTypeCustomSQL,
		Kwargs: kwargs,
	}
}
