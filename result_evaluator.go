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
	"math"
)

// violationCountColumn is the conventional name templates give the aggregate
// count; its presence switches evaluation from row counting to value reading.
const violationCountColumn = "violation_count"

// ExpectationPolicy is the pass/fail rule applied to an executed query's
// result.
type ExpectationPolicy struct {
	ResultType    string
	ExpectedValue *float64
	Tolerance     float64
	MinValue      *float64
	MaxValue      *float64
}

// PolicyFromKwargs extracts the policy fields of a custom SQL expectation.
func PolicyFromKwargs(cfg *ExpectationConfig) ExpectationPolicy {
	policy := ExpectationPolicy{
		ResultType: cfg.StringKwarg("expected_result_type"),
	}
	if policy.ResultType == "" {
		policy.ResultType = ResultTypeEmpty
	}

	if v, ok := cfg.FloatKwarg("expected_value"); ok {
		policy.ExpectedValue = &v
	}
	if v, ok := cfg.FloatKwarg("tolerance"); ok {
		policy.Tolerance = v
	}
	if v, ok := cfg.FloatKwarg("min_value"); ok {
		policy.MinValue = &v
	}
	if v, ok := cfg.FloatKwarg("max_value"); ok {
		policy.MaxValue = &v
	}

	return policy
}

// EvaluateQueryResult turns an aggregate query result and the optionally
// derived violating-rows table into a ValidationResult under the given
// policy. elementCount is the row count of the full dataset.
//
// Any error while reading the result degrades to the conservative
// fail-to-fully-violated shape rather than propagating.
func EvaluateQueryResult(cfg *ExpectationConfig, policy ExpectationPolicy, resultTable, violationRows *QueryResult, elementCount int) *ValidationResult {
	if resultTable.Empty() {
		return &ValidationResult{
			Success:           false,
			ExpectationConfig: cfg,
			Result: ResultDetail{
				ElementCount:          elementCount,
				UnexpectedCount:       1,
				UnexpectedPercent:     100.0,
				PartialUnexpectedList: []map[string]any{},
			},
			ExceptionInfo: &ExceptionInfo{ExceptionMessage: "Query returned no results"},
		}
	}

	success, violationCount, err := applyPolicy(policy, resultTable)
	if err != nil {
		return FailureResult(cfg, elementCount,
			fmt.Sprintf("Custom SQL validation failed: %v", err))
	}

	detail := ResultDetail{
		ElementCount:          elementCount,
		UnexpectedCount:       violationCount,
		UnexpectedPercent:     ViolationPercent(violationCount, elementCount),
		PartialUnexpectedList: []map[string]any{},
		QueryResult:           resultTable.Records(10),
	}

	if !violationRows.Empty() {
		detail.UnexpectedRows = violationRows.Records(0)
		if violationCount > 0 {
			detail.PartialUnexpectedList = violationRows.Records(PartialUnexpectedLimit)
		}
	}

	return &ValidationResult{
		Success:           success,
		ExpectationConfig: cfg,
		Result:            detail,
	}
}

func applyPolicy(policy ExpectationPolicy, resultTable *QueryResult) (bool, int, error) {
	switch policy.ResultType {
	case ResultTypeEmpty:
		if resultTable.HasColumn(violationCountColumn) {
			count, err := resultTable.IntAt(0, violationCountColumn)
			if err != nil {
				return false, 0, err
			}
			return count == 0, count, nil
		}
		count := resultTable.RowCount()
		return count == 0, count, nil

	case ResultTypeNonEmpty:
		if resultTable.RowCount() > 0 {
			return true, 0, nil
		}
		// a flag, not a count, under this policy
		return false, 1, nil

	case ResultTypeCountEquals:
		actual, err := actualCount(resultTable)
		if err != nil {
			return false, 0, err
		}
		if policy.ExpectedValue == nil {
			return false, 1, nil
		}
		diff := math.Abs(float64(actual) - *policy.ExpectedValue)
		if diff <= policy.Tolerance {
			return true, 0, nil
		}
		return false, int(diff), nil

	case ResultTypeCountBetween:
		actual, err := actualCount(resultTable)
		if err != nil {
			return false, 0, err
		}
		minValue := 0.0
		maxValue := math.Inf(1)
		if policy.MinValue != nil {
			minValue = *policy.MinValue
		}
		if policy.MaxValue != nil {
			maxValue = *policy.MaxValue
		}
		if minValue <= float64(actual) && float64(actual) <= maxValue {
			return true, 0, nil
		}
		// distance to the nearer bound
		if float64(actual) < minValue {
			return false, int(minValue - float64(actual)), nil
		}
		return false, int(float64(actual) - maxValue), nil

	default:
		return false, 0, fmt.Errorf("unknown expected_result_type: %s", policy.ResultType)
	}
}

func actualCount(resultTable *QueryResult) (int, error) {
	if resultTable.HasColumn(violationCountColumn) {
		return resultTable.IntAt(0, violationCountColumn)
	}
	return resultTable.RowCount(), nil
}
