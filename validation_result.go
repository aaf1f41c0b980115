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

// PartialUnexpectedLimit caps the violating-row preview carried inside a
// ValidationResult. The full list stays available separately for export.
const PartialUnexpectedLimit = 100

// ValidationResult is the outcome of evaluating one expectation against one
// dataset snapshot. Results are materialized fresh on every run and never
// mutated afterwards.
type ValidationResult struct {
	Success           bool               `json:"success"`
	ExpectationConfig *ExpectationConfig `json:"expectation_config"`
	Result            ResultDetail       `json:"result"`
	ExceptionInfo     *ExceptionInfo     `json:"exception_info,omitempty"`
}

// ResultDetail carries the counts and row samples of a single evaluation.
// ElementCount is the row count of the full dataset, not of the query result.
type ResultDetail struct {
	ElementCount          int              `json:"element_count"`
	UnexpectedCount       int              `json:"unexpected_count"`
	UnexpectedPercent     float64          `json:"unexpected_percent"`
	PartialUnexpectedList []map[string]any `json:"partial_unexpected_list"`

	// ObservedValue carries the measured aggregate for table-level and
	// aggregate checks (row count, mean, sum), when one applies.
	ObservedValue any `json:"observed_value,omitempty"`

	// UnexpectedRows is the uncapped violating-row list for export,
	// populated only when row-level detail could be derived.
	UnexpectedRows []map[string]any `json:"unexpected_rows_data,omitempty"`

	// QueryResult keeps the first rows of the aggregate query result for
	// debugging failed SQL expectations.
	QueryResult []map[string]any `json:"query_result,omitempty"`
}

type ExceptionInfo struct {
	ExceptionMessage string `json:"exception_message"`
}

// SuiteStatistics aggregates one sequential pass over a suite.
type SuiteStatistics struct {
	EvaluatedExpectations    int     `json:"evaluated_expectations"`
	SuccessfulExpectations   int     `json:"successful_expectations"`
	UnsuccessfulExpectations int     `json:"unsuccessful_expectations"`
	SuccessPercent           float64 `json:"success_percent"`
}

// SuiteValidationResult is the materialized outcome of one validation run.
type SuiteValidationResult struct {
	Success    bool                `json:"success"`
	Results    []*ValidationResult `json:"results"`
	Statistics SuiteStatistics     `json:"statistics"`
	Meta       RunMeta             `json:"meta"`
}

type RunMeta struct {
	SuiteName       string `json:"suite_name"`
	DatasetRows     int    `json:"dataset_rows"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
}

// ViolationPercent computes unexpected_percent, defined as 0 when the dataset
// is empty so an empty table never produces a division error.
func ViolationPercent(violationCount, elementCount int) float64 {
	if elementCount == 0 {
		return 0
	}
	return float64(violationCount) / float64(elementCount) * 100
}

// FailureResult builds the conservative failure shape used whenever an
// expectation cannot be evaluated at all: the entire dataset is counted as
// violating. Surprising but deliberate; see DESIGN.md.
func FailureResult(cfg *ExpectationConfig, elementCount int, message string) *ValidationResult {
	return &ValidationResult{
		Success:           false,
		ExpectationConfig: cfg,
		Result: ResultDetail{
			ElementCount:          elementCount,
			UnexpectedCount:       elementCount,
			UnexpectedPercent:     ViolationPercent(elementCount, elementCount),
			PartialUnexpectedList: []map[string]any{},
		},
		ExceptionInfo: &ExceptionInfo{ExceptionMessage: message},
	}
}
