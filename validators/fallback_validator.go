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

package validators

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"

	sqecore "github.com/QualityBridge/sqe-core"
)

// FallbackValidator evaluates the standard (non-SQL) expectation kinds
// directly against the in-memory table. Rules it cannot evaluate produce a
// failure result instead of an error, so one broken rule never aborts the
// rest of a suite.
type FallbackValidator struct {
	logger *slog.Logger
}

func NewFallbackValidator(logger *slog.Logger) *FallbackValidator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FallbackValidator{logger: logger}
}

// SupportedExpectationTypes lists the rule kinds the fallback engine
// evaluates natively, in a stable order.
func SupportedExpectationTypes() []string {
	return []string{
		"expect_table_row_count_to_be_between",
		"expect_table_columns_to_match_ordered_list",
		"expect_column_values_to_not_be_null",
		"expect_column_values_to_be_unique",
		"expect_column_values_to_be_of_type",
		"expect_column_values_to_be_in_set",
		"expect_column_values_to_be_between",
		"expect_column_value_lengths_to_be_between",
		"expect_column_values_to_match_regex",
		"expect_column_values_to_be_dateutil_parseable",
		"expect_column_values_to_match_strftime_format",
		"expect_column_mean_to_be_between",
		"expect_column_median_to_be_between",
		"expect_column_stdev_to_be_between",
		"expect_column_sum_to_be_between",
	}
}

// ValidateExpectation dispatches one expectation on its kind. Unknown kinds
// come back as a generic "not implemented" failure.
func (v *FallbackValidator) ValidateExpectation(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig) *sqecore.ValidationResult {
	switch cfg.Type {
	case "expect_table_row_count_to_be_between":
		return v.rowCountBetween(ds, cfg)
	case "expect_table_columns_to_match_ordered_list":
		return v.columnsMatchOrderedList(ds, cfg)
	case "expect_column_values_to_not_be_null":
		return v.columnCheck(ds, cfg, func(value any) bool {
			return value != nil
		}, true)
	case "expect_column_values_to_be_unique":
		return v.valuesUnique(ds, cfg)
	case "expect_column_values_to_be_of_type":
		return v.valuesOfType(ds, cfg)
	case "expect_column_values_to_be_in_set":
		return v.valuesInSet(ds, cfg)
	case "expect_column_values_to_be_between":
		return v.valuesBetween(ds, cfg)
	case "expect_column_value_lengths_to_be_between":
		return v.valueLengthsBetween(ds, cfg)
	case "expect_column_values_to_match_regex":
		return v.valuesMatchRegex(ds, cfg)
	case "expect_column_values_to_be_dateutil_parseable":
		return v.valuesDateParseable(ds, cfg)
	case "expect_column_values_to_match_strftime_format":
		return v.valuesMatchTimeFormat(ds, cfg)
	case "expect_column_mean_to_be_between":
		return v.aggregateBetween(ds, cfg, aggregateMean)
	case "expect_column_median_to_be_between":
		return v.aggregateBetween(ds, cfg, aggregateMedian)
	case "expect_column_stdev_to_be_between":
		return v.aggregateBetween(ds, cfg, aggregateStdev)
	case "expect_column_sum_to_be_between":
		return v.aggregateBetween(ds, cfg, aggregateSum)
	default:
		v.logger.Warn("expectation type not implemented in fallback engine",
			"expectation_type", cfg.Type)
		return sqecore.FailureResult(cfg, ds.RowCount(),
			fmt.Sprintf("expectation type not implemented: %s", cfg.Type))
	}
}

// columnCheck evaluates a per-value predicate over one column and builds the
// standard result shape: every row whose value fails the predicate counts as
// unexpected. Nulls are skipped unless includeNulls is set.
func (v *FallbackValidator) columnCheck(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig, accept func(any) bool, includeNulls bool) *sqecore.ValidationResult {
	columnName := cfg.StringKwarg("column")
	column, ok := ds.Column(columnName)
	if !ok {
		return sqecore.FailureResult(cfg, ds.RowCount(),
			fmt.Sprintf("column not found: %s", columnName))
	}

	var violations []int
	for i, value := range column.Values {
		if value == nil && !includeNulls {
			continue
		}
		if !accept(value) {
			violations = append(violations, i)
		}
	}

	return buildColumnResult(ds, cfg, violations)
}

func (v *FallbackValidator) rowCountBetween(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig) *sqecore.ValidationResult {
	minValue, maxValue := rangeBounds(cfg)
	rowCount := ds.RowCount()
	success := float64(rowCount) >= minValue && float64(rowCount) <= maxValue
	return aggregateResult(ds, cfg, success, rowCount)
}

func (v *FallbackValidator) columnsMatchOrderedList(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig) *sqecore.ValidationResult {
	expected := cfg.StringsKwarg("column_list")
	actual := ds.ColumnNames()

	success := len(expected) == len(actual)
	if success {
		for i := range expected {
			if expected[i] != actual[i] {
				success = false
				break
			}
		}
	}
	return aggregateResult(ds, cfg, success, actual)
}

func (v *FallbackValidator) valuesUnique(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig) *sqecore.ValidationResult {
	columnName := cfg.StringKwarg("column")
	column, ok := ds.Column(columnName)
	if !ok {
		return sqecore.FailureResult(cfg, ds.RowCount(),
			fmt.Sprintf("column not found: %s", columnName))
	}

	occurrences := make(map[string]int)
	for _, value := range column.Values {
		if value == nil {
			continue
		}
		occurrences[fmt.Sprintf("%v", value)]++
	}

	// every occurrence of a duplicated value counts as a violation
	var violations []int
	for i, value := range column.Values {
		if value == nil {
			continue
		}
		if occurrences[fmt.Sprintf("%v", value)] > 1 {
			violations = append(violations, i)
		}
	}

	return buildColumnResult(ds, cfg, violations)
}

// typeAliases maps the persisted type names (pandas/primary-library flavored)
// onto dataset column types.
var typeAliases = map[string]sqecore.ColumnType{
	"int":            sqecore.ColumnTypeInteger,
	"int64":          sqecore.ColumnTypeInteger,
	"integer":        sqecore.ColumnTypeInteger,
	"float":          sqecore.ColumnTypeFloat,
	"float64":        sqecore.ColumnTypeFloat,
	"double":         sqecore.ColumnTypeFloat,
	"str":            sqecore.ColumnTypeString,
	"string":         sqecore.ColumnTypeString,
	"object":         sqecore.ColumnTypeString,
	"bool":           sqecore.ColumnTypeBool,
	"boolean":        sqecore.ColumnTypeBool,
	"datetime":       sqecore.ColumnTypeTimestamp,
	"datetime64":     sqecore.ColumnTypeTimestamp,
	"datetime64[ns]": sqecore.ColumnTypeTimestamp,
	"timestamp":      sqecore.ColumnTypeTimestamp,
}

func (v *FallbackValidator) valuesOfType(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig) *sqecore.ValidationResult {
	columnName := cfg.StringKwarg("column")
	column, ok := ds.Column(columnName)
	if !ok {
		return sqecore.FailureResult(cfg, ds.RowCount(),
			fmt.Sprintf("column not found: %s", columnName))
	}

	typeName := cfg.StringKwarg("type_")
	if typeName == "" {
		typeName = cfg.StringKwarg("type")
	}
	expectedType, known := typeAliases[typeName]
	if !known {
		return sqecore.FailureResult(cfg, ds.RowCount(),
			fmt.Sprintf("unknown type name: %s", typeName))
	}

	success := column.Type == expectedType
	// an integer column satisfies a float expectation
	if !success && expectedType == sqecore.ColumnTypeFloat && column.Type == sqecore.ColumnTypeInteger {
		success = true
	}
	return aggregateResult(ds, cfg, success, string(column.Type))
}

func (v *FallbackValidator) valuesInSet(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig) *sqecore.ValidationResult {
	allowed := make(map[string]struct{})
	for _, value := range cfg.StringsKwarg("value_set") {
		allowed[value] = struct{}{}
	}

	return v.columnCheck(ds, cfg, func(value any) bool {
		_, ok := allowed[fmt.Sprintf("%v", value)]
		return ok
	}, false)
}

func (v *FallbackValidator) valuesBetween(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig) *sqecore.ValidationResult {
	minValue, maxValue := rangeBounds(cfg)
	return v.columnCheck(ds, cfg, func(value any) bool {
		numeric, ok := toFloat(value)
		if !ok {
			return false
		}
		return numeric >= minValue && numeric <= maxValue
	}, false)
}

func (v *FallbackValidator) valueLengthsBetween(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig) *sqecore.ValidationResult {
	minValue, maxValue := rangeBounds(cfg)
	return v.columnCheck(ds, cfg, func(value any) bool {
		length := float64(len([]rune(fmt.Sprintf("%v", value))))
		return length >= minValue && length <= maxValue
	}, false)
}

func (v *FallbackValidator) valuesMatchRegex(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig) *sqecore.ValidationResult {
	pattern := cfg.StringKwarg("regex")
	re, err := regexp.Compile(pattern)
	if err != nil {
		return sqecore.FailureResult(cfg, ds.RowCount(),
			fmt.Sprintf("invalid regex %q: %v", pattern, err))
	}

	// partial match, like re.search in the primary library
	return v.columnCheck(ds, cfg, func(value any) bool {
		return re.MatchString(fmt.Sprintf("%v", value))
	}, false)
}

// dateLayouts are the formats the parseability check accepts, roughly the
// common subset a lenient date parser would recognize.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC1123,
}

func (v *FallbackValidator) valuesDateParseable(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig) *sqecore.ValidationResult {
	return v.columnCheck(ds, cfg, func(value any) bool {
		if _, ok := value.(time.Time); ok {
			return true
		}
		text := fmt.Sprintf("%v", value)
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, text); err == nil {
				return true
			}
		}
		return false
	}, false)
}

// strftimeToLayout translates the strftime directives the persisted rules
// use into a Go reference layout. Unknown directives pass through verbatim.
var strftimeDirectives = map[byte]string{
	'Y': "2006", 'y': "06",
	'm': "01", 'd': "02",
	'H': "15", 'M': "04", 'S': "05",
	'b': "Jan", 'B': "January",
	'a': "Mon", 'A': "Monday",
	'p': "PM",
	'z': "-0700", 'Z': "MST",
	'%': "%",
}

func strftimeToLayout(format string) string {
	var layout []byte
	for i := 0; i < len(format); i++ {
		if format[i] == '%' && i+1 < len(format) {
			if repl, ok := strftimeDirectives[format[i+1]]; ok {
				layout = append(layout, repl...)
				i++
				continue
			}
		}
		layout = append(layout, format[i])
	}
	return string(layout)
}

func (v *FallbackValidator) valuesMatchTimeFormat(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig) *sqecore.ValidationResult {
	layout := strftimeToLayout(cfg.StringKwarg("strftime_format"))
	return v.columnCheck(ds, cfg, func(value any) bool {
		_, err := time.Parse(layout, fmt.Sprintf("%v", value))
		return err == nil
	}, false)
}

type aggregateFn func(values []float64) (float64, error)

func (v *FallbackValidator) aggregateBetween(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig, aggregate aggregateFn) *sqecore.ValidationResult {
	columnName := cfg.StringKwarg("column")
	column, ok := ds.Column(columnName)
	if !ok {
		return sqecore.FailureResult(cfg, ds.RowCount(),
			fmt.Sprintf("column not found: %s", columnName))
	}

	var numeric []float64
	for _, value := range column.Values {
		if value == nil {
			continue
		}
		if f, ok := toFloat(value); ok {
			numeric = append(numeric, f)
		}
	}

	observed, err := aggregate(numeric)
	if err != nil {
		return sqecore.FailureResult(cfg, ds.RowCount(),
			fmt.Sprintf("cannot evaluate %s on column %s: %v", cfg.Type, columnName, err))
	}

	minValue, maxValue := rangeBounds(cfg)
	success := observed >= minValue && observed <= maxValue
	return aggregateResult(ds, cfg, success, observed)
}

func aggregateMean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("no numeric values")
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

func aggregateMedian(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("no numeric values")
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2, nil
	}
	return sorted[mid], nil
}

// aggregateStdev is the sample standard deviation (n-1 denominator).
func aggregateStdev(values []float64) (float64, error) {
	if len(values) < 2 {
		return 0, fmt.Errorf("need at least two numeric values")
	}
	mean, _ := aggregateMean(values)
	sumSquares := 0.0
	for _, v := range values {
		sumSquares += (v - mean) * (v - mean)
	}
	return math.Sqrt(sumSquares / float64(len(values)-1)), nil
}

func aggregateSum(values []float64) (float64, error) {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum, nil
}

// buildColumnResult turns violating row indices into the standard result
// shape with a capped row-record preview.
func buildColumnResult(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig, violations []int) *sqecore.ValidationResult {
	elementCount := ds.RowCount()
	partial := make([]map[string]any, 0, min(len(violations), sqecore.PartialUnexpectedLimit))
	unexpectedRows := make([]map[string]any, 0, len(violations))
	for _, rowIndex := range violations {
		record := ds.Record(rowIndex)
		unexpectedRows = append(unexpectedRows, record)
		if len(partial) < sqecore.PartialUnexpectedLimit {
			partial = append(partial, record)
		}
	}

	result := &sqecore.ValidationResult{
		Success:           len(violations) == 0,
		ExpectationConfig: cfg,
		Result: sqecore.ResultDetail{
			ElementCount:          elementCount,
			UnexpectedCount:       len(violations),
			UnexpectedPercent:     sqecore.ViolationPercent(len(violations), elementCount),
			PartialUnexpectedList: partial,
		},
	}
	if len(unexpectedRows) > 0 {
		result.Result.UnexpectedRows = unexpectedRows
	}
	return result
}

// aggregateResult is the shape for table-level and aggregate checks, which
// pass or fail as a whole rather than per row. A failed check counts the
// entire table as unexpected.
func aggregateResult(ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig, success bool, observed any) *sqecore.ValidationResult {
	elementCount := ds.RowCount()
	unexpectedCount := 0
	if !success {
		unexpectedCount = elementCount
	}
	return &sqecore.ValidationResult{
		Success:           success,
		ExpectationConfig: cfg,
		Result: sqecore.ResultDetail{
			ElementCount:          elementCount,
			UnexpectedCount:       unexpectedCount,
			UnexpectedPercent:     sqecore.ViolationPercent(unexpectedCount, elementCount),
			PartialUnexpectedList: []map[string]any{},
			ObservedValue:         observed,
		},
	}
}

func rangeBounds(cfg *sqecore.ExpectationConfig) (float64, float64) {
	minValue := math.Inf(-1)
	maxValue := math.Inf(1)
	if v, ok := cfg.FloatKwarg("min_value"); ok {
		minValue = v
	}
	if v, ok := cfg.FloatKwarg("max_value"); ok {
		maxValue = v
	}
	return minValue, maxValue
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
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
