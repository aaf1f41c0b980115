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

package profilers

import (
	"math"
	"sort"
	"strings"

	sqecore "github.com/QualityBridge/sqe-core"
)

const (
	// rowCountTolerance widens the suggested row-count bounds around the
	// profiled total.
	rowCountTolerance = 0.05

	// notNullThreshold is the highest null ratio for which a not-null
	// rule is still worth suggesting.
	notNullThreshold = 0.10

	// uniqueRatioThreshold marks a column as a uniqueness candidate.
	uniqueRatioThreshold = 0.95

	iqrMultiplier = 1.5
)

// SuggestExpectations derives a starter suite from profiled metrics:
// table-level shape rules first, then per-column rules in column order.
// Suggestions are heuristics meant to be reviewed, not applied blindly.
func SuggestExpectations(ds *sqecore.Dataset, metrics *sqecore.TableMetrics) []sqecore.ExpectationConfig {
	var suggestions []sqecore.ExpectationConfig

	if metrics.TotalRows > 0 {
		lower := float64(metrics.TotalRows) * (1 - rowCountTolerance)
		upper := float64(metrics.TotalRows) * (1 + rowCountTolerance)
		suggestions = append(suggestions, sqecore.ExpectationConfig{
			Type: "expect_table_row_count_to_be_between",
			Kwargs: map[string]any{
				"min_value": math.Floor(lower),
				"max_value": math.Ceil(upper),
			},
		})
	}

	columnNames := ds.ColumnNames()
	columnList := make([]any, len(columnNames))
	for i, name := range columnNames {
		columnList[i] = name
	}
	suggestions = append(suggestions, sqecore.ExpectationConfig{
		Type:   "expect_table_columns_to_match_ordered_list",
		Kwargs: map[string]any{"column_list": columnList},
	})

	for _, colMetrics := range orderedColumnMetrics(metrics) {
		suggestions = append(suggestions, suggestColumnExpectations(colMetrics, metrics.TotalRows)...)
	}

	return suggestions
}

func suggestColumnExpectations(m *sqecore.ColumnMetrics, totalRows int) []sqecore.ExpectationConfig {
	var suggestions []sqecore.ExpectationConfig
	if totalRows == 0 {
		return suggestions
	}

	nullRatio := float64(m.NullCount) / float64(totalRows)
	if nullRatio < notNullThreshold {
		suggestions = append(suggestions, sqecore.ExpectationConfig{
			Type:   "expect_column_values_to_not_be_null",
			Kwargs: map[string]any{"column": m.ColumnName},
		})
	}

	if looksLikeIdentifier(m.ColumnName) || uniqueRatio(m, totalRows) >= uniqueRatioThreshold {
		suggestions = append(suggestions, sqecore.ExpectationConfig{
			Type:   "expect_column_values_to_be_unique",
			Kwargs: map[string]any{"column": m.ColumnName},
		})
	}

	// IQR bounds catch outliers wider than the observed min/max would
	if m.Quartile1 != nil && m.Quartile3 != nil {
		iqr := *m.Quartile3 - *m.Quartile1
		suggestions = append(suggestions, sqecore.ExpectationConfig{
			Type: "expect_column_values_to_be_between",
			Kwargs: map[string]any{
				"column":    m.ColumnName,
				"min_value": *m.Quartile1 - iqrMultiplier*iqr,
				"max_value": *m.Quartile3 + iqrMultiplier*iqr,
			},
		})
	}

	if m.AvgValue != nil && m.StddevValue != nil && *m.StddevValue > 0 {
		suggestions = append(suggestions, sqecore.ExpectationConfig{
			Type: "expect_column_mean_to_be_between",
			Kwargs: map[string]any{
				"column":    m.ColumnName,
				"min_value": *m.AvgValue - 2**m.StddevValue,
				"max_value": *m.AvgValue + 2**m.StddevValue,
			},
		})
	}

	return suggestions
}

func uniqueRatio(m *sqecore.ColumnMetrics, totalRows int) float64 {
	nonNull := m.NonNullCount(totalRows)
	if nonNull == 0 {
		return 0
	}
	return float64(m.DistinctCount) / float64(nonNull)
}

func looksLikeIdentifier(columnName string) bool {
	name := strings.ToLower(columnName)
	return name == "id" || name == "uuid" || name == "key" ||
		strings.HasSuffix(name, "_id") || strings.HasSuffix(name, "_key") ||
		strings.HasSuffix(name, "_uuid")
}

func orderedColumnMetrics(metrics *sqecore.TableMetrics) []*sqecore.ColumnMetrics {
	ordered := make([]*sqecore.ColumnMetrics, 0, len(metrics.ColumnsMetrics))
	for _, m := range metrics.ColumnsMetrics {
		ordered = append(ordered, m)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ColumnPosition < ordered[j].ColumnPosition
	})
	return ordered
}
