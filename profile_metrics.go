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

// NumericStats represents the numeric statistics of a column.
type NumericStats struct {
	MinValue    *float64
	MaxValue    *float64
	AvgValue    *float64
	StddevValue *float64
	Quartile1   *float64
	Quartile3   *float64
}

// TableMetrics represents the profiled shape of one dataset.
type TableMetrics struct {
	ProfiledAt          int64                     `json:"profiled_at"`
	TableName           string                    `json:"table_name"`
	TotalRows           int                       `json:"total_rows"`
	ColumnsMetrics      map[string]*ColumnMetrics `json:"columns_metrics"`
	RowsSample          []map[string]any          `json:"rows_sample,omitempty"`
	ProfilingDurationMs int64                     `json:"profiling_duration_ms"`
}

// ColumnMetrics represents the profiled shape of one column.
type ColumnMetrics struct {
	ColumnName          string   `json:"col_name"`
	ColumnPosition      int      `json:"col_position"`
	DataType            string   `json:"data_type"`
	NullCount           int      `json:"null_count"`
	DistinctCount       int      `json:"distinct_count"`
	BlankCount          *int     `json:"blank_count,omitempty"`         // string only
	MinValue            *float64 `json:"min_value,omitempty"`           // numeric only
	MaxValue            *float64 `json:"max_value,omitempty"`           // numeric only
	AvgValue            *float64 `json:"avg_value,omitempty"`           // numeric only
	StddevValue         *float64 `json:"stddev_value,omitempty"`        // numeric only, sample stddev
	Quartile1           *float64 `json:"q1_value,omitempty"`            // numeric only
	Quartile3           *float64 `json:"q3_value,omitempty"`            // numeric only
	MostFrequentValue   *string  `json:"most_frequent_value,omitempty"` // pointer to handle NULL as most frequent
	ProfilingDurationMs int64    `json:"profiling_duration_ms"`
}

// NonNullCount is the number of rows carrying a value in this column.
func (m *ColumnMetrics) NonNullCount(totalRows int) int {
	return totalRows - m.NullCount
}
