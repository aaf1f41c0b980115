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
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	sqecore "github.com/QualityBridge/sqe-core"
)

const defaultSampleRows = 5

// DatasetProfiler computes per-column metrics over an in-memory dataset.
// Columns are profiled concurrently, bounded by maxConcurrent.
type DatasetProfiler struct {
	logger *slog.Logger
}

func NewDatasetProfiler(logger *slog.Logger) *DatasetProfiler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DatasetProfiler{logger: logger}
}

func (p *DatasetProfiler) ProfileDataset(ctx context.Context, ds *sqecore.Dataset, tableName string, sample bool, maxConcurrent int) (*sqecore.TableMetrics, error) {
	if ds == nil {
		return nil, fmt.Errorf("dataset is required")
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	startTime := time.Now()
	metrics := &sqecore.TableMetrics{
		ProfiledAt:     time.Now().Unix(),
		TableName:      tableName,
		TotalRows:      ds.RowCount(),
		ColumnsMetrics: make(map[string]*sqecore.ColumnMetrics),
	}

	if sample {
		limit := defaultSampleRows
		if limit > ds.RowCount() {
			limit = ds.RowCount()
		}
		rows := make([]map[string]any, 0, limit)
		for i := 0; i < limit; i++ {
			rows = append(rows, ds.Record(i))
		}
		metrics.RowsSample = rows
	}

	var metricsLock sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrent)

	for position, col := range ds.Columns() {
		column := col
		columnPosition := position
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			colStartTime := time.Now()
			colMetrics := profileColumn(column)
			colMetrics.ColumnPosition = columnPosition
			colMetrics.ProfilingDurationMs = time.Since(colStartTime).Milliseconds()

			metricsLock.Lock()
			metrics.ColumnsMetrics[column.Name] = colMetrics
			metricsLock.Unlock()

			p.logger.Debug("finished profiling column",
				"col_name", column.Name,
				"proc_duration_ms", colMetrics.ProfilingDurationMs)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	metrics.ProfilingDurationMs = time.Since(startTime).Milliseconds()
	p.logger.Debug("finished data profiling for dataset",
		"table_name", tableName,
		"profile_duration_ms", metrics.ProfilingDurationMs)

	return metrics, nil
}

func profileColumn(column *sqecore.Column) *sqecore.ColumnMetrics {
	colMetrics := &sqecore.ColumnMetrics{
		ColumnName: column.Name,
		DataType:   string(column.Type),
	}

	distinct := make(map[string]int)
	var numeric []float64
	blankCount := 0

	for _, value := range column.Values {
		if value == nil {
			colMetrics.NullCount++
			continue
		}

		text := fmt.Sprintf("%v", value)
		distinct[text]++
		if text == "" {
			blankCount++
		}
		if f, ok := numericValue(value); ok {
			numeric = append(numeric, f)
		}
	}

	colMetrics.DistinctCount = len(distinct)
	if column.Type == sqecore.ColumnTypeString {
		colMetrics.BlankCount = &blankCount
	}

	if mfv, ok := mostFrequent(distinct); ok {
		colMetrics.MostFrequentValue = &mfv
	}

	if (column.Type == sqecore.ColumnTypeInteger || column.Type == sqecore.ColumnTypeFloat) && len(numeric) > 0 {
		stats := numericStats(numeric)
		colMetrics.MinValue = stats.MinValue
		colMetrics.MaxValue = stats.MaxValue
		colMetrics.AvgValue = stats.AvgValue
		colMetrics.StddevValue = stats.StddevValue
		colMetrics.Quartile1 = stats.Quartile1
		colMetrics.Quartile3 = stats.Quartile3
	}

	return colMetrics
}

func mostFrequent(counts map[string]int) (string, bool) {
	best, bestCount := "", 0
	for value, count := range counts {
		if count > bestCount || (count == bestCount && value < best) {
			best, bestCount = value, count
		}
	}
	return best, bestCount > 0
}

func numericStats(values []float64) *sqecore.NumericStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	minValue := sorted[0]
	maxValue := sorted[len(sorted)-1]

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	avg := sum / float64(len(sorted))

	var stddev float64
	if len(sorted) > 1 {
		sumSquares := 0.0
		for _, v := range sorted {
			sumSquares += (v - avg) * (v - avg)
		}
		stddev = math.Sqrt(sumSquares / float64(len(sorted)-1))
	}

	q1 := percentile(sorted, 0.25)
	q3 := percentile(sorted, 0.75)

	return &sqecore.NumericStats{
		MinValue:    &minValue,
		MaxValue:    &maxValue,
		AvgValue:    &avg,
		StddevValue: &stddev,
		Quartile1:   &q1,
		Quartile3:   &q3,
	}
}

// percentile interpolates linearly between the two nearest ranks.
// The input must already be sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	fraction := rank - float64(lower)
	return sorted[lower] + fraction*(sorted[upper]-sorted[lower])
}

func numericValue(value any) (float64, bool) {
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
	default:
		return 0, false
	}
}
