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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // embedded SQL engine
)

const (
	// TableNamePlaceholder is the textual token a query carries in place of
	// the concrete table name. Binding substitutes every occurrence.
	TableNamePlaceholder = "{table_name}"

	// DefaultTableName is the name a dataset is bound under when the caller
	// does not pick one.
	DefaultTableName = "data_table"
)

// ErrQueryTimeout marks an execution cancelled by the per-query deadline.
var ErrQueryTimeout = errors.New("query execution timed out")

// QueryResult is an ordered result table returned by a query execution.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

func (r *QueryResult) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

func (r *QueryResult) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

func (r *QueryResult) ColumnIndex(name string) int {
	if r == nil {
		return -1
	}
	for i, col := range r.Columns {
		if strings.EqualFold(col, name) {
			return i
		}
	}
	return -1
}

func (r *QueryResult) HasColumn(name string) bool {
	return r.ColumnIndex(name) >= 0
}

// IntAt reads one cell as an integer, tolerating the driver handing numbers
// back as int64, float64, []byte or string.
func (r *QueryResult) IntAt(row int, column string) (int, error) {
	idx := r.ColumnIndex(column)
	if idx < 0 {
		return 0, fmt.Errorf("column %s not present in result", column)
	}
	if row < 0 || row >= len(r.Rows) {
		return 0, fmt.Errorf("row %d out of range", row)
	}

	switch v := r.Rows[row][idx].(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case []byte:
		n, err := strconv.Atoi(strings.TrimSpace(string(v)))
		if err != nil {
			return 0, fmt.Errorf("non-numeric value in column %s: %q", column, string(v))
		}
		return n, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("non-numeric value in column %s: %q", column, v)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("NULL value in column %s", column)
	default:
		return 0, fmt.Errorf("unsupported value type %T in column %s", v, column)
	}
}

// Records materializes up to limit rows as ordered maps; limit <= 0 means
// all rows.
func (r *QueryResult) Records(limit int) []map[string]any {
	if r == nil {
		return []map[string]any{}
	}
	if limit <= 0 || limit > len(r.Rows) {
		limit = len(r.Rows)
	}

	records := make([]map[string]any, limit)
	for i := 0; i < limit; i++ {
		record := make(map[string]any, len(r.Columns))
		for j, col := range r.Columns {
			record[col] = r.Rows[i][j]
		}
		records[i] = record
	}
	return records
}

// QueryExecutor binds a table-name placeholder to an in-memory dataset and
// runs a query against it. Implementations return an error on execution
// failure; callers are expected to degrade to an empty result instead of
// propagating.
type QueryExecutor interface {
	ExecuteQuery(ctx context.Context, ds *Dataset, query string, tableName string) (*QueryResult, error)
}

// SQLiteQueryExecutor loads the dataset into an in-memory SQLite database per
// query, so memory is O(dataset size) per execution. Query syntax must be
// SQLite-compatible; window functions are avoided elsewhere in the system for
// exactly that reason.
type SQLiteQueryExecutor struct {
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewSQLiteQueryExecutor creates an executor with a per-query deadline.
// A zero queryTimeout disables the deadline.
func NewSQLiteQueryExecutor(queryTimeout time.Duration, logger *slog.Logger) *SQLiteQueryExecutor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &SQLiteQueryExecutor{
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

func (e *SQLiteQueryExecutor) ExecuteQuery(ctx context.Context, ds *Dataset, query string, tableName string) (*QueryResult, error) {
	if tableName == "" {
		tableName = DefaultTableName
	}
	formatted := strings.ReplaceAll(query, TableNamePlaceholder, tableName)

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	defer db.Close()

	if err := loadDatasetIntoDB(ctx, db, ds, tableName); err != nil {
		return nil, fmt.Errorf("failed to load dataset into %s: %w", tableName, err)
	}

	if e.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.queryTimeout)
		defer cancel()
	}

	e.logger.Debug("executing query", "table_name", tableName, "query", formatted)
	startTime := time.Now()

	rows, err := db.QueryContext(ctx, formatted)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrQueryTimeout, e.queryTimeout)
		}
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	result, err := scanQueryResult(rows)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("query completed",
		"table_name", tableName,
		"result_rows", result.RowCount(),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

func loadDatasetIntoDB(ctx context.Context, db *sql.DB, ds *Dataset, tableName string) error {
	columns := ds.Columns()
	if len(columns) == 0 {
		return fmt.Errorf("dataset has no columns")
	}

	colDefs := make([]string, len(columns))
	for i, col := range columns {
		colDefs[i] = fmt.Sprintf("%s %s", quoteIdent(col.Name), sqliteTypeFor(col.Type))
	}
	createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(tableName), strings.Join(colDefs, ", "))
	if _, err := db.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")
	insertStmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(tableName), placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insertStmt.Close()

	args := make([]any, len(columns))
	for i := 0; i < ds.RowCount(); i++ {
		for j, col := range columns {
			args[j] = col.Values[i]
		}
		if _, err := insertStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func scanQueryResult(rows *sql.Rows) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	result := &QueryResult{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}

	return result, nil
}

func sqliteTypeFor(t ColumnType) string {
	switch t {
	case ColumnTypeInteger:
		return "INTEGER"
	case ColumnTypeFloat:
		return "REAL"
	case ColumnTypeBool:
		return "BOOLEAN"
	case ColumnTypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
