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

package loaders

import (
	"context"
	"database/sql"
	"fmt"

	sqecore "github.com/QualityBridge/sqe-core"
)

// FromQuery runs a query against a live database and snapshots the result
// into a dataset. Callers own the query and any row limit in it; validating
// a large table should go through a sampling query, not a full scan.
func FromQuery(ctx context.Context, db *sql.DB, query string, args ...any) (*sqecore.Dataset, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	defer rows.Close()

	return FromSQLRows(rows)
}

// FromSQLRows drains an open row cursor into a dataset, preserving the
// cursor's column order. Driver []byte values are converted to strings.
func FromSQLRows(rows *sql.Rows) (*sqecore.Dataset, error) {
	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read column names: %w", err)
	}

	values := make([][]any, len(columnNames))
	scanTargets := make([]any, len(columnNames))
	scanned := make([]any, len(columnNames))
	for i := range scanned {
		scanTargets[i] = &scanned[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, value := range scanned {
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			values[i] = append(values[i], value)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}

	columns := make([]*sqecore.Column, len(columnNames))
	for i, name := range columnNames {
		columns[i] = &sqecore.Column{
			Name:   name,
			Type:   sqecore.InferColumnType(values[i]),
			Values: values[i],
		}
	}

	ds, err := sqecore.NewDataset(columns...)
	if err != nil {
		return nil, err
	}
	ds.NormalizeStringBooleans()
	return ds, nil
}
