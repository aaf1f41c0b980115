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
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// ColumnType represents the logical type of a dataset column.
type ColumnType string

const (
	ColumnTypeInteger   ColumnType = "integer"
	ColumnTypeFloat     ColumnType = "float"
	ColumnTypeString    ColumnType = "string"
	ColumnTypeBool      ColumnType = "bool"
	ColumnTypeTimestamp ColumnType = "timestamp"
)

// Column holds a named, typed value vector. A nil entry in Values is a NULL.
type Column struct {
	Name   string
	Type   ColumnType
	Values []any
}

// Dataset is an immutable in-memory table with named, typed columns and a
// stable row order. It is the snapshot every validation run operates on.
type Dataset struct {
	columns []*Column
	byName  map[string]*Column
	rows    int
}

func NewDataset(columns ...*Column) (*Dataset, error) {
	if len(columns) == 0 {
		return &Dataset{byName: map[string]*Column{}}, nil
	}

	rows := len(columns[0].Values)
	byName := make(map[string]*Column, len(columns))
	for _, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("column with empty name")
		}
		if _, exists := byName[col.Name]; exists {
			return nil, fmt.Errorf("duplicate column name: %s", col.Name)
		}
		if len(col.Values) != rows {
			return nil, fmt.Errorf("column %s has %d values, expected %d", col.Name, len(col.Values), rows)
		}
		byName[col.Name] = col
	}

	return &Dataset{
		columns: columns,
		byName:  byName,
		rows:    rows,
	}, nil
}

// NewDatasetFromRecords builds a dataset from row-shaped records. Column order
// follows columnOrder; column types are inferred from the values.
func NewDatasetFromRecords(columnOrder []string, records []map[string]any) (*Dataset, error) {
	columns := make([]*Column, 0, len(columnOrder))
	for _, name := range columnOrder {
		values := make([]any, len(records))
		for i, record := range records {
			values[i] = record[name]
		}
		columns = append(columns, &Column{
			Name:   name,
			Type:   InferColumnType(values),
			Values: values,
		})
	}
	return NewDataset(columns...)
}

// InferColumnType derives the logical column type from a value vector,
// ignoring NULLs. Mixed vectors degrade to string.
func InferColumnType(values []any) ColumnType {
	inferred := ColumnType("")
	for _, v := range values {
		if v == nil {
			continue
		}

		var current ColumnType
		switch v.(type) {
		case bool:
			current = ColumnTypeBool
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			current = ColumnTypeInteger
		case float32, float64:
			current = ColumnTypeFloat
		case time.Time:
			current = ColumnTypeTimestamp
		default:
			current = ColumnTypeString
		}

		if inferred == "" {
			inferred = current
			continue
		}
		if inferred == current {
			continue
		}
		// int + float mixes are numeric, everything else is a string column
		if (inferred == ColumnTypeInteger && current == ColumnTypeFloat) ||
			(inferred == ColumnTypeFloat && current == ColumnTypeInteger) {
			inferred = ColumnTypeFloat
			continue
		}
		return ColumnTypeString
	}

	if inferred == "" {
		return ColumnTypeString
	}
	return inferred
}

func (d *Dataset) RowCount() int {
	return d.rows
}

func (d *Dataset) Columns() []*Column {
	return d.columns
}

func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, col := range d.columns {
		names[i] = col.Name
	}
	return names
}

func (d *Dataset) Column(name string) (*Column, bool) {
	col, ok := d.byName[name]
	return col, ok
}

// IsBoolColumn reports whether the column is detected as boolean-typed.
// Boolean detection drives the literal normalization in generated SQL.
func (d *Dataset) IsBoolColumn(name string) bool {
	col, ok := d.byName[name]
	return ok && col.Type == ColumnTypeBool
}

// Record materializes row i as a map keyed by column name.
func (d *Dataset) Record(i int) map[string]any {
	record := make(map[string]any, len(d.columns))
	for _, col := range d.columns {
		record[col.Name] = col.Values[i]
	}
	return record
}

// Records materializes all rows in stable order.
func (d *Dataset) Records() []map[string]any {
	records := make([]map[string]any, d.rows)
	for i := 0; i < d.rows; i++ {
		records[i] = d.Record(i)
	}
	return records
}

// Sample returns a new dataset with up to n randomly selected rows. The seed
// makes pre-validation sampling reproducible across runs.
func (d *Dataset) Sample(n int, seed int64) *Dataset {
	if n >= d.rows {
		return d
	}

	rng := rand.New(rand.NewSource(seed))
	picked := rng.Perm(d.rows)[:n]

	columns := make([]*Column, len(d.columns))
	for i, col := range d.columns {
		values := make([]any, n)
		for j, rowIdx := range picked {
			values[j] = col.Values[rowIdx]
		}
		columns[i] = &Column{Name: col.Name, Type: col.Type, Values: values}
	}

	sampled, _ := NewDataset(columns...)
	return sampled
}

// NormalizeStringBooleans converts string columns whose values are drawn from
// the lexical boolean vocabulary (true/false/1/0/yes/no, at most two distinct
// values) into bool columns. Datasets arriving from CSV or SQL drivers carry
// booleans this way and downstream SQL engines do not coerce them.
func (d *Dataset) NormalizeStringBooleans() {
	for _, col := range d.columns {
		if col.Type != ColumnTypeString {
			continue
		}

		distinct := map[string]bool{}
		boolLike := true
		numericOnly := true
		for _, v := range col.Values {
			if v == nil {
				continue
			}
			s := strings.ToLower(fmt.Sprintf("%v", v))
			distinct[s] = true
			switch s {
			case "true", "false", "yes", "no":
				numericOnly = false
			case "1", "0":
			default:
				boolLike = false
			}
		}
		// pure 0/1 vectors stay numeric-looking strings; without an
		// alphabetic token there is no evidence the column is boolean
		if !boolLike || numericOnly || len(distinct) == 0 || len(distinct) > 2 {
			continue
		}

		for i, v := range col.Values {
			if v == nil {
				continue
			}
			switch strings.ToLower(fmt.Sprintf("%v", v)) {
			case "true", "1", "yes":
				col.Values[i] = true
			default:
				col.Values[i] = false
			}
		}
		col.Type = ColumnTypeBool
	}
}

// RenderPreview writes the first limit rows as a text table, for logs and
// debugging output.
func (d *Dataset) RenderPreview(w io.Writer, limit int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(d.ColumnNames())

	if limit > d.rows {
		limit = d.rows
	}
	for i := 0; i < limit; i++ {
		row := make([]string, len(d.columns))
		for j, col := range d.columns {
			if col.Values[i] == nil {
				row[j] = "NULL"
				continue
			}
			row[j] = fmt.Sprintf("%v", col.Values[i])
		}
		table.Append(row)
	}
	table.Render()
}
