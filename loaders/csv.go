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

// Package loaders builds in-memory datasets from external tabular sources:
// CSV and parquet files, and live database tables.
package loaders

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	sqecore "github.com/QualityBridge/sqe-core"
)

// FromCSV reads delimited text into a dataset. The first record is the
// header. Cell types are inferred per column; empty cells become nulls.
// Lexical booleans ("yes"/"no", "0"/"1" mixed with text) are normalized so
// generated SQL can compare them against boolean literals.
func FromCSV(r io.Reader) (*sqecore.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// tolerate ragged records; short rows are padded with nulls
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv input")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cells := make([][]string, len(header))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}
		for i := range header {
			if i < len(record) {
				cells[i] = append(cells[i], record[i])
			} else {
				cells[i] = append(cells[i], "")
			}
		}
	}

	columns := make([]*sqecore.Column, len(header))
	for i, name := range header {
		values := make([]any, len(cells[i]))
		for j, cell := range cells[i] {
			values[j] = parseCSVCell(cell)
		}
		columns[i] = &sqecore.Column{
			Name:   strings.TrimSpace(name),
			Type:   sqecore.InferColumnType(values),
			Values: values,
		}
	}

	ds, err := sqecore.NewDataset(columns...)
	if err != nil {
		return nil, err
	}
	ds.NormalizeStringBooleans()
	return ds, nil
}

// FromCSVFile reads a CSV file from disk.
func FromCSVFile(fileName string) (*sqecore.Dataset, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()

	return FromCSV(file)
}

func parseCSVCell(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}
	if intVal, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return intVal
	}
	if floatVal, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return floatVal
	}
	return trimmed
}
