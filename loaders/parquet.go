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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	sqecore "github.com/QualityBridge/sqe-core"
)

// FromParquetFile loads an entire parquet file into a dataset. Column order
// follows the file schema; the whole file is materialized in memory.
func FromParquetFile(fileName string) (*sqecore.Dataset, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	columnOrder := make([]string, 0, len(pqFile.Schema().Fields()))
	for _, field := range pqFile.Schema().Fields() {
		columnOrder = append(columnOrder, field.Name())
	}

	reader := parquet.NewReader(pqFile)
	defer reader.Close()

	records := make([]map[string]any, 0)
	for {
		row := make(map[string]any)
		if err := reader.Read(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		records = append(records, row)
	}

	ds, err := sqecore.NewDatasetFromRecords(columnOrder, records)
	if err != nil {
		return nil, err
	}
	ds.NormalizeStringBooleans()
	return ds, nil
}
