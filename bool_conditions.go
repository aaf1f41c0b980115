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

import "strings"

// NormalizeBooleanConditions rewrites numeric and quoted-numeric equality
// literals against detected boolean columns into boolean literals
// (col = 1 -> col = True), since the embedded SQL engine does not coerce
// 1/True automatically. Only exact "col = literal" spellings are rewritten,
// mirroring how datasets hand lexical booleans over.
func NormalizeBooleanConditions(query string, ds *Dataset) string {
	for _, col := range ds.Columns() {
		if col.Type != ColumnTypeBool {
			continue
		}
		query = strings.ReplaceAll(query, col.Name+" = 1", col.Name+" = True")
		query = strings.ReplaceAll(query, col.Name+" = 0", col.Name+" = False")
		query = strings.ReplaceAll(query, col.Name+" = '1'", col.Name+" = True")
		query = strings.ReplaceAll(query, col.Name+" = '0'", col.Name+" = False")
	}
	return query
}
