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

// ViolationRowsDeriver turns an aggregate "count the violations" query into a
// query returning the violating rows themselves. Implementations report
// ok=false when no rewrite can be derived; callers must treat that as "no
// row-level detail available", not as a failure.
//
// The interface exists so the default text-based heuristic can later be
// replaced by a real SQL-AST rewrite without touching callers.
type ViolationRowsDeriver interface {
	DeriveViolationRowsQuery(aggregateQuery string) (string, bool)
}

// WhereClauseDeriver extracts the WHERE condition of the aggregate query by
// paren-balanced text scanning and re-wraps it in a SELECT *.
//
// This is a heuristic string transform, not a parser. It assumes the
// aggregate query's WHERE clause, once negation is stripped, exactly
// characterizes the violating rows. Nested subqueries or a second
// WHERE-bearing clause (for example inside a derived table) can make the
// paren matching pick the wrong condition. Window functions are avoided in
// generated queries so the rewritten query stays SQLite-compatible.
type WhereClauseDeriver struct{}

func NewWhereClauseDeriver() *WhereClauseDeriver {
	return &WhereClauseDeriver{}
}

const (
	whereNotMarker = "WHERE NOT ("
	whereMarker    = "WHERE "
)

func (d *WhereClauseDeriver) DeriveViolationRowsQuery(aggregateQuery string) (string, bool) {
	queryUpper := strings.ToUpper(strings.TrimSpace(aggregateQuery))
	original := strings.TrimSpace(aggregateQuery)

	if idx := strings.Index(queryUpper, whereNotMarker); idx >= 0 {
		clause := original[idx+len(whereNotMarker):]

		// scan for the parenthesis matching the one in "WHERE NOT ("
		parenCount := 1
		conditionEnd := 0
		for i, ch := range clause {
			switch ch {
			case '(':
				parenCount++
			case ')':
				parenCount--
			}
			if parenCount == 0 {
				conditionEnd = i
				break
			}
		}

		if conditionEnd > 0 {
			condition := clause[:conditionEnd]
			return "SELECT *\nFROM " + TableNamePlaceholder + "\nWHERE NOT (" + condition + ")", true
		}
		return "", false
	}

	if idx := strings.Index(queryUpper, whereMarker); idx >= 0 {
		// a plain WHERE on a violation-count query already identifies the
		// violating rows; reuse the condition verbatim
		condition := strings.TrimSpace(original[idx+len(whereMarker):])
		if condition == "" {
			return "", false
		}
		return "SELECT *\nFROM " + TableNamePlaceholder + "\nWHERE " + condition, true
	}

	return "", false
}
