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
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// dangerousSQLKeywords is the data-mutation deny-list. Matching is a blunt
// substring scan over the uppercased query: an identifier or string literal
// containing "UPDATE" is flagged too. That over-flagging is intentional; the
// list is a defense-in-depth layer under the parser-based statement check,
// and a false positive only blocks a query, never lets one through.
var dangerousSQLKeywords = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "CREATE", "ALTER",
	"TRUNCATE", "EXEC", "EXECUTE", "MERGE",
}

// QueryValidationReport is the outcome of the lexical and structural safety
// checks on a raw SQL string. The four fields are independent: a query can be
// parseable (IsValid) and still carry security issues, and warnings alone do
// not block execution. Any security issue must block execution.
type QueryValidationReport struct {
	IsValid        bool     `json:"is_valid"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
	SecurityIssues []string `json:"security_issues"`
}

// Blocked reports whether the query must never be executed.
func (r *QueryValidationReport) Blocked() bool {
	return len(r.SecurityIssues) > 0
}

// ValidateSQLQuery checks a raw query for parseability, safety and style.
// The query may still contain the {table_name} placeholder; it is bound to a
// scratch name before parsing.
func ValidateSQLQuery(query string) *QueryValidationReport {
	report := &QueryValidationReport{IsValid: true}

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		report.IsValid = false
		report.Errors = append(report.Errors, "empty SQL query")
		return report
	}

	queryUpper := strings.ToUpper(query)
	for _, keyword := range dangerousSQLKeywords {
		if strings.Contains(queryUpper, keyword) {
			report.SecurityIssues = append(report.SecurityIssues,
				fmt.Sprintf("potentially dangerous SQL keyword detected: %s", keyword))
		}
	}

	// bind the placeholder so the parser sees a well-formed identifier
	bound := strings.ReplaceAll(query, TableNamePlaceholder, "sqe_scratch_table")
	parsed, err := pg_query.Parse(bound)
	if err != nil {
		report.IsValid = false
		report.Errors = append(report.Errors, fmt.Sprintf("SQL parsing error: %v", err))
	} else if len(parsed.Stmts) != 1 {
		report.SecurityIssues = append(report.SecurityIssues,
			fmt.Sprintf("expected a single SQL statement, found %d", len(parsed.Stmts)))
	} else if parsed.Stmts[0].Stmt.GetSelectStmt() == nil {
		report.SecurityIssues = append(report.SecurityIssues,
			"only SELECT statements are allowed for data validation")
	}

	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		report.Warnings = append(report.Warnings,
			"query should start with SELECT for data validation")
	}
	if !strings.Contains(query, TableNamePlaceholder) {
		report.Warnings = append(report.Warnings,
			"query should include "+TableNamePlaceholder+" placeholder")
	}

	return report
}
