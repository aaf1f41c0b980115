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

package validators

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	sqecore "github.com/QualityBridge/sqe-core"
)

// SQLExpectationValidator evaluates custom SQL expectations against an
// in-memory dataset. Queries are screened before execution; blocked queries
// never reach the database.
type SQLExpectationValidator struct {
	executor  sqecore.QueryExecutor
	deriver   sqecore.ViolationRowsDeriver
	tableName string
	logger    *slog.Logger
}

// NewSQLExpectationValidator wires the validator. tableName replaces the
// placeholder token in queries; empty selects the default table name.
func NewSQLExpectationValidator(executor sqecore.QueryExecutor, deriver sqecore.ViolationRowsDeriver, tableName string, logger *slog.Logger) *SQLExpectationValidator {
	if tableName == "" {
		tableName = sqecore.DefaultTableName
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SQLExpectationValidator{
		executor:  executor,
		deriver:   deriver,
		tableName: tableName,
		logger:    logger,
	}
}

// ValidateExpectation runs a single custom SQL expectation and returns its
// result. Query failures never surface as errors: any execution or
// evaluation problem degrades into a failed result with the full element
// count reported as unexpected.
func (v *SQLExpectationValidator) ValidateExpectation(ctx context.Context, ds *sqecore.Dataset, cfg *sqecore.ExpectationConfig) *sqecore.ValidationResult {
	query := cfg.StringKwarg("query")
	elementCount := ds.RowCount()

	if strings.TrimSpace(query) == "" {
		return sqecore.FailureResult(cfg, elementCount,
			"Custom SQL validation failed: no query provided")
	}

	report := sqecore.ValidateSQLQuery(query)
	if report.Blocked() {
		v.logger.Warn("query blocked by safety screening",
			"security_issues", strings.Join(report.SecurityIssues, "; "))
		return sqecore.FailureResult(cfg, elementCount,
			fmt.Sprintf("Custom SQL validation failed: query blocked: %s",
				strings.Join(report.SecurityIssues, "; ")))
	}
	if !report.IsValid {
		return sqecore.FailureResult(cfg, elementCount,
			fmt.Sprintf("Custom SQL validation failed: %s",
				strings.Join(report.Errors, "; ")))
	}
	for _, warning := range report.Warnings {
		v.logger.Debug("query validation warning", "warning", warning)
	}

	query = sqecore.NormalizeBooleanConditions(query, ds)

	resultTable, err := v.executor.ExecuteQuery(ctx, ds, query, v.tableName)
	if err != nil {
		v.logger.Warn("query execution failed", "err", err)
		resultTable = &sqecore.QueryResult{}
	}

	violationRows := v.deriveViolationRows(ctx, ds, query, resultTable)

	policy := sqecore.PolicyFromKwargs(cfg)
	return sqecore.EvaluateQueryResult(cfg, policy, resultTable, violationRows, elementCount)
}

// deriveViolationRows re-runs the query's WHERE condition inverted to
// recover the concrete offending rows. Best effort: any failure along the
// way leaves the aggregate result untouched.
func (v *SQLExpectationValidator) deriveViolationRows(ctx context.Context, ds *sqecore.Dataset, query string, resultTable *sqecore.QueryResult) *sqecore.QueryResult {
	if resultTable == nil || resultTable.Empty() {
		return nil
	}

	rowsQuery, ok := v.deriver.DeriveViolationRowsQuery(query)
	if !ok {
		return nil
	}

	violationRows, err := v.executor.ExecuteQuery(ctx, ds, rowsQuery, v.tableName)
	if err != nil {
		v.logger.Debug("violation rows query failed", "err", err)
		return nil
	}
	return violationRows
}
