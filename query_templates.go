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
	"sort"
	"strings"
)

// TemplateCategory partitions the template catalog.
type TemplateCategory string

const (
	CategoryRelationships TemplateCategory = "relationships"
	CategoryCalculations  TemplateCategory = "calculations"
	CategoryIntegrity     TemplateCategory = "integrity"
	CategoryBusiness      TemplateCategory = "business"
	CategoryTemporal      TemplateCategory = "temporal"
	CategoryAggregations  TemplateCategory = "aggregations"
	CategoryDuplicates    TemplateCategory = "duplicates"
)

// RuleTemplate is a parameterized SQL skeleton for a common validation
// pattern. Templates are immutable and loaded once at process start.
type RuleTemplate struct {
	ID             string
	Name           string
	Description    string
	Category       TemplateCategory
	Template       string
	Parameters     []string
	ExpectedResult string
}

var queryTemplates = map[string]*RuleTemplate{
	"cross_column_comparison": {
		ID:          "cross_column_comparison",
		Name:        "Cross-Column Comparison",
		Description: "Compare values between two columns (e.g., start_date < end_date)",
		Category:    CategoryRelationships,
		Template: `SELECT COUNT(*) as violation_count
FROM {table_name}
WHERE NOT ({column1} {operator} {column2})
  AND {column1} IS NOT NULL
  AND {column2} IS NOT NULL`,
		Parameters:     []string{"column1", "column2", "operator"},
		ExpectedResult: ResultTypeEmpty,
	},
	"mathematical_relationship": {
		ID:          "mathematical_relationship",
		Name:        "Mathematical Relationship",
		Description: "Validate mathematical relationships (e.g., total = price * quantity)",
		Category:    CategoryCalculations,
		Template: `SELECT COUNT(*) as violation_count
FROM {table_name}
WHERE ABS({result_column} - ({operand1} {operator} {operand2})) > {tolerance}
  AND {result_column} IS NOT NULL
  AND {operand1} IS NOT NULL
  AND {operand2} IS NOT NULL`,
		Parameters:     []string{"result_column", "operand1", "operator", "operand2", "tolerance"},
		ExpectedResult: ResultTypeEmpty,
	},
	"referential_integrity": {
		ID:          "referential_integrity",
		Name:        "Referential Integrity",
		Description: "Check if values in one column exist in another table/column",
		Category:    CategoryIntegrity,
		Template: `SELECT COUNT(*) as violation_count
FROM {table_name} t1
LEFT JOIN {reference_table} t2 ON t1.{column} = t2.{reference_column}
WHERE t1.{column} IS NOT NULL
  AND t2.{reference_column} IS NULL`,
		Parameters:     []string{"column", "reference_table", "reference_column"},
		ExpectedResult: ResultTypeEmpty,
	},
	"business_rule": {
		ID:          "business_rule",
		Name:        "Custom Business Rule",
		Description: "Define custom business logic validation",
		Category:    CategoryBusiness,
		Template: `SELECT COUNT(*) as violation_count
FROM {table_name}
WHERE NOT ({custom_condition})`,
		Parameters:     []string{"custom_condition"},
		ExpectedResult: ResultTypeEmpty,
	},
	"data_freshness": {
		ID:          "data_freshness",
		Name:        "Data Freshness Check",
		Description: "Ensure data was updated within a specified time period",
		Category:    CategoryTemporal,
		Template: `SELECT COUNT(*) as violation_count
FROM {table_name}
WHERE {date_column} < DATE('now', '-{max_age_days} days')`,
		Parameters:     []string{"date_column", "max_age_days"},
		ExpectedResult: ResultTypeEmpty,
	},
	"aggregation_check": {
		ID:          "aggregation_check",
		Name:        "Aggregation Validation",
		Description: "Validate aggregated values (sum, count, average, etc.)",
		Category:    CategoryAggregations,
		Template: `SELECT
  CASE
    WHEN {aggregation}({column}) {operator} {expected_value} THEN 0
    ELSE 1
  END as violation_count
FROM {table_name}`,
		Parameters:     []string{"aggregation", "column", "operator", "expected_value"},
		ExpectedResult: ResultTypeEmpty,
	},
	"duplicate_detection": {
		ID:          "duplicate_detection",
		Name:        "Advanced Duplicate Detection",
		Description: "Find duplicates across multiple columns with conditions",
		Category:    CategoryDuplicates,
		Template: `SELECT COUNT(*) as violation_count
FROM (
  SELECT {columns}, COUNT(*) as duplicate_count
  FROM {table_name}
  WHERE {conditions}
  GROUP BY {columns}
  HAVING COUNT(*) > 1
) duplicates`,
		Parameters:     []string{"columns", "conditions"},
		ExpectedResult: ResultTypeEmpty,
	},
}

// TemplateCategories returns the sorted set of categories present in the
// catalog.
func TemplateCategories() []string {
	seen := map[string]bool{}
	for _, tpl := range queryTemplates {
		seen[string(tpl.Category)] = true
	}

	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// TemplatesByCategory returns the templates of one category keyed by id.
// Unknown categories yield an empty map.
func TemplatesByCategory(category TemplateCategory) map[string]*RuleTemplate {
	filtered := map[string]*RuleTemplate{}
	for id, tpl := range queryTemplates {
		if tpl.Category == category {
			filtered[id] = tpl
		}
	}
	return filtered
}

// TemplateByID looks a template up by its identifier.
func TemplateByID(id string) (*RuleTemplate, bool) {
	tpl, ok := queryTemplates[id]
	return tpl, ok
}

// BuildQueryFromTemplate binds the template's named placeholders. Every
// declared parameter must be bound before the query is executable; the
// {table_name} placeholder stays untouched for the executor to bind.
func BuildQueryFromTemplate(tpl *RuleTemplate, params map[string]string) (string, error) {
	var missing []string
	for _, name := range tpl.Parameters {
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("template %s is missing parameters: %s", tpl.ID, strings.Join(missing, ", "))
	}

	query := tpl.Template
	for name, value := range params {
		query = strings.ReplaceAll(query, "{"+name+"}", value)
	}
	return query, nil
}
