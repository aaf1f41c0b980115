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
	"os"

	"gopkg.in/yaml.v3"
)

// SuiteFileConfig is the YAML rule-file form of an expectation suite.
// Entries are either compact expressions (scalar nodes), a custom_sql
// mapping carrying a full SQL expectation, or a schema_check mapping:
//
//	version: "1.0"
//	suites:
//	  - name: orders_quality
//	    rules:
//	      - not_null(order_id)
//	      - values(amount) between 0 and 10000
//	      - custom_sql:
//	          desc: "no orphan orders"
//	          query: "SELECT COUNT(*) AS violation_count FROM {table_name} WHERE customer_id IS NULL"
//	          expected_result_type: empty
//	      - schema_check:
//	          expect_columns_ordered:
//	            columns_order: [order_id, customer_id, amount]
type SuiteFileConfig struct {
	Version string      `yaml:"version"`
	Suites  []SuiteRule `yaml:"suites"`
}

type SuiteRule struct {
	Name  string          `yaml:"name"`
	Rules []SuiteRuleItem `yaml:"rules"`
}

type SuiteRuleItem struct {
	Expression  string `yaml:"-"`
	Description string `yaml:"desc,omitempty"`

	Config *ExpectationConfig `yaml:"-"`
}

type customSQLRuleConfig struct {
	Desc               string   `yaml:"desc,omitempty"`
	Query              string   `yaml:"query"`
	ExpectedResultType string   `yaml:"expected_result_type,omitempty"`
	ExpectedValue      *float64 `yaml:"expected_value,omitempty"`
	Tolerance          float64  `yaml:"tolerance,omitempty"`
}

type schemaRuleConfig struct {
	ExpectColumnsOrdered *columnsOrderedConfig `yaml:"expect_columns_ordered,omitempty"`
}

type columnsOrderedConfig struct {
	ColumnsOrder []string `yaml:"columns_order"`
}

func (r *SuiteRuleItem) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode && len(node.Content) >= 2 {
		key := node.Content[0].Value
		value := node.Content[1]

		switch key {
		case "custom_sql":
			r.Expression = key
			var sqlRule customSQLRuleConfig
			if err := value.Decode(&sqlRule); err != nil {
				return err
			}
			if sqlRule.Query == "" {
				return fmt.Errorf("custom_sql rule requires a query")
			}
			resultType := sqlRule.ExpectedResultType
			if resultType == "" {
				resultType = ResultTypeEmpty
			}
			r.Description = sqlRule.Desc
			r.Config = BuildSQLExpectationConfig(
				"", sqlRule.Query, resultType, sqlRule.Desc,
				sqlRule.Tolerance, sqlRule.ExpectedValue)
			return nil

		case "schema_check":
			r.Expression = key
			var schemaRule schemaRuleConfig
			if err := value.Decode(&schemaRule); err != nil {
				return err
			}
			if schemaRule.ExpectColumnsOrdered == nil {
				return fmt.Errorf("schema_check rule requires expect_columns_ordered")
			}
			columnList := make([]any, len(schemaRule.ExpectColumnsOrdered.ColumnsOrder))
			for i, columnName := range schemaRule.ExpectColumnsOrdered.ColumnsOrder {
				columnList[i] = columnName
			}
			r.Config = &ExpectationConfig{
				Type:   "expect_table_columns_to_match_ordered_list",
				Kwargs: map[string]any{"column_list": columnList},
			}
			return nil

		default:
			// expression with a details mapping: `not_null(id): {desc: ...}`
			r.Expression = key
			if value.Kind == yaml.MappingNode {
				var details struct {
					Desc string `yaml:"desc,omitempty"`
				}
				if err := value.Decode(&details); err != nil {
					return err
				}
				r.Description = details.Desc
			}
			cfg, err := ParseCheckExpression(key)
			if err != nil {
				return err
			}
			r.Config = cfg
			return nil
		}
	}

	if node.Kind == yaml.ScalarNode {
		r.Expression = node.Value
		cfg, err := ParseCheckExpression(node.Value)
		if err != nil {
			return err
		}
		r.Config = cfg
		return nil
	}

	return fmt.Errorf("unsupported rule node at line %d", node.Line)
}

// LoadSuiteFileConfig reads a YAML rule file from disk.
func LoadSuiteFileConfig(fileName string) (*SuiteFileConfig, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg SuiteFileConfig
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Suite converts a parsed YAML rule group into an expectation suite.
func (r *SuiteRule) Suite() *Suite {
	suite := &Suite{Name: r.Name}
	for _, item := range r.Rules {
		if item.Config != nil {
			suite.AddExpectation(*item.Config)
		}
	}
	return suite
}
