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
	"encoding/json"
	"fmt"
)

// ImportSuiteJSON parses the suite interchange format:
//
//	{"suite_name": "...", "expectations": [{"expectation_type": "...", "kwargs": {...}}]}
//
// Entries missing expectation_type or kwargs are skipped with a warning, not
// fatal to the whole import. The returned warnings are meant for the user;
// an empty import is reported there as "no valid expectations found".
func ImportSuiteJSON(data []byte) (*Suite, []string, error) {
	var raw struct {
		SuiteName    string            `json:"suite_name"`
		Expectations []json.RawMessage `json:"expectations"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse suite JSON: %w", err)
	}
	if raw.Expectations == nil {
		return nil, nil, fmt.Errorf("suite JSON is missing the expectations list")
	}

	suite := &Suite{Name: raw.SuiteName}
	if suite.Name == "" {
		suite.Name = "imported_suite"
	}

	var warnings []string
	for i, entry := range raw.Expectations {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping expectation %d: not an object", i+1))
			continue
		}

		typeRaw, hasType := fields["expectation_type"]
		kwargsRaw, hasKwargs := fields["kwargs"]
		if !hasType || !hasKwargs {
			warnings = append(warnings, fmt.Sprintf("skipping expectation %d: missing expectation_type or kwargs", i+1))
			continue
		}

		var cfg ExpectationConfig
		if err := json.Unmarshal(typeRaw, &cfg.Type); err != nil || cfg.Type == "" {
			warnings = append(warnings, fmt.Sprintf("skipping expectation %d: expectation_type is not a string", i+1))
			continue
		}
		if err := json.Unmarshal(kwargsRaw, &cfg.Kwargs); err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping expectation %d: kwargs is not an object", i+1))
			continue
		}

		suite.AddExpectation(cfg)
	}

	if len(suite.Expectations) == 0 {
		warnings = append(warnings, "no valid expectations found")
	}

	return suite, warnings, nil
}

// ExportSuiteJSON serializes a suite into the interchange format.
func ExportSuiteJSON(suite *Suite) ([]byte, error) {
	data, err := json.MarshalIndent(suite, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize suite: %w", err)
	}
	return data, nil
}
