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

package sqe

import (
	"fmt"
	"log/slog"
	"os"

	sqecore "github.com/QualityBridge/sqe-core"
)

const (
	Version = "v0.1.0"
)

func GetSqeCoreLibVersion() string {
	return Version
}

// LoadSuiteFromJSONFile reads a persisted JSON suite from disk. Entries
// failing shape validation are skipped and reported through warnings.
func LoadSuiteFromJSONFile(fileName string, logger *slog.Logger) (*sqecore.Suite, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	suite, warnings, err := sqecore.ImportSuiteJSON(data)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		for _, warning := range warnings {
			logger.Warn("suite import", "warning", warning)
		}
	}
	return suite, nil
}

// LoadSuitesFromRuleFile expands a YAML rule file into expectation suites.
func LoadSuitesFromRuleFile(fileName string) ([]*sqecore.Suite, error) {
	cfg, err := sqecore.LoadSuiteFileConfig(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule file: %w", err)
	}

	suites := make([]*sqecore.Suite, 0, len(cfg.Suites))
	for i := range cfg.Suites {
		suites = append(suites, cfg.Suites[i].Suite())
	}
	return suites, nil
}
