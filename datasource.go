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

type DataSourceType string

const (
	DataSourceTypeClickhouse DataSourceType = "clickhouse"
	DataSourceTypePostgresql DataSourceType = "postgresql"
	DataSourceTypeMysql      DataSourceType = "mysql"
)

// DataSource describes one external database a dataset can be snapshotted
// from before validation.
type DataSource struct {
	ID            string           `yaml:"id"`
	Type          DataSourceType   `yaml:"type"`
	Configuration ConnectionConfig `yaml:"configuration"`
}

type ConnectionConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// PoolSize caps open and idle snapshot connections. Zero selects the
	// driver factory default.
	PoolSize int `yaml:"pool_size,omitempty"`
}

// DataSourcesConfig is the YAML file format listing known data sources.
type DataSourcesConfig struct {
	Version     string       `yaml:"version"`
	DataSources []DataSource `yaml:"data_sources"`
}

func LoadDataSourcesConfig(fileName string) (*DataSourcesConfig, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg DataSourcesConfig
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DataSourceByID finds a data source in the config by its identifier.
func (c *DataSourcesConfig) DataSourceByID(id string) (*DataSource, error) {
	for i := range c.DataSources {
		if c.DataSources[i].ID == id {
			return &c.DataSources[i], nil
		}
	}
	return nil, fmt.Errorf("data source not found: %s", id)
}
