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

// Package cnn opens database/sql connections to the supported external
// data sources. Dataset snapshots are read through these connections and
// validated entirely in memory afterwards.
package cnn

import (
	"database/sql"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	sqecore "github.com/QualityBridge/sqe-core"
)

// defaultPoolSize bounds snapshot connections when the caller does not
// supply a pool size.
const defaultPoolSize = 4

func NewClickhouseConnection(connectionCfg sqecore.ConnectionConfig) (*sql.DB, error) {
	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", connectionCfg.Host, connectionCfg.Port)},
		Auth: clickhouse.Auth{
			Database: connectionCfg.Database,
			Username: connectionCfg.Username,
			Password: connectionCfg.Password,
		},
	})
	poolSize := connectionCfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	return db, nil
}
