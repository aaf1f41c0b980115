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
	"context"
	"database/sql"
	"fmt"

	sqecore "github.com/QualityBridge/sqe-core"
	"github.com/QualityBridge/sqe-core/cnn"
	"github.com/QualityBridge/sqe-core/loaders"
)

// OpenDataSource opens a connection to an external database described by a
// data source config.
func OpenDataSource(dataSource *sqecore.DataSource) (*sql.DB, error) {
	switch dataSource.Type {
	case sqecore.DataSourceTypeClickhouse:
		connection, err := cnn.NewClickhouseConnection(dataSource.Configuration)
		if err != nil {
			return nil, fmt.Errorf("failed to create clickhouse connection: %w", err)
		}
		return connection, nil
	case sqecore.DataSourceTypePostgresql:
		connection, err := cnn.NewPostgresqlConnection(dataSource.Configuration)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgresql connection: %w", err)
		}
		return connection, nil
	case sqecore.DataSourceTypeMysql:
		connection, err := cnn.NewMysqlConnection(dataSource.Configuration)
		if err != nil {
			return nil, fmt.Errorf("failed to create mysql connection: %w", err)
		}
		return connection, nil
	default:
		return nil, fmt.Errorf("unsupported data source type: %s", dataSource.Type)
	}
}

// SnapshotDataset runs a query against an external data source and
// materializes the result as an in-memory dataset ready for validation.
// The connection is closed before returning.
func SnapshotDataset(ctx context.Context, dataSource *sqecore.DataSource, query string) (*sqecore.Dataset, error) {
	db, err := OpenDataSource(dataSource)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return loaders.FromQuery(ctx, db, query)
}
