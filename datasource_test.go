package sqecore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDataSourcesConfig(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "datasources.yaml")
	content := `
version: "1.0"
data_sources:
  - id: orders_db
    type: postgresql
    configuration:
      host: db.internal
      port: 5432
      database: orders
      username: reader
      password: secret
      pool_size: 6
  - id: events_db
    type: clickhouse
    configuration:
      host: ch.internal
      port: 9000
      database: events
      username: reader
      password: secret
`
	if err := os.WriteFile(fileName, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadDataSourcesConfig(fileName)
	if err != nil {
		t.Fatalf("LoadDataSourcesConfig: %v", err)
	}
	if len(cfg.DataSources) != 2 {
		t.Fatalf("got %d data sources, want 2", len(cfg.DataSources))
	}

	ds, err := cfg.DataSourceByID("orders_db")
	if err != nil {
		t.Fatalf("DataSourceByID: %v", err)
	}
	if ds.Type != DataSourceTypePostgresql {
		t.Errorf("Type = %q", ds.Type)
	}
	if ds.Configuration.PoolSize != 6 {
		t.Errorf("PoolSize = %d, want 6", ds.Configuration.PoolSize)
	}

	events, err := cfg.DataSourceByID("events_db")
	if err != nil {
		t.Fatalf("DataSourceByID: %v", err)
	}
	if events.Configuration.PoolSize != 0 {
		t.Errorf("omitted pool_size should stay zero, got %d", events.Configuration.PoolSize)
	}

	if _, err := cfg.DataSourceByID("no_such"); err == nil {
		t.Error("unknown id should error")
	}
}

func TestLoadDataSourcesConfigMissingFile(t *testing.T) {
	if _, err := LoadDataSourcesConfig(filepath.Join(t.TempDir(), "no_such.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
