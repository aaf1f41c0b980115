package sqecore

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestImportSuiteJSON(t *testing.T) {
	data := []byte(`{
		"suite_name": "orders_quality",
		"expectations": [
			{"expectation_type": "expect_column_values_to_not_be_null", "kwargs": {"column": "id"}},
			{"expectation_type": "expect_table_row_count_to_be_between", "kwargs": {"min_value": 10, "max_value": 100}}
		]
	}`)

	suite, warnings, err := ImportSuiteJSON(data)
	if err != nil {
		t.Fatalf("ImportSuiteJSON: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if suite.Name != "orders_quality" {
		t.Errorf("Name = %q", suite.Name)
	}
	if len(suite.Expectations) != 2 {
		t.Fatalf("got %d expectations, want 2", len(suite.Expectations))
	}
	if suite.Expectations[0].StringKwarg("column") != "id" {
		t.Errorf("first expectation kwargs = %v", suite.Expectations[0].Kwargs)
	}
}

func TestImportSuiteJSONSkipsInvalidEntries(t *testing.T) {
	data := []byte(`{"expectations": [{"expectation_type": "x"}]}`)

	suite, warnings, err := ImportSuiteJSON(data)
	if err != nil {
		t.Fatalf("import should succeed overall: %v", err)
	}
	if len(suite.Expectations) != 0 {
		t.Errorf("got %d expectations, want 0", len(suite.Expectations))
	}

	var skipped, noneFound bool
	for _, w := range warnings {
		if strings.Contains(w, "skipping expectation 1") {
			skipped = true
		}
		if strings.Contains(w, "no valid expectations found") {
			noneFound = true
		}
	}
	if !skipped {
		t.Errorf("expected a skip warning, got %v", warnings)
	}
	if !noneFound {
		t.Errorf("expected 'no valid expectations found', got %v", warnings)
	}
}

func TestImportSuiteJSONMixedEntries(t *testing.T) {
	data := []byte(`{
		"expectations": [
			"not an object",
			{"kwargs": {"column": "id"}},
			{"expectation_type": "expect_column_values_to_be_unique", "kwargs": {"column": "id"}}
		]
	}`)

	suite, warnings, err := ImportSuiteJSON(data)
	if err != nil {
		t.Fatalf("ImportSuiteJSON: %v", err)
	}
	if len(suite.Expectations) != 1 {
		t.Errorf("got %d expectations, want 1", len(suite.Expectations))
	}
	if len(warnings) != 2 {
		t.Errorf("got %d warnings, want 2: %v", len(warnings), warnings)
	}
}

func TestImportSuiteJSONMissingExpectationsList(t *testing.T) {
	if _, _, err := ImportSuiteJSON([]byte(`{"suite_name": "x"}`)); err == nil {
		t.Error("expected error when expectations list is missing")
	}
	if _, _, err := ImportSuiteJSON([]byte(`not json`)); err == nil {
		t.Error("expected error on malformed JSON")
	}
}

func TestImportSuiteJSONDefaultName(t *testing.T) {
	suite, _, err := ImportSuiteJSON([]byte(`{"expectations": []}`))
	if err != nil {
		t.Fatalf("ImportSuiteJSON: %v", err)
	}
	if suite.Name != "imported_suite" {
		t.Errorf("Name = %q, want imported_suite", suite.Name)
	}
}

func TestExportSuiteJSONRoundTrip(t *testing.T) {
	suite := &Suite{Name: "roundtrip"}
	suite.AddExpectation(*BuildSQLExpectationConfig(
		"negative_amounts",
		"SELECT COUNT(*) as violation_count FROM {table_name} WHERE amount < 0",
		ResultTypeEmpty, "no negative amounts", 0, nil))

	data, err := ExportSuiteJSON(suite)
	if err != nil {
		t.Fatalf("ExportSuiteJSON: %v", err)
	}
	if !json.Valid(data) {
		t.Fatal("export produced invalid JSON")
	}

	imported, warnings, err := ImportSuiteJSON(data)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if imported.Name != "roundtrip" || len(imported.Expectations) != 1 {
		t.Errorf("round trip lost data: %+v", imported)
	}
	if imported.Expectations[0].Type != ExpectationTypeCustomSQL {
		t.Errorf("Type = %q", imported.Expectations[0].Type)
	}
}
