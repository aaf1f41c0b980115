package validators

import (
	"context"
	"reflect"
	"testing"

	sqecore "github.com/QualityBridge/sqe-core"
)

func newSQLValidator() *SQLExpectationValidator {
	return NewSQLExpectationValidator(
		sqecore.NewSQLiteQueryExecutor(0, nil),
		sqecore.NewWhereClauseDeriver(),
		"", nil)
}

func dateRangeDataset(t *testing.T) *sqecore.Dataset {
	t.Helper()
	ds, err := sqecore.NewDataset(
		&sqecore.Column{Name: "id", Type: sqecore.ColumnTypeInteger,
			Values: []any{int64(1), int64(2), int64(3)}},
		&sqecore.Column{Name: "start_date", Type: sqecore.ColumnTypeString,
			Values: []any{"2026-01-01", "2026-03-01", "2026-05-01"}},
		&sqecore.Column{Name: "end_date", Type: sqecore.ColumnTypeString,
			Values: []any{"2026-02-01", "2026-02-01", "2026-06-01"}},
	)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	return ds
}

func TestSQLExpectationDateOrderViolation(t *testing.T) {
	validator := newSQLValidator()
	ds := dateRangeDataset(t)

	cfg := sqecore.BuildSQLExpectationConfig("date_order",
		"SELECT COUNT(*) as violation_count FROM {table_name} "+
			"WHERE NOT (start_date < end_date) AND start_date IS NOT NULL AND end_date IS NOT NULL",
		sqecore.ResultTypeEmpty, "start before end", 0, nil)

	result := validator.ValidateExpectation(context.Background(), ds, cfg)

	if result.Success {
		t.Error("one row has start_date > end_date, expected failure")
	}
	if result.Result.UnexpectedCount != 1 {
		t.Errorf("UnexpectedCount = %d, want 1", result.Result.UnexpectedCount)
	}
	if len(result.Result.UnexpectedRows) != 1 {
		t.Fatalf("derived rows = %d, want exactly 1", len(result.Result.UnexpectedRows))
	}
	if got := result.Result.UnexpectedRows[0]["id"]; got != int64(2) {
		t.Errorf("violating row id = %v, want 2", got)
	}
}

func TestSQLExpectationCountBetween(t *testing.T) {
	validator := newSQLValidator()

	ages := []any{int64(30), int64(-5), int64(200), int64(150), int64(40)}
	ds, err := sqecore.NewDataset(&sqecore.Column{Name: "age", Type: sqecore.ColumnTypeInteger, Values: ages})
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}

	cfg := &sqecore.ExpectationConfig{
		Type: sqecore.ExpectationTypeCustomSQL,
		Kwargs: map[string]any{
			"query":                "SELECT COUNT(*) as violation_count FROM {table_name} WHERE age < 0 OR age > 120",
			"expected_result_type": sqecore.ResultTypeCountBetween,
			"min_value":            0.0,
			"max_value":            5.0,
		},
	}

	result := validator.ValidateExpectation(context.Background(), ds, cfg)
	if !result.Success {
		t.Errorf("3 violations inside [0, 5] should pass, got unexpected=%d", result.Result.UnexpectedCount)
	}
}

func TestSQLExpectationBlockedQueryNeverExecutes(t *testing.T) {
	validator := NewSQLExpectationValidator(&recordingExecutor{}, sqecore.NewWhereClauseDeriver(), "", nil)
	ds := dateRangeDataset(t)

	cfg := sqecore.BuildSQLExpectationConfig("mutation",
		"UPDATE {table_name} SET x=1", sqecore.ResultTypeEmpty, "", 0, nil)

	result := validator.ValidateExpectation(context.Background(), ds, cfg)

	if result.Success {
		t.Error("blocked query must fail")
	}
	if result.ExceptionInfo == nil {
		t.Fatal("expected exception info")
	}
	if result.Result.UnexpectedCount != ds.RowCount() {
		t.Errorf("UnexpectedCount = %d, want full dataset", result.Result.UnexpectedCount)
	}
}

// recordingExecutor fails the test if any query reaches execution.
type recordingExecutor struct {
	executed bool
}

func (e *recordingExecutor) ExecuteQuery(ctx context.Context, ds *sqecore.Dataset, query string, tableName string) (*sqecore.QueryResult, error) {
	e.executed = true
	return &sqecore.QueryResult{}, nil
}

func TestSQLExpectationBlockedQuerySkipsExecutor(t *testing.T) {
	executor := &recordingExecutor{}
	validator := NewSQLExpectationValidator(executor, sqecore.NewWhereClauseDeriver(), "", nil)
	ds := dateRangeDataset(t)

	cfg := sqecore.BuildSQLExpectationConfig("drop",
		"SELECT * FROM {table_name}; DROP TABLE users", sqecore.ResultTypeEmpty, "", 0, nil)

	validator.ValidateExpectation(context.Background(), ds, cfg)
	if executor.executed {
		t.Error("execution must not be attempted for a blocked query")
	}
}

func TestSQLExpectationExecutionErrorDegrades(t *testing.T) {
	validator := newSQLValidator()
	ds := dateRangeDataset(t)

	cfg := sqecore.BuildSQLExpectationConfig("bad_column",
		"SELECT COUNT(*) as violation_count FROM {table_name} WHERE no_such_column = 1",
		sqecore.ResultTypeEmpty, "", 0, nil)

	result := validator.ValidateExpectation(context.Background(), ds, cfg)

	// execution failure becomes an empty result, then a failure result
	if result.Success {
		t.Error("expected failure for unexecutable query")
	}
	if result.ExceptionInfo == nil {
		t.Error("expected exception info")
	}
}

func TestSQLExpectationMissingQuery(t *testing.T) {
	validator := newSQLValidator()
	ds := dateRangeDataset(t)

	result := validator.ValidateExpectation(context.Background(), ds, &sqecore.ExpectationConfig{
		Type:   sqecore.ExpectationTypeCustomSQL,
		Kwargs: map[string]any{},
	})

	if result.Success {
		t.Error("missing query must fail")
	}
}

func TestSQLExpectationBooleanNormalizationEquivalence(t *testing.T) {
	validator := newSQLValidator()

	ds, err := sqecore.NewDataset(
		&sqecore.Column{Name: "id", Type: sqecore.ColumnTypeInteger,
			Values: []any{int64(1), int64(2), int64(3), int64(4)}},
		&sqecore.Column{Name: "active", Type: sqecore.ColumnTypeBool,
			Values: []any{true, false, true, false}},
	)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}

	numericCfg := sqecore.BuildSQLExpectationConfig("numeric",
		"SELECT COUNT(*) as violation_count FROM {table_name} WHERE active = 1",
		sqecore.ResultTypeCountEquals, "", 0, floatPtr(2))
	literalCfg := sqecore.BuildSQLExpectationConfig("literal",
		"SELECT COUNT(*) as violation_count FROM {table_name} WHERE active = True",
		sqecore.ResultTypeCountEquals, "", 0, floatPtr(2))

	numericResult := validator.ValidateExpectation(context.Background(), ds, numericCfg)
	literalResult := validator.ValidateExpectation(context.Background(), ds, literalCfg)

	if numericResult.Success != literalResult.Success {
		t.Errorf("normalized query success = %v, literal = %v", numericResult.Success, literalResult.Success)
	}
	if numericResult.Result.UnexpectedCount != literalResult.Result.UnexpectedCount {
		t.Errorf("violation counts differ: %d vs %d",
			numericResult.Result.UnexpectedCount, literalResult.Result.UnexpectedCount)
	}
	if !numericResult.Success {
		t.Error("2 active rows should match expected_value 2")
	}
}

func TestSQLExpectationIdempotent(t *testing.T) {
	validator := newSQLValidator()
	ds := dateRangeDataset(t)

	cfg := sqecore.BuildSQLExpectationConfig("date_order",
		"SELECT COUNT(*) as violation_count FROM {table_name} WHERE NOT (start_date < end_date)",
		sqecore.ResultTypeEmpty, "", 0, nil)

	first := validator.ValidateExpectation(context.Background(), ds, cfg)
	second := validator.ValidateExpectation(context.Background(), ds, cfg)

	if first.Success != second.Success {
		t.Error("success differs between identical runs")
	}
	if !reflect.DeepEqual(first.Result, second.Result) {
		t.Errorf("results differ between identical runs:\n%+v\n%+v", first.Result, second.Result)
	}
}

func floatPtr(v float64) *float64 { return &v }
