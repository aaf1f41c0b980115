package sqe

import (
	"context"
	"testing"
	"time"

	sqecore "github.com/QualityBridge/sqe-core"
)

func sessionTestDataset(t *testing.T) *sqecore.Dataset {
	t.Helper()
	ds, err := sqecore.NewDataset(
		&sqecore.Column{Name: "id", Type: sqecore.ColumnTypeInteger,
			Values: []any{int64(1), int64(2), int64(3), int64(4)}},
		&sqecore.Column{Name: "amount", Type: sqecore.ColumnTypeFloat,
			Values: []any{10.0, 20.0, -5.0, 40.0}},
	)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	return ds
}

func TestValidationSessionRun(t *testing.T) {
	suite := &sqecore.Suite{Name: "mixed_suite"}
	suite.AddExpectation(sqecore.ExpectationConfig{
		Type:   "expect_column_values_to_not_be_null",
		Kwargs: map[string]any{"column": "id"},
	})
	suite.AddExpectation(*sqecore.BuildSQLExpectationConfig("no_negative_amounts",
		"SELECT COUNT(*) as violation_count FROM {table_name} WHERE amount < 0",
		sqecore.ResultTypeEmpty, "", 0, nil))
	suite.AddExpectation(sqecore.ExpectationConfig{
		Type:   "expect_table_row_count_to_be_between",
		Kwargs: map[string]any{"min_value": 1.0, "max_value": 10.0},
	})

	session, err := NewValidationSession(suite, sessionTestDataset(t), Options{QueryTimeout: 5 * time.Second}, nil)
	if err != nil {
		t.Fatalf("NewValidationSession: %v", err)
	}

	result, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Success {
		t.Error("suite with one failing SQL rule must not succeed overall")
	}
	if result.Statistics.EvaluatedExpectations != 3 {
		t.Errorf("EvaluatedExpectations = %d, want 3", result.Statistics.EvaluatedExpectations)
	}
	if result.Statistics.SuccessfulExpectations != 2 {
		t.Errorf("SuccessfulExpectations = %d, want 2", result.Statistics.SuccessfulExpectations)
	}
	if result.Statistics.UnsuccessfulExpectations != 1 {
		t.Errorf("UnsuccessfulExpectations = %d, want 1", result.Statistics.UnsuccessfulExpectations)
	}
	if got := result.Statistics.SuccessPercent; got < 66.0 || got > 67.0 {
		t.Errorf("SuccessPercent = %v, want ~66.7", got)
	}
	if result.Meta.SuiteName != "mixed_suite" {
		t.Errorf("SuiteName = %q", result.Meta.SuiteName)
	}
	if result.Meta.DatasetRows != 4 {
		t.Errorf("DatasetRows = %d, want 4", result.Meta.DatasetRows)
	}
	if len(result.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(result.Results))
	}
	// results come back in suite order
	if result.Results[1].Success {
		t.Error("second result should be the failing SQL rule")
	}
}

func TestValidationSessionBrokenRuleDoesNotAbortSuite(t *testing.T) {
	suite := &sqecore.Suite{Name: "resilient"}
	suite.AddExpectation(sqecore.ExpectationConfig{
		Type:   "expect_column_values_to_not_be_null",
		Kwargs: map[string]any{"column": "missing_column"},
	})
	suite.AddExpectation(sqecore.ExpectationConfig{
		Type:   "expect_column_values_to_not_be_null",
		Kwargs: map[string]any{"column": "id"},
	})

	session, err := NewValidationSession(suite, sessionTestDataset(t), Options{}, nil)
	if err != nil {
		t.Fatalf("NewValidationSession: %v", err)
	}

	result, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(result.Results))
	}
	if result.Results[0].Success {
		t.Error("broken rule must fail")
	}
	if !result.Results[1].Success {
		t.Error("later rules must still evaluate")
	}
}

func TestValidationSessionSampling(t *testing.T) {
	values := make([]any, 500)
	for i := range values {
		values[i] = int64(i)
	}
	ds, err := sqecore.NewDataset(&sqecore.Column{Name: "id", Type: sqecore.ColumnTypeInteger, Values: values})
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}

	suite := &sqecore.Suite{Name: "sampled"}
	suite.AddExpectation(sqecore.ExpectationConfig{
		Type:   "expect_column_values_to_not_be_null",
		Kwargs: map[string]any{"column": "id"},
	})

	session, err := NewValidationSession(suite, ds, Options{SampleSize: 100}, nil)
	if err != nil {
		t.Fatalf("NewValidationSession: %v", err)
	}

	result, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Meta.DatasetRows != 100 {
		t.Errorf("DatasetRows = %d, want sampled size 100", result.Meta.DatasetRows)
	}
	if result.Results[0].Result.ElementCount != 100 {
		t.Errorf("ElementCount = %d, want 100", result.Results[0].Result.ElementCount)
	}
}

func TestNewValidationSessionRequiresInputs(t *testing.T) {
	if _, err := NewValidationSession(nil, sessionTestDataset(t), Options{}, nil); err == nil {
		t.Error("expected error for nil suite")
	}
	if _, err := NewValidationSession(&sqecore.Suite{}, nil, Options{}, nil); err == nil {
		t.Error("expected error for nil dataset")
	}
}

func TestValidationSessionCancelledContext(t *testing.T) {
	suite := &sqecore.Suite{Name: "cancelled"}
	suite.AddExpectation(sqecore.ExpectationConfig{
		Type:   "expect_column_values_to_not_be_null",
		Kwargs: map[string]any{"column": "id"},
	})

	session, err := NewValidationSession(suite, sessionTestDataset(t), Options{}, nil)
	if err != nil {
		t.Fatalf("NewValidationSession: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := session.Run(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}
