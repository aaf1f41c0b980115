package sqecore

import (
	"reflect"
	"testing"
)

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name     string
		values   []any
		expected ColumnType
	}{
		{"integers", []any{int64(1), int64(2)}, ColumnTypeInteger},
		{"floats", []any{1.5, 2.5}, ColumnTypeFloat},
		{"int and float mix is float", []any{int64(1), 2.5}, ColumnTypeFloat},
		{"strings", []any{"a", "b"}, ColumnTypeString},
		{"bools", []any{true, false}, ColumnTypeBool},
		{"mixed degrades to string", []any{int64(1), "a"}, ColumnTypeString},
		{"nulls ignored", []any{nil, int64(3), nil}, ColumnTypeInteger},
		{"all nulls default to string", []any{nil, nil}, ColumnTypeString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferColumnType(tt.values); got != tt.expected {
				t.Errorf("InferColumnType = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNormalizeStringBooleans(t *testing.T) {
	tests := []struct {
		name       string
		values     []any
		expectBool bool
		expected   []any
	}{
		{
			name:       "yes/no becomes bool",
			values:     []any{"yes", "no", "yes"},
			expectBool: true,
			expected:   []any{true, false, true},
		},
		{
			name:       "true/false mixed case",
			values:     []any{"True", "FALSE"},
			expectBool: true,
			expected:   []any{true, false},
		},
		{
			name:       "true mixed with 1",
			values:     []any{"true", "1"},
			expectBool: true,
			expected:   []any{true, true},
		},
		{
			name:       "pure 0/1 stays string",
			values:     []any{"0", "1", "0"},
			expectBool: false,
			expected:   []any{"0", "1", "0"},
		},
		{
			name:       "three distinct values stay string",
			values:     []any{"yes", "no", "maybe"},
			expectBool: false,
			expected:   []any{"yes", "no", "maybe"},
		},
		{
			name:       "nulls preserved",
			values:     []any{"yes", nil, "no"},
			expectBool: true,
			expected:   []any{true, nil, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := NewDataset(&Column{Name: "flag", Type: ColumnTypeString, Values: tt.values})
			if err != nil {
				t.Fatalf("NewDataset: %v", err)
			}

			ds.NormalizeStringBooleans()

			col, _ := ds.Column("flag")
			if ds.IsBoolColumn("flag") != tt.expectBool {
				t.Errorf("IsBoolColumn = %v, want %v", ds.IsBoolColumn("flag"), tt.expectBool)
			}
			if !reflect.DeepEqual(col.Values, tt.expected) {
				t.Errorf("values = %v, want %v", col.Values, tt.expected)
			}
		})
	}
}

func TestDatasetSampleDeterministic(t *testing.T) {
	values := make([]any, 1000)
	for i := range values {
		values[i] = int64(i)
	}
	ds, err := NewDataset(&Column{Name: "id", Type: ColumnTypeInteger, Values: values})
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}

	first := ds.Sample(10, 42)
	second := ds.Sample(10, 42)

	if first.RowCount() != 10 {
		t.Fatalf("sample size = %d, want 10", first.RowCount())
	}
	if !reflect.DeepEqual(first.Records(), second.Records()) {
		t.Error("same seed must produce the same sample")
	}
}

func TestDatasetSampleLargerThanDataset(t *testing.T) {
	ds, err := NewDataset(&Column{Name: "id", Type: ColumnTypeInteger, Values: []any{int64(1), int64(2)}})
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}

	sampled := ds.Sample(10, 42)
	if sampled.RowCount() != 2 {
		t.Errorf("RowCount = %d, want 2", sampled.RowCount())
	}
}

func TestNewDatasetRejectsRaggedColumns(t *testing.T) {
	_, err := NewDataset(
		&Column{Name: "a", Type: ColumnTypeInteger, Values: []any{int64(1)}},
		&Column{Name: "b", Type: ColumnTypeInteger, Values: []any{int64(1), int64(2)}},
	)
	if err == nil {
		t.Error("expected error for columns of different lengths")
	}
}

func TestNewDatasetFromRecords(t *testing.T) {
	records := []map[string]any{
		{"id": int64(1), "name": "alice"},
		{"id": int64(2), "name": nil},
	}

	ds, err := NewDatasetFromRecords([]string{"id", "name"}, records)
	if err != nil {
		t.Fatalf("NewDatasetFromRecords: %v", err)
	}

	if got := ds.ColumnNames(); !reflect.DeepEqual(got, []string{"id", "name"}) {
		t.Errorf("ColumnNames = %v", got)
	}
	if ds.RowCount() != 2 {
		t.Errorf("RowCount = %d, want 2", ds.RowCount())
	}
	if record := ds.Record(1); record["name"] != nil {
		t.Errorf("Record(1)[name] = %v, want nil", record["name"])
	}
}
