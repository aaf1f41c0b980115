package sqecore

import (
	"strings"
	"testing"
)

func TestValidateSQLQuery(t *testing.T) {
	tests := []struct {
		name               string
		query              string
		expectValid        bool
		expectBlocked      bool
		expectSecurityHits []string
		expectWarnings     int
	}{
		{
			name:        "valid aggregate query",
			query:       "SELECT COUNT(*) as violation_count FROM {table_name} WHERE NOT (start_date < end_date)",
			expectValid: true,
		},
		{
			name:               "update statement blocked",
			query:              "UPDATE {table_name} SET x=1",
			expectValid:        true,
			expectBlocked:      true,
			expectSecurityHits: []string{"UPDATE"},
		},
		{
			name:               "drop table blocked",
			query:              "SELECT * FROM {table_name}; DROP TABLE users",
			expectValid:        true,
			expectBlocked:      true,
			expectSecurityHits: []string{"DROP"},
		},
		{
			name:               "dangerous keyword inside identifier still flagged",
			query:              "SELECT last_update FROM {table_name}",
			expectValid:        true,
			expectBlocked:      true,
			expectSecurityHits: []string{"UPDATE"},
		},
		{
			name:        "empty query invalid",
			query:       "",
			expectValid: false,
		},
		{
			name:        "unparseable query invalid",
			query:       "SELECT FROM WHERE)(",
			expectValid: false,
		},
		{
			name:           "select without placeholder warns",
			query:          "SELECT COUNT(*) as violation_count FROM orders",
			expectValid:    true,
			expectWarnings: 1,
		},
		{
			name:          "multi statement select flagged",
			query:         "SELECT 1; SELECT 2",
			expectValid:   true,
			expectBlocked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := ValidateSQLQuery(tt.query)

			if report.IsValid != tt.expectValid {
				t.Errorf("IsValid = %v, want %v (errors: %v)", report.IsValid, tt.expectValid, report.Errors)
			}
			if report.Blocked() != tt.expectBlocked {
				t.Errorf("Blocked() = %v, want %v (security issues: %v)",
					report.Blocked(), tt.expectBlocked, report.SecurityIssues)
			}
			for _, keyword := range tt.expectSecurityHits {
				found := false
				for _, issue := range report.SecurityIssues {
					if strings.Contains(issue, keyword) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected security issue naming %q, got %v", keyword, report.SecurityIssues)
				}
			}
			if tt.expectWarnings > 0 && len(report.Warnings) < tt.expectWarnings {
				t.Errorf("expected at least %d warnings, got %v", tt.expectWarnings, report.Warnings)
			}
		})
	}
}

func TestValidateSQLQueryNeverExecutesBlocked(t *testing.T) {
	// a blocked report must be distinguishable even when the query parses
	report := ValidateSQLQuery("SELECT * FROM {table_name} WHERE note = 'DELETE'")
	if !report.Blocked() {
		t.Fatal("expected deny-list to over-flag keyword inside string literal")
	}
	if !report.IsValid {
		t.Error("query should still parse as valid SELECT")
	}
}
