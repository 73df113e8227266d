package migrations

import (
	"strings"
	"testing"
)

func TestHistoryMigrationContainsRequiredObjects(t *testing.T) {
	body, err := embeddedFS.ReadFile("sql/000001_invocation_history.up.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	sql := string(body)
	requiredSnippets := []string{
		"CREATE TABLE invocation_history",
		"invocation_id UUID PRIMARY KEY",
		"error_details TEXT",
		"created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()",
		"CREATE INDEX idx_invocation_history_created_at_desc",
		"CREATE INDEX idx_invocation_history_crop_region",
		"CREATE INDEX idx_invocation_history_outcome",
	}

	for _, snippet := range requiredSnippets {
		if !strings.Contains(sql, snippet) {
			t.Fatalf("migration missing required snippet: %s", snippet)
		}
	}
}

func TestHistoryMigrationHasDownScript(t *testing.T) {
	body, err := embeddedFS.ReadFile("sql/000001_invocation_history.down.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(body), "DROP TABLE IF EXISTS invocation_history") {
		t.Fatalf("down migration does not drop invocation_history: %s", body)
	}
}
