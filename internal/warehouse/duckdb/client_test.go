package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agrigate/agrigate/internal/datafunc"
	"github.com/agrigate/agrigate/internal/warehouse"
)

func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trials.duckdb")

	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatalf("open writable duckdb: %v", err)
	}
	defer func() { _ = db.Close() }()

	statements := []string{
		`CREATE TABLE field_trials (crop VARCHAR, region VARCHAR, date DATE, yield_tonnes DOUBLE)`,
		`INSERT INTO field_trials VALUES
			('wheat', 'north', DATE '2023-03-02', 4.4),
			('wheat', 'north', DATE '2023-03-01', 4.1),
			('wheat', 'south', DATE '2023-03-01', 3.9),
			('maize', 'north', DATE '2023-03-01', 7.2),
			('wheat', 'north', DATE '2023-09-01', 5.0)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("seed statement failed: %v", err)
		}
	}
	return path
}

func TestExecuteFiltersAndOrders(t *testing.T) {
	path := seedDatabase(t)

	client, err := Open(Config{Path: path, Table: "field_trials"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = client.Close() }()

	result, err := client.Execute(context.Background(), warehouse.Request{
		Filter: warehouse.Filter{Crop: "wheat", Region: "north", StartDate: "2023-01-01", EndDate: "2023-06-30"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(result.Table.Columns) != 4 {
		t.Fatalf("columns = %v", result.Table.Columns)
	}
	if result.Table.RowCount() != 2 {
		t.Fatalf("rows = %d: %v", result.Table.RowCount(), result.Table.Rows)
	}
	// ORDER BY date: 2023-03-01 before 2023-03-02.
	if result.Table.Rows[0][2] != "2023-03-01" || result.Table.Rows[1][2] != "2023-03-02" {
		t.Fatalf("date order = %v, %v", result.Table.Rows[0][2], result.Table.Rows[1][2])
	}
	if result.Table.Rows[0][0] != "wheat" || result.Table.Rows[0][1] != "north" {
		t.Fatalf("row = %v", result.Table.Rows[0])
	}
}

func TestExecuteEmptyWindowReturnsNoRows(t *testing.T) {
	path := seedDatabase(t)

	client, err := Open(Config{Path: path, Table: "field_trials"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = client.Close() }()

	result, err := client.Execute(context.Background(), warehouse.Request{
		Filter: warehouse.Filter{Crop: "wheat", Region: "north", StartDate: "2024-01-01", EndDate: "2024-12-31"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Table.RowCount() != 0 {
		t.Fatalf("rows = %d", result.Table.RowCount())
	}
	if len(result.Table.Columns) != 4 {
		t.Fatalf("columns should survive an empty result: %v", result.Table.Columns)
	}
}

func TestExecuteUnknownTableFails(t *testing.T) {
	path := seedDatabase(t)

	client, err := Open(Config{Path: path, Table: "missing_table"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = client.Close() }()

	_, err = client.Execute(context.Background(), warehouse.Request{
		Filter: warehouse.Filter{Crop: "wheat", Region: "north", StartDate: "2023-01-01", EndDate: "2023-06-30"},
	})
	if err == nil {
		t.Fatal("expected error for unknown table")
	}
}

func TestExecuteMalformedDateFails(t *testing.T) {
	path := seedDatabase(t)

	client, err := Open(Config{Path: path, Table: "field_trials"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = client.Close() }()

	_, err = client.Execute(context.Background(), warehouse.Request{
		Filter: warehouse.Filter{Crop: "wheat", Region: "north", StartDate: "01/01/2023", EndDate: "2023-06-30"},
	})
	if err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestFactoryBlankPathIsConfigurationError(t *testing.T) {
	factory := Factory(Config{Path: ""})

	_, err := factory(context.Background())
	var configuration *datafunc.ConfigurationError
	if !errors.As(err, &configuration) {
		t.Fatalf("error type = %T: %v", err, err)
	}
	if !strings.Contains(configuration.Detail, "AGRIGATE_DUCKDB_PATH") {
		t.Fatalf("detail = %q", configuration.Detail)
	}
}

func TestFactoryMissingFileIsConfigurationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.duckdb")
	factory := Factory(Config{Path: path})

	_, err := factory(context.Background())
	var configuration *datafunc.ConfigurationError
	if !errors.As(err, &configuration) {
		t.Fatalf("error type = %T: %v", err, err)
	}
	if !strings.Contains(configuration.Detail, path) {
		t.Fatalf("detail %q does not include the path", configuration.Detail)
	}
}

func TestFactoryOpensSeededDatabase(t *testing.T) {
	path := seedDatabase(t)
	factory := Factory(Config{Path: path, Table: "field_trials"})

	client, err := factory(context.Background())
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close error = %v", err)
	}
}
