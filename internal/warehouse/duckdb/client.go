package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/agrigate/agrigate/internal/warehouse"
)

// The retrieval shape mirrors the BigQuery backend: same filter columns,
// same ordering, host inputs bound as parameters. Dates are cast inside
// the statement so malformed values fail at query time on both backends.
const retrievalStatement = "SELECT * FROM %s\n" +
	"WHERE crop = ?\n" +
	"  AND region = ?\n" +
	"  AND date >= CAST(? AS DATE)\n" +
	"  AND date <= CAST(? AS DATE)\n" +
	"ORDER BY date"

type Config struct {
	Path  string
	Table string
}

type Client struct {
	db    *sql.DB
	table string
}

// Open opens the database file read-only. Seeding uses its own writable
// connection; the retrieval path never mutates.
func Open(cfg Config) (*Client, error) {
	db, err := sql.Open("duckdb", cfg.Path+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("open duckdb database: %w", err)
	}
	return &Client{db: db, table: cfg.Table}, nil
}

func (c *Client) Execute(ctx context.Context, request warehouse.Request) (warehouse.Result, error) {
	start := time.Now()

	table := c.table
	if table == "" {
		table = request.Target.Table
	}

	stmt := fmt.Sprintf(retrievalStatement, quoteIdent(table))
	rows, err := c.db.QueryContext(ctx, stmt,
		request.Filter.Crop,
		request.Filter.Region,
		request.Filter.StartDate,
		request.Filter.EndDate,
	)
	if err != nil {
		return warehouse.Result{}, fmt.Errorf("run retrieval query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return warehouse.Result{}, fmt.Errorf("query columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return warehouse.Result{}, fmt.Errorf("query column types: %w", err)
	}
	dateColumns := make([]bool, len(columnTypes))
	for i, columnType := range columnTypes {
		dateColumns[i] = strings.EqualFold(columnType.DatabaseTypeName(), "DATE")
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return warehouse.Result{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values, dateColumns))
	}
	if err := rows.Err(); err != nil {
		return warehouse.Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	return warehouse.Result{
		Table:    warehouse.Table{Columns: columns, Rows: resultRows},
		Duration: time.Since(start),
	}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// normalizeValues matches the BigQuery backend's value shapes: bytes to
// string, DATE columns to YYYY-MM-DD strings.
func normalizeValues(values []any, dateColumns []bool) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		case time.Time:
			if dateColumns[i] {
				normalized[i] = typed.Format("2006-01-02")
			} else {
				normalized[i] = typed
			}
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
