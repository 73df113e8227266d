// Package seeder fills a local DuckDB file with synthetic field trial
// data so the service can run end to end without a BigQuery project.
package seeder

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

type Service struct {
	cfg Config
	log *slog.Logger
}

type Summary struct {
	DatabasePath string
	Table        string
	Rows         int
}

func NewService(cfg Config, logger *slog.Logger) (*Service, error) {
	if strings.TrimSpace(cfg.DatabasePath) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{cfg: cfg, log: logger}, nil
}

// Seed replaces the trial table and fills it from a fresh generator run.
// Re-running with the same seed produces an identical table.
func (s *Service) Seed(ctx context.Context) (Summary, error) {
	start, err := time.Parse("2006-01-02", s.cfg.StartDate)
	if err != nil {
		return Summary{}, fmt.Errorf("parse start date: %w", err)
	}

	if dir := filepath.Dir(s.cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", s.cfg.DatabasePath)
	if err != nil {
		return Summary{}, fmt.Errorf("open duckdb database: %w", err)
	}
	defer func() { _ = db.Close() }()

	table := quoteIdent(s.cfg.TableName)
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
		return Summary{}, fmt.Errorf("drop existing table: %w", err)
	}
	createStmt := `CREATE TABLE ` + table + ` (
		crop VARCHAR NOT NULL,
		region VARCHAR NOT NULL,
		date DATE NOT NULL,
		yield_tonnes DOUBLE NOT NULL
	)`
	if _, err := db.ExecContext(ctx, createStmt); err != nil {
		return Summary{}, fmt.Errorf("create trial table: %w", err)
	}

	generator := NewGenerator(s.cfg.Seed, s.cfg.Crops, s.cfg.Regions, start, s.cfg.Days, s.cfg.PlotsPerDay)
	records := generator.Records()

	inserted, err := s.insertRecords(ctx, db, table, records)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		DatabasePath: s.cfg.DatabasePath,
		Table:        s.cfg.TableName,
		Rows:         inserted,
	}
	s.log.InfoContext(ctx, "seeded trial database",
		slog.String("path", summary.DatabasePath),
		slog.String("table", summary.Table),
		slog.Int("rows", summary.Rows),
		slog.String("start_date", s.cfg.StartDate),
		slog.Int("days", s.cfg.Days),
	)
	return summary, nil
}

func (s *Service) insertRecords(ctx context.Context, db *sql.DB, table string, records []TrialRecord) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+table+` (crop, region, date, yield_tonnes) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, record := range records {
		if _, err := stmt.ExecContext(ctx,
			record.Crop,
			record.Region,
			record.Date.Format("2006-01-02"),
			record.YieldTonnes,
		); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit inserts: %w", err)
	}
	return len(records), nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
