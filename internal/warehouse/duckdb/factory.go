package duckdb

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/agrigate/agrigate/internal/datafunc"
	"github.com/agrigate/agrigate/internal/warehouse"
)

// Factory mirrors the BigQuery factory's failure ordering: blank path,
// then missing file, then open failure. DuckDB would happily create a new
// database at a dangling path, so the stat check runs first.
func Factory(cfg Config) datafunc.ClientFactory {
	return func(ctx context.Context) (warehouse.Client, error) {
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			return nil, &datafunc.ConfigurationError{
				Detail: "AGRIGATE_DUCKDB_PATH is not set; point it at a duckdb database file",
			}
		}
		if _, err := os.Stat(path); err != nil {
			return nil, &datafunc.ConfigurationError{
				Detail: fmt.Sprintf("duckdb database file not found: %q", path),
			}
		}

		client, err := Open(Config{Path: path, Table: cfg.Table})
		if err != nil {
			return nil, &datafunc.AuthenticationError{Err: err}
		}
		if err := client.db.PingContext(ctx); err != nil {
			_ = client.Close()
			return nil, &datafunc.AuthenticationError{Err: err}
		}
		return client, nil
	}
}
