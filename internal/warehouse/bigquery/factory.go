package bigquery

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/agrigate/agrigate/internal/datafunc"
	"github.com/agrigate/agrigate/internal/warehouse"
)

// Factory resolves credentials per invocation, never at startup. The
// checks stay ordered: blank path, then missing file, then SDK
// construction, so hosts see the most specific failure first.
func Factory(cfg Config) datafunc.ClientFactory {
	return func(ctx context.Context) (warehouse.Client, error) {
		path := strings.TrimSpace(cfg.CredentialsFile)
		if path == "" {
			return nil, &datafunc.ConfigurationError{
				Detail: "AGRIGATE_BQ_SERVICE_ACCOUNT_JSON is not set; point it at a service account key file",
			}
		}
		if _, err := os.Stat(path); err != nil {
			return nil, &datafunc.ConfigurationError{
				Detail: fmt.Sprintf("service account key file not found: %q", path),
			}
		}

		client, err := New(ctx, Config{CredentialsFile: path, Project: cfg.Project})
		if err != nil {
			return nil, &datafunc.AuthenticationError{Err: err}
		}
		return client, nil
	}
}
