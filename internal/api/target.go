package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/agrigate/agrigate/internal/auth"
	"github.com/agrigate/agrigate/internal/config"
)

// handleTarget reports the configured warehouse target so operators can
// spot placeholder values before Spotfire does.
func handleTarget(cfg config.Config, w http.ResponseWriter, r *http.Request) {
	if err := requireAnyRole(r, auth.RoleInvoker, auth.RoleOpsAdmin); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"backend":            cfg.Warehouse.Backend,
		"project":            cfg.BigQuery.Project,
		"dataset":            cfg.BigQuery.Dataset,
		"table":              cfg.BigQuery.Table,
		"placeholder_fields": cfg.BigQuery.PlaceholderFields(),
	})
}

func requireAnyRole(r *http.Request, roles ...string) error {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	for _, role := range roles {
		if identity.HasRole(role) {
			return nil
		}
	}
	return fmt.Errorf("missing required role, expected one of %q", strings.Join(roles, ","))
}
