package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/agrigate/agrigate/internal/auth"
)

func handleHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.History == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "HISTORY_NOT_CONFIGURED", "invocation history is not configured", false, nil)
		return
	}
	if err := requireAnyRole(r, auth.RoleInvoker, auth.RoleOpsAdmin); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer", false, nil)
			return
		}
		limit = parsed
	}

	invocations, err := deps.History.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "HISTORY_ERROR", "failed to list invocation history", true, map[string]any{"details": err.Error()})
		return
	}

	items := make([]map[string]any, 0, len(invocations))
	for _, invocation := range invocations {
		item := map[string]any{
			"invocation_id": invocation.InvocationID,
			"trace_id":      invocation.TraceID,
			"crop":          invocation.Crop,
			"region":        invocation.Region,
			"start_date":    invocation.StartDate,
			"end_date":      invocation.EndDate,
			"outcome":       invocation.Outcome,
			"row_count":     invocation.RowCount,
			"duration_ms":   invocation.DurationMs,
			"created_at":    invocation.CreatedAt,
		}
		if invocation.ErrorDetails != nil {
			item["error_details"] = *invocation.ErrorDetails
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"invocations": items,
		"count":       len(items),
	})
}
