package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/agrigate/agrigate/internal/auth"
	"github.com/agrigate/agrigate/internal/datafunc"
	"github.com/agrigate/agrigate/internal/history"
	"github.com/agrigate/agrigate/internal/observability"
)

type dataFunctionRequest struct {
	Crop      string `json:"crop"`
	Region    string `json:"region"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// handleDataFunction always answers 200 once the request parses: the
// invocation contract returns either the result table or a one-row
// error table, never an HTTP failure.
func handleDataFunction(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Invoker == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "DATAFUNCTION_NOT_CONFIGURED", "data function dependencies are not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleInvoker); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request dataFunctionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid data function request body", false, map[string]any{"details": err.Error()})
		return
	}

	invocationID := uuid.NewString()
	outcome := deps.Invoker.Run(r.Context(), datafunc.Inputs{
		Crop:      request.Crop,
		Region:    request.Region,
		StartDate: request.StartDate,
		EndDate:   request.EndDate,
	})

	recordInvocation(r.Context(), deps, invocationID, request, outcome)
	archiveResult(r.Context(), deps, invocationID, outcome)

	hostTable := outcome.HostTable()
	payload := map[string]any{
		"invocation_id": invocationID,
		"status":        outcome.Status(),
		"columns":       hostTable.Columns,
		"rows":          hostTable.Rows,
		"stats": map[string]any{
			"duration_ms": outcome.Stats.Duration.Milliseconds(),
			"rows":        outcome.Stats.Rows,
		},
	}
	if outcome.Failed() {
		payload["error"] = map[string]any{
			"kind":    string(outcome.Error.Kind),
			"label":   outcome.Error.Label,
			"details": outcome.Error.Details,
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

// History and archive are side channels. A failure in either is logged
// and counted but never changes the invocation outcome.
func recordInvocation(ctx context.Context, deps Dependencies, invocationID string, request dataFunctionRequest, outcome datafunc.Outcome) {
	if deps.History == nil {
		return
	}
	input := history.RecordInvocationInput{
		InvocationID: invocationID,
		TraceID:      observability.TraceIDFromContext(ctx),
		Crop:         request.Crop,
		Region:       request.Region,
		StartDate:    request.StartDate,
		EndDate:      request.EndDate,
		Outcome:      outcome.Status(),
		RowCount:     int64(outcome.Stats.Rows),
		DurationMs:   outcome.Stats.Duration.Milliseconds(),
	}
	if outcome.Failed() {
		details := outcome.Error.Details
		input.ErrorDetails = &details
	}
	if _, err := deps.History.RecordInvocation(ctx, input); err != nil {
		observability.IncrementHistoryRecordFailure()
		if deps.Logger != nil {
			deps.Logger.WarnContext(ctx, "failed to record invocation history",
				slog.String("invocation_id", invocationID),
				slog.Any("error", err),
			)
		}
	}
}

func archiveResult(ctx context.Context, deps Dependencies, invocationID string, outcome datafunc.Outcome) {
	if deps.Archiver == nil || outcome.Failed() {
		return
	}
	if _, err := deps.Archiver.ArchiveResult(ctx, invocationID, outcome.Table); err != nil {
		observability.IncrementArchiveUpload("error")
		if deps.Logger != nil {
			deps.Logger.WarnContext(ctx, "failed to archive invocation result",
				slog.String("invocation_id", invocationID),
				slog.Any("error", err),
			)
		}
		return
	}
	observability.IncrementArchiveUpload("ok")
}

func requireRole(r *http.Request, role string) error {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	if identity.HasRole(role) {
		return nil
	}
	return fmt.Errorf("missing required role %q", role)
}
