// Package api exposes the data function and its operational surface
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrigate/agrigate/internal/config"
	"github.com/agrigate/agrigate/internal/datafunc"
	"github.com/agrigate/agrigate/internal/history"
	"github.com/agrigate/agrigate/internal/maintenance"
	"github.com/agrigate/agrigate/internal/observability"
	"github.com/agrigate/agrigate/internal/storage"
	"github.com/agrigate/agrigate/internal/warehouse"
)

type ReadinessCheck func(ctx context.Context) error

// Invoker runs one data function invocation. The outcome is always a
// table; errors travel inside it.
type Invoker interface {
	Run(ctx context.Context, in datafunc.Inputs) datafunc.Outcome
}

type ResultArchiver interface {
	ArchiveResult(ctx context.Context, invocationID string, table warehouse.Table) (storage.ObjectInfo, error)
}

type MaintenanceRunner interface {
	RunRetentionOnce(ctx context.Context) (maintenance.RetentionSummary, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	Invoker           Invoker
	History           history.Recorder
	Archiver          ResultArchiver
	Maintenance       MaintenanceRunner
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/datafunction", func(w http.ResponseWriter, r *http.Request) {
		handleDataFunction(deps, w, r)
	})
	protected.HandleFunc("GET /v1/target", func(w http.ResponseWriter, r *http.Request) {
		handleTarget(cfg, w, r)
	})
	protected.HandleFunc("GET /v1/history", func(w http.ResponseWriter, r *http.Request) {
		handleHistory(deps, w, r)
	})
	protected.HandleFunc("POST /v1/retention/run", func(w http.ResponseWriter, r *http.Request) {
		handleRetentionRun(deps, w, r)
	})

	var protectedHandler http.Handler = protected
	if cfg.Auth.Required {
		if deps.AuthMiddleware == nil {
			if deps.Logger != nil {
				deps.Logger.Error("auth required but auth middleware missing")
			}
			protectedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		} else {
			protectedHandler = deps.AuthMiddleware(protectedHandler)
		}
	}
	mux.Handle("POST /v1/datafunction", protectedHandler)
	mux.Handle("GET /v1/target", protectedHandler)
	mux.Handle("GET /v1/history", protectedHandler)
	mux.Handle("POST /v1/retention/run", protectedHandler)

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

// CheckWarehouseConfig verifies the configured backend is structurally
// usable. BigQuery credentials stay out on purpose: they are resolved
// per invocation, and a missing key file must surface as an error table,
// not as an unready service.
func CheckWarehouseConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		switch cfg.Warehouse.Backend {
		case config.BackendBigQuery:
			if cfg.BigQuery.Project == "" || cfg.BigQuery.Dataset == "" || cfg.BigQuery.Table == "" {
				return errors.New("bigquery target is not fully configured")
			}
		case config.BackendDuckDB:
			if cfg.DuckDB.Path == "" {
				return errors.New("duckdb path is not configured")
			}
		default:
			return fmt.Errorf("unknown warehouse backend %q", cfg.Warehouse.Backend)
		}
		return nil
	}
}

func CheckHistoryStore(recorder history.Recorder) ReadinessCheck {
	return func(ctx context.Context) error {
		if recorder == nil {
			return nil
		}
		return recorder.HealthCheck(ctx)
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
