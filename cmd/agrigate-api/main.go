package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agrigate/agrigate/internal/api"
	"github.com/agrigate/agrigate/internal/archive"
	"github.com/agrigate/agrigate/internal/auth"
	"github.com/agrigate/agrigate/internal/config"
	"github.com/agrigate/agrigate/internal/datafunc"
	historypostgres "github.com/agrigate/agrigate/internal/history/postgres"
	"github.com/agrigate/agrigate/internal/maintenance"
	"github.com/agrigate/agrigate/internal/observability"
	s3store "github.com/agrigate/agrigate/internal/storage/s3"
	"github.com/agrigate/agrigate/internal/warehouse"
	bigquerywarehouse "github.com/agrigate/agrigate/internal/warehouse/bigquery"
	duckdbwarehouse "github.com/agrigate/agrigate/internal/warehouse/duckdb"
)

func main() {
	cfg, err := config.LoadFromEnv("agrigate-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	factory, err := clientFactory(cfg)
	if err != nil {
		logger.Error("failed to build warehouse factory", slog.Any("error", err))
		os.Exit(1)
	}
	invoker := &datafunc.Adapter{
		Target: warehouse.TableRef{
			Project: cfg.BigQuery.Project,
			Dataset: cfg.BigQuery.Dataset,
			Table:   cfg.BigQuery.Table,
		},
		Factory: factory,
		Logger:  logger,
	}

	deps := api.Dependencies{
		Logger:            logger,
		Invoker:           invoker,
		DependencyTimeout: time.Second,
	}
	readiness := []api.ReadinessCheck{api.CheckWarehouseConfig(cfg)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.History.Enabled() {
		historyDB, err := historypostgres.Open(ctx, historypostgres.DBConfig{
			DSN:             cfg.History.DSN,
			MaxOpenConns:    cfg.History.MaxOpenConns,
			MaxIdleConns:    cfg.History.MaxIdleConns,
			ConnMaxIdleTime: cfg.History.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.History.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to open history db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = historyDB.Close() }()

		repo := historypostgres.NewRepository(historyDB)
		deps.History = repo
		readiness = append(readiness, api.CheckHistoryStore(repo))

		if cfg.History.RetentionMaxAge > 0 {
			retention := &maintenance.Service{
				History: repo,
				Config: maintenance.Config{
					RetentionMaxAge:   cfg.History.RetentionMaxAge,
					RetentionInterval: cfg.History.RetentionInterval,
				},
				Logger: logger,
			}
			deps.Maintenance = retention
			if cfg.History.RetentionInterval > 0 {
				go func() {
					if err := retention.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error("retention loop stopped", slog.Any("error", err))
					}
				}()
			}
		}
	}

	if cfg.Archive.Enabled {
		store, err := s3store.New(ctx, s3store.Config{
			Endpoint:         cfg.Archive.Endpoint,
			Region:           cfg.Archive.Region,
			Bucket:           cfg.Archive.Bucket,
			AccessKeyID:      cfg.Archive.AccessKeyID,
			SecretAccessKey:  cfg.Archive.SecretAccessKey,
			UseSSL:           cfg.Archive.UseSSL,
			Prefix:           cfg.Archive.Prefix,
			AutoCreateBucket: cfg.Archive.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize archive store", slog.Any("error", err))
			os.Exit(1)
		}
		deps.Archiver = &archive.Archiver{Store: store, Logger: logger}
	}

	deps.Readiness = api.CombineReadinessChecks(readiness...)

	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	if fields := cfg.BigQuery.PlaceholderFields(); len(fields) > 0 && cfg.Warehouse.Backend == config.BackendBigQuery {
		logger.Warn("warehouse target still has placeholder values", slog.Any("fields", fields))
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("backend", cfg.Warehouse.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func clientFactory(cfg config.Config) (datafunc.ClientFactory, error) {
	switch cfg.Warehouse.Backend {
	case config.BackendBigQuery:
		return bigquerywarehouse.Factory(bigquerywarehouse.Config{
			CredentialsFile: cfg.BigQuery.ServiceAccountJSON,
			Project:         cfg.BigQuery.Project,
		}), nil
	case config.BackendDuckDB:
		return duckdbwarehouse.Factory(duckdbwarehouse.Config{
			Path:  cfg.DuckDB.Path,
			Table: cfg.DuckDB.Table,
		}), nil
	default:
		return nil, errors.New("unknown warehouse backend " + cfg.Warehouse.Backend)
	}
}
