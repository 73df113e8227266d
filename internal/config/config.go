package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	BackendBigQuery = "bigquery"
	BackendDuckDB   = "duckdb"
)

// Placeholder defaults ship so the service starts without a real warehouse
// wired in. They are reported by /v1/target and logged at startup.
const (
	PlaceholderProject = "your-gcp-project-id"
	PlaceholderDataset = "your_dataset"
	PlaceholderTable   = "your_table"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	BigQuery      BigQueryConfig
	Warehouse     WarehouseConfig
	DuckDB        DuckDBConfig
	History       HistoryConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type BigQueryConfig struct {
	// ServiceAccountJSON is the key file path. Deliberately not validated
	// at load: a blank or dangling path surfaces per invocation as an
	// error table, never as a startup failure.
	ServiceAccountJSON string
	Project            string
	Dataset            string
	Table              string
}

func (c BigQueryConfig) PlaceholderFields() []string {
	var fields []string
	if c.Project == PlaceholderProject {
		fields = append(fields, "project")
	}
	if c.Dataset == PlaceholderDataset {
		fields = append(fields, "dataset")
	}
	if c.Table == PlaceholderTable {
		fields = append(fields, "table")
	}
	return fields
}

type WarehouseConfig struct {
	Backend string
}

type DuckDBConfig struct {
	Path  string
	Table string
}

type HistoryConfig struct {
	DSN               string
	MaxOpenConns      int
	MaxIdleConns      int
	ConnMaxIdleTime   time.Duration
	ConnMaxLifetime   time.Duration
	RetentionMaxAge   time.Duration
	RetentionInterval time.Duration
}

func (c HistoryConfig) Enabled() bool {
	return c.DSN != ""
}

type ArchiveConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("AGRIGATE_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid AGRIGATE_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "AGRIGATE_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "AGRIGATE_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "AGRIGATE_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "AGRIGATE_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_BQ_SERVICE_ACCOUNT_JSON", &cfg.BigQuery.ServiceAccountJSON); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_BQ_PROJECT", &cfg.BigQuery.Project); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_BQ_DATASET", &cfg.BigQuery.Dataset); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_BQ_TABLE", &cfg.BigQuery.Table); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_WAREHOUSE_BACKEND", &cfg.Warehouse.Backend); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_DUCKDB_PATH", &cfg.DuckDB.Path); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_DUCKDB_TABLE", &cfg.DuckDB.Table); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_HISTORY_DSN", &cfg.History.DSN); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "AGRIGATE_HISTORY_MAX_OPEN_CONNS", &cfg.History.MaxOpenConns); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "AGRIGATE_HISTORY_MAX_IDLE_CONNS", &cfg.History.MaxIdleConns); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "AGRIGATE_HISTORY_CONN_MAX_IDLE_TIME", &cfg.History.ConnMaxIdleTime); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "AGRIGATE_HISTORY_CONN_MAX_LIFETIME", &cfg.History.ConnMaxLifetime); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "AGRIGATE_HISTORY_RETENTION_MAX_AGE", &cfg.History.RetentionMaxAge); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "AGRIGATE_HISTORY_RETENTION_INTERVAL", &cfg.History.RetentionInterval); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "AGRIGATE_ARCHIVE_ENABLED", &cfg.Archive.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_ARCHIVE_ENDPOINT", &cfg.Archive.Endpoint); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_ARCHIVE_REGION", &cfg.Archive.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_ARCHIVE_BUCKET", &cfg.Archive.Bucket); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_ARCHIVE_ACCESS_KEY", &cfg.Archive.AccessKeyID); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_ARCHIVE_SECRET_KEY", &cfg.Archive.SecretAccessKey); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "AGRIGATE_ARCHIVE_USE_SSL", &cfg.Archive.UseSSL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_ARCHIVE_PREFIX", &cfg.Archive.Prefix); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "AGRIGATE_ARCHIVE_AUTO_CREATE_BUCKET", &cfg.Archive.AutoCreateBucket); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "AGRIGATE_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "AGRIGATE_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "AGRIGATE_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys); err != nil {
		return Config{}, err
	}

	if cfg.DuckDB.Table == "" {
		cfg.DuckDB.Table = cfg.BigQuery.Table
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if !isValidBackend(cfg.Warehouse.Backend) {
		return Config{}, fmt.Errorf("invalid AGRIGATE_WAREHOUSE_BACKEND: %q", cfg.Warehouse.Backend)
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "agrigate-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		BigQuery: BigQueryConfig{
			ServiceAccountJSON: "",
			Project:            PlaceholderProject,
			Dataset:            PlaceholderDataset,
			Table:              PlaceholderTable,
		},
		Warehouse: WarehouseConfig{
			Backend: BackendBigQuery,
		},
		DuckDB: DuckDBConfig{
			Path:  "",
			Table: "",
		},
		History: HistoryConfig{
			DSN:               "",
			MaxOpenConns:      10,
			MaxIdleConns:      10,
			ConnMaxIdleTime:   5 * time.Minute,
			ConnMaxLifetime:   30 * time.Minute,
			RetentionMaxAge:   720 * time.Hour,
			RetentionInterval: 0,
		},
		Archive: ArchiveConfig{
			Enabled:          false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "agrigate",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Auth.Required = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
		cfg.Archive.UseSSL = true
		cfg.Archive.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func isValidBackend(backend string) bool {
	switch backend {
	case BackendBigQuery, BackendDuckDB:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
