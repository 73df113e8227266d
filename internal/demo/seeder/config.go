package seeder

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	DatabasePath string
	TableName    string
	StartDate    string
	Days         int
	Crops        []string
	Regions      []string
	PlotsPerDay  int
	Seed         int64
}

func DefaultConfig() Config {
	return Config{
		DatabasePath: "./data/field_trials.duckdb",
		TableName:    "field_trials",
		StartDate:    "2023-01-01",
		Days:         180,
		Crops:        []string{"wheat", "corn", "soy", "barley"},
		Regions:      []string{"north", "south", "east", "west"},
		PlotsPerDay:  2,
		Seed:         time.Now().UTC().UnixNano(),
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	if err := applyString(lookup, "AGRIGATE_SEED_DB_PATH", &cfg.DatabasePath); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_SEED_TABLE", &cfg.TableName); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "AGRIGATE_SEED_START_DATE", &cfg.StartDate); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "AGRIGATE_SEED_DAYS", &cfg.Days); err != nil {
		return Config{}, err
	}
	if err := applyList(lookup, "AGRIGATE_SEED_CROPS", &cfg.Crops); err != nil {
		return Config{}, err
	}
	if err := applyList(lookup, "AGRIGATE_SEED_REGIONS", &cfg.Regions); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "AGRIGATE_SEED_PLOTS_PER_DAY", &cfg.PlotsPerDay); err != nil {
		return Config{}, err
	}
	if err := applyInt64(lookup, "AGRIGATE_SEED_SEED", &cfg.Seed); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.DatabasePath) == "" {
		return Config{}, fmt.Errorf("AGRIGATE_SEED_DB_PATH is required")
	}
	if strings.TrimSpace(cfg.TableName) == "" {
		return Config{}, fmt.Errorf("AGRIGATE_SEED_TABLE is required")
	}
	if _, err := time.Parse("2006-01-02", cfg.StartDate); err != nil {
		return Config{}, fmt.Errorf("invalid AGRIGATE_SEED_START_DATE: %w", err)
	}
	if cfg.Days <= 0 {
		return Config{}, fmt.Errorf("AGRIGATE_SEED_DAYS must be > 0")
	}
	if len(cfg.Crops) == 0 {
		return Config{}, fmt.Errorf("AGRIGATE_SEED_CROPS must name at least one crop")
	}
	if len(cfg.Regions) == 0 {
		return Config{}, fmt.Errorf("AGRIGATE_SEED_REGIONS must name at least one region")
	}
	if cfg.PlotsPerDay <= 0 {
		return Config{}, fmt.Errorf("AGRIGATE_SEED_PLOTS_PER_DAY must be > 0")
	}

	cfg.DatabasePath = strings.TrimSpace(cfg.DatabasePath)
	cfg.TableName = strings.TrimSpace(cfg.TableName)
	return cfg, nil
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyList(lookup LookupFunc, key string, dst *[]string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fmt.Errorf("invalid %s: no values in %q", key, raw)
	}
	*dst = values
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
