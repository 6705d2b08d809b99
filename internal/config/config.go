package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Config holds runtime settings read from the environment.
// Variables may be prefixed with TRACKER_ (TRACKER_STATE) or given bare (STATE).
type Config struct {
	State         string        `envconfig:"STATE" default:"mn"`
	Session       string        `envconfig:"SESSION" default:"2025-2026"`
	APIBaseURL    string        `envconfig:"API_BASE_URL" default:"https://openstates.org/api/v1"`
	APIKey        string        `envconfig:"API_KEY" default:""`
	SheetSource   string        `envconfig:"SHEET_SOURCE" default:"tracker.xlsx"`
	SheetCacheTTL time.Duration `envconfig:"SHEET_CACHE_TTL" default:"10m"`
	AggregateURL  string        `envconfig:"AGGREGATE_URL" default:""`
	DatabaseURL   string        `envconfig:"DATABASE_URL" default:""`
	Port          string        `envconfig:"PORT" default:"8080"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
	OptionsFile   string        `envconfig:"OPTIONS_FILE" default:""`
}

// New creates a Config by parsing environment variables
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("TRACKER", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if cfg.State == "" || cfg.Session == "" {
		return nil, fmt.Errorf("STATE and SESSION are required")
	}
	cfg.State = strings.ToLower(cfg.State)

	return &cfg, nil
}

// SheetsFromWorkbook reports whether SheetSource names a local .xlsx file
func (c *Config) SheetsFromWorkbook() bool {
	return strings.HasSuffix(strings.ToLower(c.SheetSource), ".xlsx")
}

// LogSummary writes the loaded configuration without secrets
func (c *Config) LogSummary(log zerolog.Logger) {
	log.Info().
		Str("state", c.State).
		Str("session", c.Session).
		Str("api_base_url", c.APIBaseURL).
		Bool("api_key_present", c.APIKey != "").
		Str("sheet_source", c.SheetSource).
		Dur("sheet_cache_ttl", c.SheetCacheTTL).
		Bool("aggregate_feed", c.AggregateURL != "").
		Bool("database", c.DatabaseURL != "").
		Msg("Configuration loaded")
}
