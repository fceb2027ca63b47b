package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the Krishi SahAI service.
// Environment variables are parsed from the KRISHI_ prefix.
type Config struct {
	// Build target selects high-level environment: local, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// DBDriver is derived from BuildTarget when set to "auto"
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres Configuration (cloud target)
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite Configuration (local target)
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/sahai.db"`

	// Hosted model configuration
	GenAIAPIKey string `envconfig:"GENAI_API_KEY" default:""`
	GenAIModel  string `envconfig:"GENAI_MODEL" default:"gemini-2.0-flash"`

	// Weather provider
	WeatherBaseURL string `envconfig:"WEATHER_BASE_URL" default:"https://api.open-meteo.com"`
	WeatherGeoURL  string `envconfig:"WEATHER_GEO_URL" default:"https://geocoding-api.open-meteo.com"`

	// SMTP notifier (disabled when host is empty)
	SMTPHost string `envconfig:"SMTP_HOST" default:""`
	SMTPPort int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser string `envconfig:"SMTP_USER" default:""`
	SMTPPass string `envconfig:"SMTP_PASS" default:""`
	SMTPFrom string `envconfig:"SMTP_FROM" default:"noreply@krishisahai.app"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"15"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"5"`

	// Events bus buffer size for forum change notifications
	EventBufferSize int `envconfig:"EVENT_BUFFER_SIZE" default:"256"`

	// Dev-mode bearer token accepted by the mock authorizer
	DevAPIKey string `envconfig:"DEV_API_KEY" default:""`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"sqlite": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("KRISHI_POSTGRES_DSN is required for the postgres driver")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Variables are prefixed with KRISHI_, e.g. KRISHI_HTTP_PORT.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("KRISHI", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("genai_model", cfg.GenAIModel).
		Bool("genai_key_present", cfg.GenAIAPIKey != "").
		Str("weather_base_url", cfg.WeatherBaseURL).
		Bool("smtp_enabled", cfg.SMTPHost != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config suitable for unit tests.
func NewForTesting() *Config {
	return &Config{
		BuildTarget:               "local",
		DBDriver:                  "sqlite",
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		SQLitePath:                "",
		GenAIModel:                "gemini-2.0-flash",
		WeatherBaseURL:            "http://localhost:0",
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
		EventBufferSize:           16,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
