// Package config provides configuration management for the gohoops
// service. Values come from an optional YAML file, environment
// variables, and defaults, resolved through viper by the root command.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/gohoops/internal/logger"
)

// Server defaults
const (
	defaultServerAddress      = ":8080"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerIdleTimeout  = 60 * time.Second
)

// Scraper defaults
const (
	defaultDataDir          = "./data"
	defaultRequestTimeout   = 15 * time.Second
	defaultForbiddenBackoff = 5 * time.Minute
	defaultSweepSchedule    = "@every 15m"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ScraperConfig holds the scraping pipeline settings.
type ScraperConfig struct {
	// DataDir is where per-year CSV datasets are written.
	DataDir string

	// CurrentYear caps year ranges and is the default for both ends.
	CurrentYear int

	// RequestTimeout bounds each outbound HTTP request.
	RequestTimeout time.Duration

	// ForbiddenBackoff is the sleep before retrying a 403 response.
	ForbiddenBackoff time.Duration

	// UserAgent overrides the default browser-like User-Agent.
	UserAgent string

	// AliasesFile optionally points at a YAML team alias table.
	AliasesFile string
}

// TasksConfig holds background task housekeeping settings.
type TasksConfig struct {
	// SweepSchedule is the cron spec for clearing old terminal tasks.
	SweepSchedule string
}

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig
	Scraper ScraperConfig
	Tasks   TasksConfig
	Logger  logger.Config
}

// SetDefaults registers every default value with viper. Called by the
// root command before the config file and environment are read.
func SetDefaults() {
	viper.SetDefault("server.address", defaultServerAddress)
	viper.SetDefault("server.read_timeout", defaultServerReadTimeout)
	viper.SetDefault("server.write_timeout", defaultServerWriteTimeout)
	viper.SetDefault("server.idle_timeout", defaultServerIdleTimeout)

	viper.SetDefault("scraper.data_dir", defaultDataDir)
	viper.SetDefault("scraper.current_year", time.Now().Year())
	viper.SetDefault("scraper.request_timeout", defaultRequestTimeout)
	viper.SetDefault("scraper.forbidden_backoff", defaultForbiddenBackoff)
	viper.SetDefault("scraper.user_agent", "")
	viper.SetDefault("scraper.aliases_file", "")

	viper.SetDefault("tasks.sweep_schedule", defaultSweepSchedule)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.development", false)
	viper.SetDefault("logger.encoding", "json")
}

// Load resolves the configuration from viper's current state.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address:      viper.GetString("server.address"),
			ReadTimeout:  viper.GetDuration("server.read_timeout"),
			WriteTimeout: viper.GetDuration("server.write_timeout"),
			IdleTimeout:  viper.GetDuration("server.idle_timeout"),
		},
		Scraper: ScraperConfig{
			DataDir:          viper.GetString("scraper.data_dir"),
			CurrentYear:      viper.GetInt("scraper.current_year"),
			RequestTimeout:   viper.GetDuration("scraper.request_timeout"),
			ForbiddenBackoff: viper.GetDuration("scraper.forbidden_backoff"),
			UserAgent:        viper.GetString("scraper.user_agent"),
			AliasesFile:      viper.GetString("scraper.aliases_file"),
		},
		Tasks: TasksConfig{
			SweepSchedule: viper.GetString("tasks.sweep_schedule"),
		},
		Logger: logger.Config{
			Level:       viper.GetString("logger.level"),
			Development: viper.GetBool("logger.development"),
			Encoding:    viper.GetString("logger.encoding"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server address must not be empty")
	}
	if c.Scraper.DataDir == "" {
		return fmt.Errorf("scraper data dir must not be empty")
	}
	if c.Scraper.CurrentYear < 2000 {
		return fmt.Errorf("scraper current year %d is implausible", c.Scraper.CurrentYear)
	}
	if c.Scraper.RequestTimeout <= 0 {
		return fmt.Errorf("scraper request timeout must be positive")
	}
	return nil
}
