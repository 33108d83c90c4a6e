package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultGapWindowDays is the default reuse-advisory window: an item
// worn within this many days of the candidate date is flagged.
const DefaultGapWindowDays = 2

// Config holds all configuration for wearcal.
type Config struct {
	Closet  ClosetConfig  `mapstructure:"closet"`
	Advisor AdvisorConfig `mapstructure:"advisor"`
	View    ViewConfig    `mapstructure:"view"`
	Logging LoggingConfig `mapstructure:"logging"`
	API     APIConfig     `mapstructure:"api"`
}

// ClosetConfig holds wardrobe-service connection settings.
type ClosetConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	AuthToken string `mapstructure:"auth_token"`
	UserID    string `mapstructure:"user_id"`
}

// String returns a safe representation with the auth token masked.
func (c ClosetConfig) String() string {
	return fmt.Sprintf("ClosetConfig{BaseURL:%s, AuthToken:%s, UserID:%s}", c.BaseURL, maskToken(c.AuthToken), c.UserID)
}

// maskToken shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskToken(token string) string {
	const visible = 4
	if len(token) <= visible*2 {
		return "***"
	}
	return token[:visible] + "****" + token[len(token)-visible:]
}

// AdvisorConfig holds gap-day advisory settings.
type AdvisorConfig struct {
	GapWindowDays int `mapstructure:"gap_window_days"`
}

// ViewConfig holds calendar aggregation settings.
type ViewConfig struct {
	VisibleLimit int `mapstructure:"visible_limit"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("closet.base_url", "http://localhost:9000")
	v.SetDefault("closet.auth_token", "")
	v.SetDefault("closet.user_id", "")

	v.SetDefault("advisor.gap_window_days", DefaultGapWindowDays)
	v.SetDefault("view.visible_limit", 3)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".wearcal"))
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("WEARCAL")
	v.AutomaticEnv()

	// Map specific env vars
	_ = v.BindEnv("closet.base_url", "WEARCAL_CLOSET_BASE_URL")
	_ = v.BindEnv("closet.auth_token", "WEARCAL_CLOSET_AUTH_TOKEN")
	_ = v.BindEnv("closet.user_id", "WEARCAL_CLOSET_USER_ID")
	_ = v.BindEnv("api.listen_addr", "WEARCAL_API_LISTEN_ADDR")
	_ = v.BindEnv("api.auth_token", "WEARCAL_API_AUTH_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK — use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	if c.Closet.BaseURL == "" {
		return fmt.Errorf("closet.base_url must not be empty")
	}
	if c.Advisor.GapWindowDays < 0 {
		return fmt.Errorf("advisor.gap_window_days must be >= 0")
	}
	if c.View.VisibleLimit <= 0 {
		return fmt.Errorf("view.visible_limit must be greater than 0")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
