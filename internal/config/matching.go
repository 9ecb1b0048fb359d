package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/rajavignesh573/shopmatch/internal/candidates"
	"github.com/rajavignesh573/shopmatch/internal/common"
)

// Config holds the resolved application configuration. Values come from the
// config file or SHOPMATCH_ environment variables, with defaults for
// everything except the reviewer identity, which has no sensible default.
type Config struct {
	DBPath       string
	TenantID     string
	ReviewerID   string
	FetchWorkers int
	FetchTimeout time.Duration
}

// Load resolves the application configuration from Viper.
func Load() (*Config, error) {
	viper.SetDefault("database.path", "~/.local/share/shopmatch/shopmatch.db")
	viper.SetDefault("tenant", "default")
	viper.SetDefault("matching.workers", 4)
	viper.SetDefault("matching.fetch_timeout", "10s")

	cfg := &Config{
		DBPath:       ExpandPath(viper.GetString("database.path")),
		TenantID:     viper.GetString("tenant"),
		ReviewerID:   viper.GetString("reviewer"),
		FetchWorkers: viper.GetInt("matching.workers"),
		FetchTimeout: viper.GetDuration("matching.fetch_timeout"),
	}

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("%w: database.path is empty", common.ErrMissingConfig)
	}
	if cfg.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant is empty", common.ErrMissingConfig)
	}
	if cfg.FetchWorkers < 1 {
		return nil, fmt.Errorf("%w: matching.workers must be at least 1", common.ErrInvalidConfig)
	}
	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("%w: matching.fetch_timeout must be positive", common.ErrInvalidConfig)
	}

	return cfg, nil
}

// GeneratorConfig maps the loaded configuration onto candidate generation
// settings, keeping the generator defaults for everything else.
func (c *Config) GeneratorConfig() candidates.Config {
	gen := candidates.DefaultConfig()
	gen.FetchWorkers = c.FetchWorkers
	gen.FetchTimeout = c.FetchTimeout
	return gen
}
