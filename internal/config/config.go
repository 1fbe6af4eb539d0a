package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Version     string   `json:"version" mapstructure:"version"`
	SeedSpec    string   `json:"seed_spec" mapstructure:"seed_spec"`
	SnapshotDir string   `json:"snapshot_dir" mapstructure:"snapshot_dir"`
	LogTable    string   `json:"log_table" mapstructure:"log_table"`
	Database    Database `json:"database" mapstructure:"database"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Set defaults
	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.SeedSpec == "" {
		cfg.SeedSpec = "db/seedspec.yaml"
	}
	if cfg.SnapshotDir == "" {
		cfg.SnapshotDir = "db/snapshots"
	}
	if cfg.LogTable == "" {
		cfg.LogTable = "seed_run_log"
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "postgresql"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}

	return &cfg, nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

func (c *Config) Validate() error {
	supportedProviders := []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}
	supported := false
	for _, provider := range supportedProviders {
		if c.Database.Provider == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}

	if c.SeedSpec == "" {
		return fmt.Errorf("seed_spec cannot be empty")
	}
	if c.SnapshotDir == "" {
		return fmt.Errorf("snapshot_dir cannot be empty")
	}

	return nil
}
