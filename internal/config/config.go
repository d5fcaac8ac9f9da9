// Package config provides application configuration via viper.
//
// Configuration is read from environment variables prefixed with COINKEEP_
// and, when present, from a coinkeep.yaml file in the working directory.
// Every key has a usable default so the binary runs with zero setup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// DatabasePath is the location of the local SQLite file.
	DatabasePath string

	// RemoteURL is the base URL of the cloud sync backend. Empty disables
	// network sync entirely (pure offline mode).
	RemoteURL string

	// SyncInterval is how often the engine attempts a push while online.
	SyncInterval time.Duration

	// HTTPTimeout is the deadline applied to every push/pull network call.
	HTTPTimeout time.Duration

	// ProbeAddr is the host:port dialed to determine reachability.
	ProbeAddr string

	// ProbeInterval is how often connectivity is re-checked.
	ProbeInterval time.Duration

	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment and optional config file.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("database_path", ".coinkeep/coinkeep.db")
	v.SetDefault("remote_url", "")
	v.SetDefault("sync_interval", "30s")
	v.SetDefault("http_timeout", "15s")
	v.SetDefault("probe_addr", "1.1.1.1:443")
	v.SetDefault("probe_interval", "5s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	v.SetEnvPrefix("coinkeep")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("coinkeep")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; anything else is a real error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		DatabasePath:  v.GetString("database_path"),
		RemoteURL:     v.GetString("remote_url"),
		SyncInterval:  v.GetDuration("sync_interval"),
		HTTPTimeout:   v.GetDuration("http_timeout"),
		ProbeAddr:     v.GetString("probe_addr"),
		ProbeInterval: v.GetDuration("probe_interval"),
		LogLevel:      v.GetString("log_level"),
		LogFile:       v.GetString("log_file"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that configuration values are usable.
func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path cannot be empty")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval must be positive (got %v)", c.SyncInterval)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive (got %v)", c.HTTPTimeout)
	}
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("probe_interval must be positive (got %v)", c.ProbeInterval)
	}
	return nil
}
