// Package config loads and validates scanner configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Scanner ScannerConfig `mapstructure:"scanner"`
	Storage StorageConfig `mapstructure:"storage"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// ScannerConfig governs the scan pipeline.
type ScannerConfig struct {
	UserAgent             string `mapstructure:"user_agent"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
	SecondaryDelaySeconds int    `mapstructure:"secondary_delay_seconds"`
	Concurrency           int    `mapstructure:"concurrency"`
	QueueDepth            int    `mapstructure:"queue_depth"`
	Workers               int    `mapstructure:"workers"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (c ScannerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SecondaryDelay returns the politeness delay between secondary fetches.
func (c ScannerConfig) SecondaryDelay() time.Duration {
	return time.Duration(c.SecondaryDelaySeconds) * time.Second
}

// StorageConfig selects the report archive backend.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	Prefix    string `mapstructure:"prefix"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// DBConfig controls the optional Postgres result store.
type DBConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
	Table   string `mapstructure:"table"`
}

// PubSubConfig holds metadata for completion notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LICENSESCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("scanner.user_agent", "license-scanner/1.0")
	v.SetDefault("scanner.request_timeout_seconds", 10)
	v.SetDefault("scanner.secondary_delay_seconds", 1)
	v.SetDefault("scanner.concurrency", 1)
	v.SetDefault("scanner.queue_depth", 64)
	v.SetDefault("scanner.workers", 1)
	v.SetDefault("storage.provider", "memory")
	v.SetDefault("storage.prefix", "reports")
	v.SetDefault("db.enabled", false)
	v.SetDefault("db.table", "scan_results")
	v.SetDefault("pubsub.enabled", false)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scanner.UserAgent == "" {
		return fmt.Errorf("scanner.user_agent must be set")
	}
	if c.Scanner.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("scanner.request_timeout_seconds must be > 0")
	}
	if c.Scanner.Concurrency <= 0 {
		return fmt.Errorf("scanner.concurrency must be > 0")
	}
	if c.Scanner.Workers <= 0 {
		return fmt.Errorf("scanner.workers must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Storage.Provider {
	case "memory":
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir must be set for the local provider")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs provider")
		}
	default:
		return fmt.Errorf("unknown storage provider: %s", c.Storage.Provider)
	}
	if c.DB.Enabled && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when db is enabled")
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub is enabled")
	}
	return nil
}
