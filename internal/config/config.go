// Package config loads and validates jamscout configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Keywords KeywordsConfig `mapstructure:"keywords"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig controls access to the relational database.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// HTTPConfig configures the itch.io HTTP client.
type HTTPConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	UserAgent     string        `mapstructure:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Delay         time.Duration `mapstructure:"delay"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
}

// CrawlConfig governs discovery and collection behavior.
type CrawlConfig struct {
	Kinds    []string `mapstructure:"kinds"`
	Workers  int      `mapstructure:"workers"`
	MaxPages int      `mapstructure:"max_pages"`
}

// KeywordsConfig points at the classification keyword file.
type KeywordsConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig controls the ops listener exposed during crawls.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk and environment. An explicit path must be
// readable; otherwise .jamscout.yaml is searched for in the working
// directory and the home directory, and its absence is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JAMSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName(".jamscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
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
	// Registering database.url makes the env override visible to Unmarshal.
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.max_conn_lifetime", "30m")
	v.SetDefault("http.base_url", "https://itch.io")
	v.SetDefault("http.user_agent", "jamscout-bot/1.0")
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.delay", "1s")
	v.SetDefault("http.retry_attempts", 1)
	v.SetDefault("http.retry_backoff", "2s")
	v.SetDefault("crawl.kinds", []string{"in-progress", "upcoming"})
	v.SetDefault("crawl.workers", 1)
	v.SetDefault("crawl.max_pages", 0)
	v.SetDefault("keywords.path", "keywords.toml")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url must be set")
	}
	u, err := url.Parse(c.HTTP.BaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("http.base_url must be an absolute http(s) URL")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent must be set")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be > 0")
	}
	if c.HTTP.Delay < 0 {
		return fmt.Errorf("http.delay must be >= 0")
	}
	if c.HTTP.RetryAttempts <= 0 {
		return fmt.Errorf("http.retry_attempts must be > 0")
	}
	if len(c.Crawl.Kinds) == 0 {
		return fmt.Errorf("crawl.kinds must include at least one listing")
	}
	if c.Crawl.Workers <= 0 {
		return fmt.Errorf("crawl.workers must be > 0")
	}
	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must be >= 0")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must be set when metrics are enabled")
	}
	return nil
}
