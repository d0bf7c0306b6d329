// Package config loads and validates the crawler configuration from file,
// environment and defaults via viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// CrawlConfig controls frontier and worker behavior.
type CrawlConfig struct {
	// MaxDepth is the deepest link distance from a seed that will be
	// enqueued. Links beyond it are silently dropped.
	MaxDepth int `mapstructure:"max_depth"`
	// MaxWorkers is the fixed size of the worker pool.
	MaxWorkers int `mapstructure:"max_workers"`
	// RetryLimit is how many times a failed fetch is re-attempted before
	// the URL is marked failed.
	RetryLimit int `mapstructure:"retry_limit"`
}

// PolitenessConfig controls per-host pacing and identity rotation.
type PolitenessConfig struct {
	// MinInterval is the minimum delay between requests to one host.
	MinInterval time.Duration `mapstructure:"min_interval"`
	// MaxWait caps how long an acquire may block before proceeding
	// anyway and logging a degraded-politeness event.
	MaxWait time.Duration `mapstructure:"max_wait"`
	// UserAgents is the rotating outbound identity pool.
	UserAgents []string `mapstructure:"user_agents"`
}

// FetchConfig controls the HTTP fetch capability.
type FetchConfig struct {
	// Timeout bounds a single fetch call.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// IntelConfig controls the domain intelligence gatherer.
type IntelConfig struct {
	// CacheTTL is how long a DomainRecord stays fresh in the
	// process-wide cache.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// LookupTimeout bounds one WHOIS or DNS call.
	LookupTimeout time.Duration `mapstructure:"lookup_timeout"`
}

// ScoreConfig holds the tunable thresholds for the risk scorer.
type ScoreConfig struct {
	// RecentWindow marks a registration as suspicious when the domain
	// was created within it.
	RecentWindow time.Duration `mapstructure:"recent_window"`
	// EmailThreshold is the distinct-email count above which the
	// mass-contact rule fires.
	EmailThreshold int `mapstructure:"email_threshold"`
	// SuspiciousTXT lists substrings of TXT records associated with
	// known-suspicious hosting or forwarding services.
	SuspiciousTXT []string `mapstructure:"suspicious_txt"`
}

// StorageConfig configures the MongoDB persistence adapter.
type StorageConfig struct {
	URI           string        `mapstructure:"uri"`
	Database      string        `mapstructure:"database"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Config is the root configuration for the service.
type Config struct {
	Crawl      CrawlConfig      `mapstructure:"crawl"`
	Politeness PolitenessConfig `mapstructure:"politeness"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Intel      IntelConfig      `mapstructure:"intel"`
	Score      ScoreConfig      `mapstructure:"score"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Log        LogConfig        `mapstructure:"log"`
}

// SetDefaults registers default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("crawl.max_depth", 3)
	v.SetDefault("crawl.max_workers", 5)
	v.SetDefault("crawl.retry_limit", 2)

	v.SetDefault("politeness.min_interval", 2*time.Second)
	v.SetDefault("politeness.max_wait", 30*time.Second)
	v.SetDefault("politeness.user_agents", []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	})

	v.SetDefault("fetch.timeout", 10*time.Second)
	v.SetDefault("fetch.max_body_bytes", int64(10*1024*1024))

	v.SetDefault("intel.cache_ttl", time.Hour)
	v.SetDefault("intel.lookup_timeout", 10*time.Second)

	v.SetDefault("score.recent_window", 90*24*time.Hour)
	v.SetDefault("score.email_threshold", 3)
	v.SetDefault("score.suspicious_txt", []string{
		"forwardemail", "improvmx", "v=spf1 include:spf.privateemail.com",
	})

	v.SetDefault("storage.uri", "mongodb://localhost:27017")
	v.SetDefault("storage.database", "scamintel")
	v.SetDefault("storage.retry_attempts", 3)
	v.SetDefault("storage.retry_backoff", 250*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load unmarshals and validates configuration from the given viper instance.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Crawl.MaxDepth < 0 {
		return errors.New("crawl.max_depth must be >= 0")
	}
	if c.Crawl.MaxWorkers < 1 {
		return errors.New("crawl.max_workers must be >= 1")
	}
	if c.Crawl.RetryLimit < 0 {
		return errors.New("crawl.retry_limit must be >= 0")
	}
	if c.Politeness.MinInterval < 0 {
		return errors.New("politeness.min_interval must be >= 0")
	}
	if len(c.Politeness.UserAgents) == 0 {
		return errors.New("politeness.user_agents must not be empty")
	}
	if c.Fetch.Timeout <= 0 {
		return errors.New("fetch.timeout must be > 0")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return errors.New("fetch.max_body_bytes must be > 0")
	}
	if c.Intel.CacheTTL <= 0 {
		return errors.New("intel.cache_ttl must be > 0")
	}
	if c.Score.RecentWindow <= 0 {
		return errors.New("score.recent_window must be > 0")
	}
	if c.Score.EmailThreshold < 1 {
		return errors.New("score.email_threshold must be >= 1")
	}
	if c.Storage.URI == "" {
		return errors.New("storage.uri must be set")
	}
	if c.Storage.Database == "" {
		return errors.New("storage.database must be set")
	}

	return nil
}
