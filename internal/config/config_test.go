package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/scamintel/internal/config"
)

func loadDefaults(t *testing.T) *config.Config {
	t.Helper()

	v := viper.New()
	config.SetDefaults(v)

	cfg, err := config.Load(v)
	require.NoError(t, err)

	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadDefaults(t)

	assert.Equal(t, 3, cfg.Crawl.MaxDepth)
	assert.Equal(t, 5, cfg.Crawl.MaxWorkers)
	assert.Equal(t, 2, cfg.Crawl.RetryLimit)

	assert.Equal(t, 2*time.Second, cfg.Politeness.MinInterval)
	assert.Equal(t, 30*time.Second, cfg.Politeness.MaxWait)
	assert.Len(t, cfg.Politeness.UserAgents, 3)

	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.EqualValues(t, 10*1024*1024, cfg.Fetch.MaxBodyBytes)

	assert.Equal(t, time.Hour, cfg.Intel.CacheTTL)
	assert.Equal(t, 90*24*time.Hour, cfg.Score.RecentWindow)
	assert.Equal(t, 3, cfg.Score.EmailThreshold)
	assert.NotEmpty(t, cfg.Score.SuspiciousTXT)

	assert.Equal(t, "mongodb://localhost:27017", cfg.Storage.URI)
	assert.Equal(t, "scamintel", cfg.Storage.Database)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("crawl.max_depth", 7)
	v.Set("politeness.min_interval", "500ms")
	v.Set("storage.database", "scamintel_test")

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Crawl.MaxDepth)
	assert.Equal(t, 500*time.Millisecond, cfg.Politeness.MinInterval)
	assert.Equal(t, "scamintel_test", cfg.Storage.Database)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr string
	}{
		{
			"negative depth",
			func(cfg *config.Config) { cfg.Crawl.MaxDepth = -1 },
			"crawl.max_depth",
		},
		{
			"zero workers",
			func(cfg *config.Config) { cfg.Crawl.MaxWorkers = 0 },
			"crawl.max_workers",
		},
		{
			"negative retry limit",
			func(cfg *config.Config) { cfg.Crawl.RetryLimit = -1 },
			"crawl.retry_limit",
		},
		{
			"no user agents",
			func(cfg *config.Config) { cfg.Politeness.UserAgents = nil },
			"politeness.user_agents",
		},
		{
			"zero fetch timeout",
			func(cfg *config.Config) { cfg.Fetch.Timeout = 0 },
			"fetch.timeout",
		},
		{
			"zero body cap",
			func(cfg *config.Config) { cfg.Fetch.MaxBodyBytes = 0 },
			"fetch.max_body_bytes",
		},
		{
			"zero cache ttl",
			func(cfg *config.Config) { cfg.Intel.CacheTTL = 0 },
			"intel.cache_ttl",
		},
		{
			"zero recent window",
			func(cfg *config.Config) { cfg.Score.RecentWindow = 0 },
			"score.recent_window",
		},
		{
			"empty storage uri",
			func(cfg *config.Config) { cfg.Storage.URI = "" },
			"storage.uri",
		},
		{
			"empty database",
			func(cfg *config.Config) { cfg.Storage.Database = "" },
			"storage.database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadDefaults(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := loadDefaults(t)

	assert.NoError(t, cfg.Validate())
}

func TestValidate_ZeroRetryLimitAllowed(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Crawl.RetryLimit = 0

	assert.NoError(t, cfg.Validate(), "retry_limit 0 disables retries and is legal")
}
