package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "https://vglist.nl/", cfg.Scraper.AggregatorURL)
	assert.Equal(t, int64(4), cfg.Scraper.Concurrency)
	assert.NotEmpty(t, cfg.Scraper.AdDenylist)
	assert.Len(t, cfg.Scraper.ServerTiers, 3)
	assert.Equal(t, "Server One", cfg.Scraper.ServerTiers[0].Name)
	assert.Equal(t, 16, cfg.Store.Shards)

	assert.NoError(t, cfg.Validate())
}

func TestNewConfigFromViper(t *testing.T) {
	t.Run("overrides defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("scraper.aggregator_url", "https://example.com/list")
		v.Set("scraper.concurrency", 2)
		v.Set("browser.headless", false)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/list", cfg.Scraper.AggregatorURL)
		assert.Equal(t, int64(2), cfg.Scraper.Concurrency)
		assert.False(t, cfg.Browser.Headless)
	})

	t.Run("reads bot token from env", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
		v := viper.New()
		SetDefaults(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "123:abc", cfg.Bot.Token)
	})

	t.Run("custom server tiers replace defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("scraper.server_tiers", []map[string]any{
			{
				"name": "Mirror A",
				"identifiers": []map[string]any{
					{"text": "Mirror A"},
				},
			},
		})

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		require.Len(t, cfg.Scraper.ServerTiers, 1)
		assert.Equal(t, "Mirror A", cfg.Scraper.ServerTiers[0].Name)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing aggregator url",
			mutate:  func(c *Config) { c.Scraper.AggregatorURL = "" },
			wantErr: "aggregator_url",
		},
		{
			name:    "non-positive concurrency",
			mutate:  func(c *Config) { c.Scraper.Concurrency = 0 },
			wantErr: "concurrency",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Scraper.SearchRetries = -1 },
			wantErr: "search_retries",
		},
		{
			name:    "zero shards",
			mutate:  func(c *Config) { c.Store.Shards = 0 },
			wantErr: "shards",
		},
		{
			name: "tier with both text and pattern",
			mutate: func(c *Config) {
				c.Scraper.ServerTiers[0].Identifiers[0].Text = "x"
				c.Scraper.ServerTiers[0].Identifiers[0].Pattern = "y"
			},
			wantErr: "exactly one",
		},
		{
			name: "tier with invalid pattern",
			mutate: func(c *Config) {
				c.Scraper.ServerTiers[0].Identifiers[0] = mustPattern(`server\s*(`)
			},
			wantErr: "invalid pattern",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func mustPattern(p string) schemas.Identifier {
	return schemas.Identifier{Pattern: p}
}

func TestBrowserContextOptions(t *testing.T) {
	b := BrowserConfig{IgnoreTLSErrors: false, UserAgent: "custom-agent"}
	opts := b.ContextOptions()
	assert.False(t, opts.IgnoreTLSErrors)
	assert.Equal(t, "custom-agent", opts.UserAgent)
	assert.True(t, opts.EnableJavaScript)
}
