// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/spf13/viper"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Scraper ScraperConfig `mapstructure:"scraper" yaml:"scraper"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Bot     BotConfig     `mapstructure:"bot" yaml:"bot"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the headless browser sessions.
type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`
	Args            []string      `mapstructure:"args" yaml:"args"`
	// NavigationTimeout bounds a single page load.
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// ActionTimeout bounds a single DOM interaction (click, fill, evaluate).
	ActionTimeout time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	// FindTimeout bounds one attempt to locate an element before moving on
	// to the next selector or identifier.
	FindTimeout time.Duration `mapstructure:"find_timeout" yaml:"find_timeout"`
}

// ContextOptions maps the browser settings onto per-session context options.
func (b BrowserConfig) ContextOptions() schemas.ContextOptions {
	opts := schemas.DefaultContextOptions()
	opts.IgnoreTLSErrors = b.IgnoreTLSErrors
	if b.UserAgent != "" {
		opts.UserAgent = b.UserAgent
	}
	return opts
}

// ScraperConfig tunes the scraping pipeline.
type ScraperConfig struct {
	// AggregatorURL is the page listing the current movie-source sites.
	AggregatorURL string `mapstructure:"aggregator_url" yaml:"aggregator_url"`
	MaxSources    int    `mapstructure:"max_sources" yaml:"max_sources"`

	// SettleDelay runs after the initial navigation so ad overlays finish
	// loading before the DOM is touched.
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	// ResultsDwell gives asynchronously rendered search results time to
	// appear after the query is submitted.
	ResultsDwell time.Duration `mapstructure:"results_dwell" yaml:"results_dwell"`
	OptionsDwell time.Duration `mapstructure:"options_dwell" yaml:"options_dwell"`
	// ResolveDwell is longer than the others: ad and redirect scripts on
	// gated server pages are slower than ordinary content.
	ResolveDwell time.Duration `mapstructure:"resolve_dwell" yaml:"resolve_dwell"`
	// PopupWait is how long a server-choice click is given to open a popup.
	PopupWait time.Duration `mapstructure:"popup_wait" yaml:"popup_wait"`

	// SearchRetries is the number of retries beyond the first attempt when
	// a search lands on a foreign origin or fails outright.
	SearchRetries int           `mapstructure:"search_retries" yaml:"search_retries"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`

	// Concurrency caps the number of simultaneous browser sessions during
	// the multi-site search fan-out.
	Concurrency int64 `mapstructure:"concurrency" yaml:"concurrency"`

	// AdDenylist is the static list of ad/tracker domain substrings used by
	// the request interceptor and the popup handler.
	AdDenylist []string `mapstructure:"ad_denylist" yaml:"ad_denylist"`

	// ServerTiers is the prioritized server-resolution table.
	ServerTiers []schemas.ServerTier `mapstructure:"server_tiers" yaml:"server_tiers"`
}

// StoreConfig tunes the ephemeral per-user session store.
type StoreConfig struct {
	Expiry        time.Duration `mapstructure:"expiry" yaml:"expiry"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	Shards        int           `mapstructure:"shards" yaml:"shards"`
}

// BotConfig holds the Telegram front-end settings.
type BotConfig struct {
	Token         string  `mapstructure:"token" yaml:"-"`
	Name          string  `mapstructure:"name" yaml:"name"`
	MaxResults    int     `mapstructure:"max_results" yaml:"max_results"`
	MaxOptions    int     `mapstructure:"max_options" yaml:"max_options"`
	MaxButtonText int     `mapstructure:"max_button_text" yaml:"max_button_text"`
	// MaxURLLength is the longest link the front-end can attach to a URL
	// button; longer links are delivered as literal text.
	MaxURLLength int     `mapstructure:"max_url_length" yaml:"max_url_length"`
	MessageRate  float64 `mapstructure:"message_rate" yaml:"message_rate"`
	MessageBurst int     `mapstructure:"message_burst" yaml:"message_burst"`
}

// DefaultAdDenylist is the built-in ad/tracker substring list. It is a coarse
// heuristic, not a filter-list engine; false negatives are expected.
var DefaultAdDenylist = []string{
	"doubleclick.net", "googleadservices.com", "googlesyndication.com",
	"adservice.google.com", ".cloudfront.net/ads", "adform.net", "adsrvr.org",
	"popads.net", "yllix.com", "propellerads.com", "adsterra.com",
	"onclickads.net", "trafficjunky.com", "exoclick.com",
	"ero-advertising.com", "juicyads.com", "plugrush.com",
}

// DefaultServerTiers is the built-in server priority table, fastest and most
// reliable first. Once a tier yields a usable link no later tier is examined.
func DefaultServerTiers() []schemas.ServerTier {
	return []schemas.ServerTier{
		{
			Name: "Server One",
			Identifiers: []schemas.Identifier{
				{Text: "Server One"},
				{Text: "VCloud Server 1"},
				{Text: "server-one-button"},
				{Pattern: `server\s*1`},
			},
		},
		{
			Name: "FSL Server",
			Identifiers: []schemas.Identifier{
				{Text: "FSL Server"},
				{Text: "Fast Server Link"},
				{Text: "fsl-server-link"},
				{Pattern: `fsl`},
			},
		},
		{
			Name: "10 Gbps Server",
			Identifiers: []schemas.Identifier{
				{Text: "10 Gbps Server"},
				{Text: "10Gbps Speed"},
				{Text: "high-speed-server"},
				{Pattern: `10\s*gbps`},
			},
		},
	}
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "reloadthegraphics")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", true)
	v.SetDefault("browser.user_agent", schemas.DefaultUserAgent)
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.action_timeout", "10s")
	v.SetDefault("browser.find_timeout", "5s")

	// -- Scraper --
	v.SetDefault("scraper.aggregator_url", "https://vglist.nl/")
	v.SetDefault("scraper.max_sources", 10)
	v.SetDefault("scraper.settle_delay", "3s")
	v.SetDefault("scraper.results_dwell", "5s")
	v.SetDefault("scraper.options_dwell", "5s")
	v.SetDefault("scraper.resolve_dwell", "7s")
	v.SetDefault("scraper.popup_wait", "8s")
	v.SetDefault("scraper.search_retries", 1)
	v.SetDefault("scraper.retry_backoff", "3s")
	v.SetDefault("scraper.concurrency", 4)
	v.SetDefault("scraper.ad_denylist", DefaultAdDenylist)

	// -- Store --
	v.SetDefault("store.expiry", "2h")
	v.SetDefault("store.sweep_interval", "1h")
	v.SetDefault("store.shards", 16)

	// -- Bot --
	v.SetDefault("bot.name", "Load The Graphics Bot")
	v.SetDefault("bot.max_results", 10)
	v.SetDefault("bot.max_options", 10)
	v.SetDefault("bot.max_button_text", 60)
	v.SetDefault("bot.max_url_length", 2048)
	v.SetDefault("bot.message_rate", 1.0)
	v.SetDefault("bot.message_burst", 3)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	cfg.applyFallbacks()
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	if err := v.BindEnv("bot.token", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("error binding bot token env var: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Viper does not always pick up bound env vars through Unmarshal.
	if cfg.Bot.Token == "" {
		cfg.Bot.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}

	cfg.applyFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyFallbacks fills in structured defaults that viper's SetDefault cannot
// express (lists of structs).
func (c *Config) applyFallbacks() {
	if len(c.Scraper.ServerTiers) == 0 {
		c.Scraper.ServerTiers = DefaultServerTiers()
	}
	if len(c.Scraper.AdDenylist) == 0 {
		c.Scraper.AdDenylist = DefaultAdDenylist
	}
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Scraper.AggregatorURL == "" {
		return fmt.Errorf("scraper.aggregator_url is a required configuration field")
	}
	if c.Scraper.Concurrency <= 0 {
		return fmt.Errorf("scraper.concurrency must be a positive integer")
	}
	if c.Scraper.SearchRetries < 0 {
		return fmt.Errorf("scraper.search_retries must not be negative")
	}
	if c.Store.Shards <= 0 {
		return fmt.Errorf("store.shards must be a positive integer")
	}
	if c.Store.Expiry <= 0 {
		return fmt.Errorf("store.expiry must be a positive duration")
	}
	for _, tier := range c.Scraper.ServerTiers {
		if tier.Name == "" {
			return fmt.Errorf("server tier without a name")
		}
		if len(tier.Identifiers) == 0 {
			return fmt.Errorf("server tier %q has no identifiers", tier.Name)
		}
		for _, ident := range tier.Identifiers {
			if (ident.Text == "") == (ident.Pattern == "") {
				return fmt.Errorf("server tier %q: identifier must set exactly one of text or pattern", tier.Name)
			}
			if ident.Pattern != "" {
				if _, err := regexp.Compile("(?i)" + ident.Pattern); err != nil {
					return fmt.Errorf("server tier %q: invalid pattern %q: %w", tier.Name, ident.Pattern, err)
				}
			}
		}
	}
	return nil
}
