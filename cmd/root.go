// -- cmd/root.go --
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/bot"
	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/browser"
	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/config"
	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/observability"
	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/scrape"
	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/scrape/sites"
	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/store"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reloadthegraphicsbot",
	Short: "A Telegram bot that scrapes movie sites for download links.",
	// Version is dynamically set at build time. See cmd/version.go.
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// This function runs before any command, setting up config and logging.
		if err := initializeConfig(); err != nil {
			return err
		}

		loaded, err := config.NewConfigFromViper(viper.GetViper())
		if err != nil {
			// Initialize a fallback logger so the failure is visible.
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "reloadthegraphics"})
			return err
		}
		cfg = loaded

		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Info("Starting reloadthegraphicsbot", zap.String("version", Version))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

// run assembles the pipeline and blocks until shutdown.
func run() error {
	logger := observability.GetLogger()
	defer observability.Sync()

	if cfg.Bot.Token == "" {
		return fmt.Errorf("bot token is not configured (hint: set TELEGRAM_BOT_TOKEN)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Conversation state store with its background sweeper.
	chatStore := store.NewSharded(cfg.Store.Shards, cfg.Store.Expiry, logger)
	chatStore.StartSweeper(ctx, cfg.Store.SweepInterval)

	// 2. Browser session factory.
	manager := browser.NewManager(ctx, cfg.Browser, cfg.Scraper.AdDenylist, logger)

	// 3. Scraping engine.
	engine, err := scrape.New(manager, sites.NewRegistry(), cfg.Scraper, cfg.Browser.ContextOptions(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize scraping engine: %w", err)
	}

	// 4. Telegram client and bot.
	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("failed to authorize with Telegram: %w", err)
	}
	logger.Info("Authorized with Telegram.", zap.String("username", api.Self.UserName))

	b := bot.New(api, engine, chatStore, cfg.Bot, logger)
	if err := b.Run(ctx); err != nil {
		return fmt.Errorf("bot terminated: %w", err)
	}

	logger.Info("Shutdown complete.")
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Use the logger if available, otherwise fall back to stderr.
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		observability.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// initializeConfig reads in config file and ENV variables if set.
func initializeConfig() error {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("RELOADTHEGRAPHICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars.
	}
	return nil
}
