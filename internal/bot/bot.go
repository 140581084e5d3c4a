// internal/bot/bot.go

// Package bot is the Telegram front-end. It translates chat messages and
// inline-button taps into engine calls and keeps the conversation state in
// the store between updates.
package bot

import (
	"context"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/config"
	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/store"
)

// telegramClient is the slice of the Telegram API the bot needs. It exists
// so tests can script the wire without a token; *tgbotapi.BotAPI satisfies it.
type telegramClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot wires Telegram updates to the scraping engine.
type Bot struct {
	client  telegramClient
	engine  schemas.Engine
	store   store.Store
	cfg     config.BotConfig
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New builds a Bot around an already-authorized Telegram client.
func New(client telegramClient, engine schemas.Engine, st store.Store, cfg config.BotConfig, logger *zap.Logger) *Bot {
	return &Bot{
		client:  client,
		engine:  engine,
		store:   st,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.MessageRate), cfg.MessageBurst),
		logger:  logger.Named("bot"),
	}
}

// Run consumes the update long-poll until ctx is canceled. Each update is
// handled on its own goroutine because a scrape can take minutes and must
// not block other chats.
func (b *Bot) Run(ctx context.Context) error {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30

	updates := b.client.GetUpdatesChan(updateCfg)
	b.logger.Info("Bot started, polling for updates.", zap.String("name", b.cfg.Name))

	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			b.logger.Info("Bot stopped.")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate dispatches one update. A panic in a handler is logged and
// dropped; one poisoned chat must not take the bot down.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic while handling update.",
				zap.Any("panic_reason", r),
				zap.String("stack", string(debug.Stack())))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Text != "":
		b.handleSearch(ctx, update.Message.Chat.ID, update.Message.Text)
	}
}
