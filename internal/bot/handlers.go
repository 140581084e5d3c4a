// internal/bot/handlers.go
package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/store"
)

// Callback data prefixes. Telegram caps callback data at 64 bytes, so the
// payload is a short id resolved through the store, never a URL.
const (
	movieCallbackPrefix  = "movie_"
	optionCallbackPrefix = "option_"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.store.Clear(chatID)
		welcome := fmt.Sprintf(
			"Welcome to %s!\n\nSend me a movie name and I will hunt down a download link for you.",
			b.cfg.Name)
		b.send(ctx, tgbotapi.NewMessage(chatID, welcome))
	default:
		b.send(ctx, tgbotapi.NewMessage(chatID, "Unknown command. Just send a movie name to search."))
	}
}

// handleSearch runs the full search pipeline for a typed movie name.
func (b *Bot) handleSearch(ctx context.Context, chatID int64, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}
	log := b.logger.With(zap.Int64("chat_id", chatID), zap.String("query", query))

	// A new search abandons whatever the user was doing before.
	b.store.Clear(chatID)
	b.store.Update(chatID, func(st *store.UserState) { st.Query = query })

	b.send(ctx, tgbotapi.NewMessage(chatID, fmt.Sprintf("Searching for %q, this can take a minute...", query)))

	sources := b.engine.DiscoverSources(ctx)
	if len(sources) == 0 {
		log.Warn("No movie sources discovered.")
		b.send(ctx, tgbotapi.NewMessage(chatID, "I could not reach the movie source list right now. Please try again later."))
		return
	}

	results := b.engine.SearchAll(ctx, sources, query)
	if len(results) == 0 {
		log.Info("Search produced no results.")
		b.send(ctx, tgbotapi.NewMessage(chatID, fmt.Sprintf("No results found for %q. Try a different title.", query)))
		return
	}
	if len(results) > b.cfg.MaxResults {
		results = results[:b.cfg.MaxResults]
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	b.store.Update(chatID, func(st *store.UserState) {
		for _, result := range results {
			id := shortID()
			st.Results[id] = result
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					truncate(result.Title, b.cfg.MaxButtonText),
					movieCallbackPrefix+id,
				),
			))
		}
	})

	msg := tgbotapi.NewMessage(chatID, "Select a movie:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(ctx, msg)
	log.Info("Presented search results.", zap.Int("count", len(results)))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Acknowledge immediately so the client stops its spinner.
	if _, err := b.client.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Debug("Failed to answer callback query.", zap.Error(err))
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(cb.Data, movieCallbackPrefix):
		b.handleMovieChoice(ctx, chatID, strings.TrimPrefix(cb.Data, movieCallbackPrefix))
	case strings.HasPrefix(cb.Data, optionCallbackPrefix):
		b.handleOptionChoice(ctx, chatID, strings.TrimPrefix(cb.Data, optionCallbackPrefix))
	}
}

// handleMovieChoice fetches the download options for the picked movie.
func (b *Bot) handleMovieChoice(ctx context.Context, chatID int64, id string) {
	log := b.logger.With(zap.Int64("chat_id", chatID))

	state, ok := b.store.Get(chatID)
	if !ok {
		b.sendExpired(ctx, chatID)
		return
	}
	result, ok := state.Results[id]
	if !ok {
		b.sendExpired(ctx, chatID)
		return
	}

	b.store.Update(chatID, func(st *store.UserState) { st.Selected = &result })
	b.send(ctx, tgbotapi.NewMessage(chatID, fmt.Sprintf("Fetching download options for %s...", result.Title)))

	options := b.engine.GetOptions(ctx, result.DetailPageURL, result.SourceSite)
	if len(options) == 0 {
		log.Info("No download options found.", zap.String("movie", result.Title))
		b.send(ctx, tgbotapi.NewMessage(chatID, "No download options found for that one. Pick another result or search again."))
		return
	}
	if len(options) > b.cfg.MaxOptions {
		options = options[:b.cfg.MaxOptions]
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	b.store.Update(chatID, func(st *store.UserState) {
		for _, option := range options {
			optID := shortID()
			st.Options[optID] = option
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					truncate(option.Label(), b.cfg.MaxButtonText),
					optionCallbackPrefix+optID,
				),
			))
		}
	})

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Download options for %s:", result.Title))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(ctx, msg)
	log.Info("Presented download options.", zap.Int("count", len(options)))
}

// handleOptionChoice resolves the picked option to a final link and delivers
// it.
func (b *Bot) handleOptionChoice(ctx context.Context, chatID int64, id string) {
	log := b.logger.With(zap.Int64("chat_id", chatID))

	state, ok := b.store.Get(chatID)
	if !ok {
		b.sendExpired(ctx, chatID)
		return
	}
	option, ok := state.Options[id]
	if !ok {
		b.sendExpired(ctx, chatID)
		return
	}

	sourceSite := ""
	if state.Selected != nil {
		sourceSite = state.Selected.SourceSite
	}

	b.send(ctx, tgbotapi.NewMessage(chatID, "Resolving the final link, hang tight..."))

	link, ok := b.engine.ResolveFinalLink(ctx, option.DownloadTriggerURL, sourceSite)
	if !ok {
		log.Info("Link resolution failed.", zap.String("trigger", option.DownloadTriggerURL))
		// State is kept so the user can tap another option.
		b.send(ctx, tgbotapi.NewMessage(chatID, "That server did not cough up a link. Try another option."))
		return
	}

	b.deliverLink(ctx, chatID, link)
	// The conversation is complete; a stale keyboard should not resolve twice.
	b.store.Clear(chatID)
	log.Info("Delivered final link.")
}

// deliverLink prefers a URL button; links too long for Telegram's button
// limit go out as literal text instead.
func (b *Bot) deliverLink(ctx context.Context, chatID int64, link string) {
	if len(link) > b.cfg.MaxURLLength {
		b.send(ctx, tgbotapi.NewMessage(chatID, "Here is your download link:\n\n"+link))
		return
	}
	msg := tgbotapi.NewMessage(chatID, "Your download link is ready:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Open Download Link", link),
		),
	)
	b.send(ctx, msg)
}

func (b *Bot) sendExpired(ctx context.Context, chatID int64) {
	b.store.Clear(chatID)
	b.send(ctx, tgbotapi.NewMessage(chatID, "That menu has expired. Send the movie name again to restart."))
}

// shortID returns a compact id for callback payloads.
func shortID() string {
	return uuid.NewString()[:8]
}

// truncate cuts s to at most max runes, appending an ellipsis when it cut.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
