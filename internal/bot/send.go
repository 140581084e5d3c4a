// internal/bot/send.go
package bot

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// send delivers one message through the rate limiter, honoring Telegram's
// flood-control backoff once before giving up. Send failures are logged and
// swallowed; a lost status message must not abort a pipeline run.
func (b *Bot) send(ctx context.Context, msg tgbotapi.Chattable) {
	if err := b.limiter.Wait(ctx); err != nil {
		return
	}

	_, err := b.client.Send(msg)
	if err == nil {
		return
	}

	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		wait := time.Duration(apiErr.RetryAfter) * time.Second
		b.logger.Warn("Telegram flood control, backing off.", zap.Duration("retry_after", wait))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
		if _, err = b.client.Send(msg); err == nil {
			return
		}
	}

	b.logger.Error("Failed to send Telegram message.", zap.Error(err))
}
