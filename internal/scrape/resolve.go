// internal/scrape/resolve.go
package scrape

import (
	"context"

	"go.uber.org/zap"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
)

// ResolveFinalLink walks the gated server page behind a download trigger and
// tries to come out the other side with a direct media link. Server choices
// are tried strictly in tier order; the first identifier that produces a
// usable link wins and no later tier is examined. ok is false when the whole
// table is exhausted.
func (e *Engine) ResolveFinalLink(ctx context.Context, triggerURL, sourceSite string) (string, bool) {
	log := e.logger.Named("resolve").With(zap.String("trigger_url", triggerURL))

	session, err := e.factory.Acquire(ctx, e.ctxOpts)
	if err != nil {
		log.Error("Failed to acquire browser session.", zap.Error(err))
		return "", false
	}
	defer session.Release(ctx)

	if err := session.Navigate(ctx, triggerURL); err != nil {
		log.Error("Failed to load download trigger page.", zap.Error(err))
		return "", false
	}
	// Gated pages run countdowns and redirect scripts; give them room.
	_ = session.Dwell(ctx, e.cfg.SettleDelay)

	for _, tier := range e.cfg.ServerTiers {
		tierLog := log.With(zap.String("tier", tier.Name))
		for _, ident := range tier.Identifiers {
			if link, ok := e.tryIdentifier(ctx, session, ident, tierLog); ok {
				tierLog.Info("Resolved final link.", zap.String("link", link))
				return link, true
			}
		}
		tierLog.Debug("Tier exhausted without a link.")
	}

	// The trigger page itself sometimes carries the media without any
	// server choice at all.
	if link, ok := e.harvestMedia(ctx, session); ok {
		log.Info("Resolved final link directly from trigger page.", zap.String("link", link))
		return link, true
	}

	log.Warn("All server tiers exhausted, no final link found.")
	return "", false
}

// tryIdentifier attempts to turn one server-choice identifier into a media
// link. Every failure mode is non-fatal: the caller just moves to the next
// identifier.
func (e *Engine) tryIdentifier(ctx context.Context, session schemas.BrowserSession, ident schemas.Identifier, log *zap.Logger) (string, bool) {
	hit, err := session.MarkServerChoice(ctx, ident)
	if err != nil {
		log.Debug("Server choice scan failed.", zap.Error(err))
		return "", false
	}
	if !hit.Found {
		return "", false
	}

	// The element itself may already carry the goods; skip the click and its
	// ad roulette entirely.
	if IsDirectMedia(hit.Href) {
		return hit.Href, true
	}
	if IsDirectMedia(hit.Src) {
		return hit.Src, true
	}

	// The watch must be armed before the click, or a fast popup is missed.
	watch := session.ArmPopupWatch()
	if err := session.ClickMarked(ctx); err != nil {
		log.Debug("Server choice click failed.", zap.Error(err))
		return "", false
	}

	// A legitimate popup carries the player; shift focus to it. The popup
	// shares the parent's lifecycle, so it is never released here.
	active := session
	if popup, ok := watch.Wait(ctx, e.cfg.PopupWait); ok {
		log.Debug("Following popup window.", zap.String("popup_session", popup.ID()))
		active = popup
	}

	_ = active.Dwell(ctx, e.cfg.ResolveDwell)
	return e.harvestMedia(ctx, active)
}

// harvestMedia checks, in order of reliability, every place a direct media
// link can surface on the active page.
func (e *Engine) harvestMedia(ctx context.Context, session schemas.BrowserSession) (string, bool) {
	// 1. The page itself redirected to the media file.
	if loc, err := session.Location(ctx); err == nil && IsDirectMedia(loc) {
		return loc, true
	}

	// 2. An embedded player with a direct source.
	if src, err := session.VideoSource(ctx); err == nil && IsDirectMedia(src) {
		return src, true
	}

	// 3. Download-labeled anchors pointing straight at a file.
	if hrefs, err := session.DownloadHrefs(ctx); err == nil {
		for _, href := range hrefs {
			if IsDirectMedia(href) {
				return href, true
			}
		}
	}

	return "", false
}
