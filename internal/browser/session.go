// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/config"
)

// Session wraps a single browser tab. Top-level sessions own their Chrome
// process; popup sessions share the process of the tab that spawned them and
// die with it.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	// allocCancel tears down the Chrome process. Nil for popup sessions.
	allocCancel context.CancelFunc

	cfg    config.BrowserConfig
	policy *Policy
	logger *zap.Logger

	closeOnce sync.Once
}

// Ensure Session implements the session contract.
var _ schemas.BrowserSession = (*Session)(nil)

// arm installs the request interceptor and popup closer on the tab.
func (s *Session) arm() error {
	return newInterceptor(s.policy, s.logger).install(s.ctx)
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// runActions executes chromedp actions, respecting both the session lifetime
// and the incoming request context, bounded by the given timeout.
func (s *Session) runActions(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	actCtx, actCancel := context.WithTimeout(opCtx, timeout)
	defer actCancel()

	return chromedp.Run(actCtx, actions...)
}

// Navigate loads the URL in the tab and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating to URL.", zap.String("url", url))

	if err := s.runActions(ctx, s.cfg.NavigationTimeout, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", ctx.Err())
		}
		return fmt.Errorf("navigation to '%s' failed: %w", url, err)
	}
	return nil
}

// Location returns the URL the tab currently displays. Redirect chains and
// popup takeovers make this the only trustworthy source of the real location.
func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	if err := s.runActions(ctx, s.cfg.ActionTimeout, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return loc, nil
}

// HTML returns the serialized DOM of the current document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.runActions(ctx, s.cfg.ActionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture page HTML: %w", err)
	}
	return html, nil
}

// FillFirst types text into the first visible element matching any of the
// selectors, trying them in priority order. It returns the selector that
// matched.
func (s *Session) FillFirst(ctx context.Context, selectors []string, text string) (string, error) {
	var hit tagResult
	err := s.runActions(ctx, s.cfg.FindTimeout,
		chromedp.Evaluate(jsTagFirstMatch(selectors, inputTagAttr), &hit))
	if err != nil {
		return "", fmt.Errorf("input scan failed: %w", err)
	}
	if !hit.Found {
		return "", fmt.Errorf("no visible input matched any of %d selectors", len(selectors))
	}

	tagged := fmt.Sprintf("[%s]", inputTagAttr)
	if err := s.runActions(ctx, s.cfg.ActionTimeout, chromedp.SendKeys(tagged, text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("typing into '%s' failed: %w", hit.Selector, err)
	}
	return hit.Selector, nil
}

// PressEnter sends the Enter key to the element matching the selector.
func (s *Session) PressEnter(ctx context.Context, selector string) error {
	if err := s.runActions(ctx, s.cfg.ActionTimeout, chromedp.SendKeys(selector, kb.Enter, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("sending Enter to '%s' failed: %w", selector, err)
	}
	return nil
}

// ClickFirst clicks the first visible element matching any of the selectors,
// trying them in priority order.
func (s *Session) ClickFirst(ctx context.Context, selectors []string) error {
	var hit tagResult
	err := s.runActions(ctx, s.cfg.FindTimeout,
		chromedp.Evaluate(jsTagFirstMatch(selectors, clickTagAttr), &hit))
	if err != nil {
		return fmt.Errorf("click scan failed: %w", err)
	}
	if !hit.Found {
		return fmt.Errorf("no visible element matched any of %d selectors", len(selectors))
	}

	tagged := fmt.Sprintf("[%s]", clickTagAttr)
	if err := s.runActions(ctx, s.cfg.ActionTimeout, chromedp.Click(tagged, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("clicking '%s' failed: %w", hit.Selector, err)
	}
	return nil
}

// MarkServerChoice scans the page for a clickable element matching the
// identifier and tags it for a later ClickMarked. The returned hit carries
// the element's href and any nested media source, which can short-circuit
// the click entirely.
func (s *Session) MarkServerChoice(ctx context.Context, ident schemas.Identifier) (schemas.ElementHit, error) {
	var hit schemas.ElementHit
	err := s.runActions(ctx, s.cfg.FindTimeout,
		chromedp.Evaluate(jsMarkServerChoice(ident), &hit))
	if err != nil {
		return schemas.ElementHit{}, fmt.Errorf("server choice scan failed: %w", err)
	}
	return hit, nil
}

// ClickMarked clicks the element tagged by the last MarkServerChoice.
func (s *Session) ClickMarked(ctx context.Context) error {
	tagged := fmt.Sprintf("[%s]", choiceTagAttr)
	if err := s.runActions(ctx, s.cfg.ActionTimeout, chromedp.Click(tagged, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("clicking marked element failed: %w", err)
	}
	return nil
}

// ArmPopupWatch starts listening for a legitimate popup opened by this tab.
// It must be armed before the click that may open one; popups whose URL lands
// on the ad denylist are ignored (the interceptor closes those anyway).
func (s *Session) ArmPopupWatch() schemas.PopupWatch {
	ch := chromedp.WaitNewTarget(s.ctx, func(info *target.Info) bool {
		if info.Type != "page" || info.URL == "" || info.URL == "about:blank" {
			return false
		}
		return !s.policy.MatchesDenylist(info.URL)
	})
	return &popupWatch{parent: s, ch: ch}
}

// VideoSource returns the src of the first playable video element on the
// page, or an empty string when there is none.
func (s *Session) VideoSource(ctx context.Context) (string, error) {
	var src string
	if err := s.runActions(ctx, s.cfg.ActionTimeout, chromedp.Evaluate(jsVideoSource, &src)); err != nil {
		return "", fmt.Errorf("video scan failed: %w", err)
	}
	return src, nil
}

// DownloadHrefs returns the hrefs of anchors that present themselves as
// download links.
func (s *Session) DownloadHrefs(ctx context.Context) ([]string, error) {
	var hrefs []string
	if err := s.runActions(ctx, s.cfg.ActionTimeout, chromedp.Evaluate(jsDownloadHrefs, &hrefs)); err != nil {
		return nil, fmt.Errorf("download link scan failed: %w", err)
	}
	return hrefs, nil
}

// Dwell keeps the tab alive and idle for the duration, giving redirect and
// player scripts time to run. It returns early only if a context is canceled.
func (s *Session) Dwell(ctx context.Context, d time.Duration) error {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()
	return chromedp.Run(opCtx, chromedp.Sleep(d))
}

// Release tears the session down. It is idempotent and safe to call on a
// session whose browser already died.
func (s *Session) Release(ctx context.Context) {
	s.closeOnce.Do(func() {
		s.logger.Debug("Releasing browser session.")
		s.cancel()
		if s.allocCancel != nil {
			s.allocCancel()
		}
	})
}

// popupWatch waits for the popup target the parent tab opens.
type popupWatch struct {
	parent *Session
	ch     <-chan target.ID
}

// Wait blocks until a popup shows up or the timeout passes. The returned
// session shares the parent's process lifecycle: releasing the parent closes
// the popup too.
func (w *popupWatch) Wait(ctx context.Context, timeout time.Duration) (schemas.BrowserSession, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case id := <-w.ch:
		return w.parent.adoptPopup(id)
	case <-timer.C:
		return nil, false
	case <-ctx.Done():
		return nil, false
	case <-w.parent.ctx.Done():
		return nil, false
	}
}

// adoptPopup attaches to an existing target and wraps it as a child session.
func (s *Session) adoptPopup(id target.ID) (schemas.BrowserSession, bool) {
	popCtx, popCancel := chromedp.NewContext(s.ctx, chromedp.WithTargetID(id))
	if err := chromedp.Run(popCtx); err != nil {
		s.logger.Debug("Failed to attach to popup.", zap.Error(err))
		popCancel()
		return nil, false
	}

	popupID := uuid.NewString()
	popup := &Session{
		id:     popupID,
		ctx:    popCtx,
		cancel: popCancel,
		cfg:    s.cfg,
		policy: s.policy,
		logger: s.logger.With(zap.String("popup_session_id", popupID)),
	}

	// Ad interception applies to popup content as well.
	if err := popup.arm(); err != nil {
		s.logger.Debug("Failed to arm popup interception.", zap.Error(err))
	}

	s.logger.Debug("Adopted popup session.", zap.String("target_id", string(id)))
	return popup, true
}
