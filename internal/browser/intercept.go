// internal/browser/intercept.go
package browser

import (
	"context"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// interceptor wires the ad Policy into a live CDP session. It pauses every
// request at the fetch stage, fails the ones the policy rejects, and closes
// any popup window whose URL lands on the denylist.
type interceptor struct {
	policy *Policy
	logger *zap.Logger

	mu          sync.RWMutex
	mainFrameID cdp.FrameID
}

func newInterceptor(policy *Policy, logger *zap.Logger) *interceptor {
	return &interceptor{
		policy: policy,
		logger: logger.Named("interceptor"),
	}
}

// install enables fetch interception on the tab and registers the event
// listeners. ctx must be a chromedp target context; the listeners live until
// that context is canceled.
func (i *interceptor) install(ctx context.Context) error {
	// Pause every request before it hits the network.
	patterns := []*fetch.RequestPattern{
		{URLPattern: "*", RequestStage: fetch.RequestStageRequest},
	}
	if err := chromedp.Run(ctx, fetch.Enable().WithPatterns(patterns)); err != nil {
		return err
	}

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventRequestPaused:
			// The decision must run off the listener goroutine, and the
			// continue/fail command needs the target executor.
			go i.handlePaused(ctx, e)
		case *page.EventFrameNavigated:
			if e.Frame.ParentID == "" {
				i.setMainFrame(e.Frame.ID)
			}
		}
	})

	chromedp.ListenBrowser(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *target.EventTargetCreated:
			i.maybeCloseTarget(ctx, e.TargetInfo)
		case *target.EventTargetInfoChanged:
			// Popups are often created with about:blank and only pick up
			// their real URL afterwards.
			i.maybeCloseTarget(ctx, e.TargetInfo)
		}
	})

	return nil
}

func (i *interceptor) setMainFrame(id cdp.FrameID) {
	i.mu.Lock()
	i.mainFrameID = id
	i.mu.Unlock()
}

func (i *interceptor) isSubFrame(frameID cdp.FrameID) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	// Before the first navigation event arrives, treat every frame as the
	// main frame so nothing essential gets cut off.
	if i.mainFrameID == "" {
		return false
	}
	return frameID != i.mainFrameID
}

// handlePaused resumes or fails a single paused request.
func (i *interceptor) handlePaused(ctx context.Context, ev *fetch.EventRequestPaused) {
	c := chromedp.FromContext(ctx)
	if c == nil || c.Target == nil {
		return
	}
	execCtx := cdp.WithExecutor(ctx, c.Target)

	url := ev.Request.URL
	if i.policy.ShouldBlock(ev.ResourceType, i.isSubFrame(ev.FrameID), url) {
		i.logger.Debug("Blocking request.",
			zap.String("url", url),
			zap.String("resource_type", string(ev.ResourceType)))
		if err := fetch.FailRequest(ev.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx); err != nil {
			i.logger.Debug("Failed to abort request.", zap.String("url", url), zap.Error(err))
		}
		return
	}

	if err := fetch.ContinueRequest(ev.RequestID).Do(execCtx); err != nil {
		// The tab may already be gone; there is nothing useful to do.
		i.logger.Debug("Failed to continue request.", zap.String("url", url), zap.Error(err))
	}
}

// maybeCloseTarget shuts down a freshly opened page whose URL is on the
// denylist. Non-page targets (workers, the browser itself) are left alone.
func (i *interceptor) maybeCloseTarget(ctx context.Context, info *target.Info) {
	if info == nil || info.Type != "page" || info.URL == "" {
		return
	}
	if !i.policy.MatchesDenylist(info.URL) {
		return
	}

	c := chromedp.FromContext(ctx)
	if c == nil || c.Browser == nil {
		return
	}

	i.logger.Info("Closing ad popup.", zap.String("url", info.URL))
	go func() {
		browserCtx := cdp.WithExecutor(ctx, c.Browser)
		if err := target.CloseTarget(info.TargetID).Do(browserCtx); err != nil {
			i.logger.Debug("Failed to close ad popup.",
				zap.String("url", info.URL), zap.Error(err))
		}
	}()
}
