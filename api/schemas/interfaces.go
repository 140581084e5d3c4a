package schemas

import (
	"context"
	"time"
)

// -- Browser session interfaces --

// BrowserSession is one isolated headless-browser session: a browser process,
// a browsing context and a page, owned exclusively by a single scraping
// operation. The request-interception policy and popup handler are installed
// before the session is handed out, so the first navigation is already
// covered.
//
// Every method carries its own bounded timeout internally; no single call can
// hang its operation indefinitely.
type BrowserSession interface {
	ID() string

	// Navigate loads the URL in the session's page and waits for the
	// document to become ready.
	Navigate(ctx context.Context, url string) error
	// Location returns the page's current URL.
	Location(ctx context.Context) (string, error)
	// HTML returns a snapshot of the rendered document.
	HTML(ctx context.Context) (string, error)

	// FillFirst tries the selectors in order, fills the first visible and
	// enabled match with text, and returns a selector addressing the filled
	// element. It fails when no candidate is interactable.
	FillFirst(ctx context.Context, selectors []string, text string) (string, error)
	// PressEnter sends an Enter keypress to the element.
	PressEnter(ctx context.Context, selector string) error
	// ClickFirst clicks the first visible, enabled element matching any of
	// the selectors, in order.
	ClickFirst(ctx context.Context, selectors []string) error

	// MarkServerChoice locates one visible, enabled clickable element
	// matching the identifier and marks it for a follow-up ClickMarked.
	// A miss is reported via ElementHit.Found, not an error.
	MarkServerChoice(ctx context.Context, ident Identifier) (ElementHit, error)
	// ClickMarked clicks the element marked by the last MarkServerChoice.
	ClickMarked(ctx context.Context) error

	// ArmPopupWatch starts watching for a non-ad popup page opened from this
	// session. Must be armed before the click that may open it.
	ArmPopupWatch() PopupWatch

	// VideoSource returns the src of the first visible video element, or ""
	// when the page has none.
	VideoSource(ctx context.Context) (string, error)
	// DownloadHrefs returns the hrefs of download-labeled links on the page.
	DownloadHrefs(ctx context.Context) ([]string, error)

	// Dwell sleeps inside the session, giving ad and redirect scripts time
	// to finish before the DOM is touched.
	Dwell(ctx context.Context, d time.Duration) error

	// Release tears the session down: page, context and browser process.
	// It is idempotent, and close errors are logged and swallowed so cleanup
	// never masks the operation's own result.
	Release(ctx context.Context)
}

// PopupWatch yields at most one non-ad popup page opened after it was armed.
// Ad popups are closed by the interceptor and never surface here.
type PopupWatch interface {
	// Wait blocks until a popup arrives or the timeout elapses. The returned
	// session shares the parent's lifecycle; releasing the parent releases
	// the popup too.
	Wait(ctx context.Context, timeout time.Duration) (BrowserSession, bool)
}

// SessionFactory creates browser sessions. A failure to acquire is fatal for
// the calling operation; the factory itself never retries.
type SessionFactory interface {
	Acquire(ctx context.Context, opts ContextOptions) (BrowserSession, error)
}

// -- Scraping engine interface --

// Engine is the scraping engine's entire surface towards the conversational
// front-end. Every operation is a single call, owns exactly one browser
// session at a time, and degrades to an empty or absent result instead of
// propagating scraping errors: the caller-facing contract is "no result",
// not "exception".
type Engine interface {
	// DiscoverSources fetches the current list of candidate movie-source
	// site URLs from the configured aggregator page. Empty on any failure.
	DiscoverSources(ctx context.Context) []string
	// SearchAll fans the query out across all discovered sites concurrently
	// and joins the results. A failure on one site never affects another's
	// outcome.
	SearchAll(ctx context.Context, sites []string, query string) []SearchResult
	// GetOptions extracts the quality/language variants from a result's
	// detail page. Empty on any failure.
	GetOptions(ctx context.Context, detailPageURL, sourceSite string) []DownloadOption
	// ResolveFinalLink walks the gated server-selection page behind a
	// variant's trigger URL and returns a direct media URL, or ok=false
	// when no tier yields one.
	ResolveFinalLink(ctx context.Context, triggerURL, sourceSite string) (link string, ok bool)
}
