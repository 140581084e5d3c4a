// internal/scrape/search.go
package scrape

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/PuerkitoBio/goquery"
	retry "github.com/avast/retry-go/v4"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
)

// Search runs the query against one site, retrying from a fresh browser when
// the attempt fails or an ad hijacks the page. It returns nil when every
// attempt fails.
func (e *Engine) Search(ctx context.Context, site, query string) []schemas.SearchResult {
	log := e.logger.Named("search").With(zap.String("site", site))

	var results []schemas.SearchResult
	err := retry.Do(
		func() error {
			r, err := e.searchOnce(ctx, site, query)
			if err != nil {
				return err
			}
			results = r
			return nil
		},
		retry.Attempts(uint(e.cfg.SearchRetries+1)),
		retry.Delay(e.cfg.RetryBackoff),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("Search attempt failed, retrying.", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		log.Warn("Search failed on all attempts.", zap.Error(err))
		return nil
	}

	log.Info("Search completed.", zap.String("query", query), zap.Int("results", len(results)))
	return results
}

// searchOnce performs a single search attempt in its own browser session.
// The session is always released before returning, so a retry starts clean.
func (e *Engine) searchOnce(ctx context.Context, site, query string) ([]schemas.SearchResult, error) {
	session, err := e.factory.Acquire(ctx, e.ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	defer session.Release(ctx)

	if err := session.Navigate(ctx, site); err != nil {
		return nil, err
	}
	_ = session.Dwell(ctx, e.cfg.SettleDelay)

	scraper := e.registry.Lookup(site)
	selectors := append(scraper.SearchSelectors(), genericSearchSelectors...)

	matched, err := session.FillFirst(ctx, selectors, query)
	if err != nil {
		return nil, fmt.Errorf("search bar not found on %s: %w", site, err)
	}

	// Submit: Enter first, then a submit button, then hope the site search
	// is live-updating and proceed anyway.
	if err := session.PressEnter(ctx, matched); err != nil {
		if err := session.ClickFirst(ctx, submitSelectors); err != nil {
			e.logger.Debug("No submit control found, proceeding with typed query.",
				zap.String("site", site), zap.Error(err))
		}
	}

	_ = session.Dwell(ctx, e.cfg.ResultsDwell)

	// An ad redirect that replaced the whole tab poisons anything we would
	// parse; only same-origin pages count as results pages.
	loc, err := session.Location(ctx)
	if err == nil && loc != "" && !SameOrigin(site, loc) {
		return nil, fmt.Errorf("redirected off-site to %s", loc)
	}

	base := site
	if loc != "" {
		base = loc
	}

	html, err := session.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	return scraper.ParseResults(doc, base), nil
}

// SearchAll fans the query out across the sites with bounded concurrency.
// A panic or failure on one site never disturbs the others, and the combined
// result keeps site order stable before deduplication.
func (e *Engine) SearchAll(ctx context.Context, sitesList []string, query string) []schemas.SearchResult {
	if len(sitesList) == 0 {
		return nil
	}

	log := e.logger.Named("search")
	sem := semaphore.NewWeighted(e.cfg.Concurrency)
	g, gctx := errgroup.WithContext(ctx)
	perSite := make([][]schemas.SearchResult, len(sitesList))

	for i, site := range sitesList {
		i, site := i, site
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			defer func() {
				if r := recover(); r != nil {
					log.Error("Panic during site search.",
						zap.String("site", site),
						zap.Any("panic_reason", r),
						zap.String("stack", string(debug.Stack())))
				}
			}()

			perSite[i] = e.Search(gctx, site, query)
			return nil
		})
	}

	// Workers never return errors; Wait is for completion only.
	_ = g.Wait()

	var combined []schemas.SearchResult
	for _, results := range perSite {
		combined = append(combined, results...)
	}
	combined = lo.UniqBy(combined, func(r schemas.SearchResult) string { return r.DetailPageURL })

	log.Info("Search fan-out completed.",
		zap.String("query", query),
		zap.Int("sites", len(sitesList)),
		zap.Int("results", len(combined)))
	return combined
}
