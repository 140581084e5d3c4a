// internal/scrape/discover.go
package scrape

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DiscoverSources renders the aggregator page and returns the movie-source
// site origins it links to. The aggregator exists because these sites rotate
// domains constantly; a hardcoded list would rot within weeks. Any failure
// returns an empty list.
func (e *Engine) DiscoverSources(ctx context.Context) []string {
	log := e.logger.Named("discover")

	session, err := e.factory.Acquire(ctx, e.ctxOpts)
	if err != nil {
		log.Error("Failed to acquire browser session.", zap.Error(err))
		return nil
	}
	defer session.Release(ctx)

	doc, err := e.render(ctx, session, e.cfg.AggregatorURL, e.cfg.SettleDelay)
	if err != nil {
		log.Error("Failed to render aggregator page.",
			zap.String("url", e.cfg.AggregatorURL), zap.Error(err))
		return nil
	}

	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(doc.html))
	if err != nil {
		log.Error("Failed to parse aggregator HTML.", zap.Error(err))
		return nil
	}

	var origins []string
	parsed.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		origin, ok := externalOrigin(href, e.cfg.AggregatorURL)
		if !ok {
			return
		}
		origins = append(origins, origin)
	})

	origins = lo.Uniq(origins)
	if len(origins) > e.cfg.MaxSources && e.cfg.MaxSources > 0 {
		origins = origins[:e.cfg.MaxSources]
	}

	log.Info("Discovered movie sources.", zap.Int("count", len(origins)))
	return origins
}

// externalOrigin reduces an aggregator link to a site origin, rejecting
// relative links, non-http schemes and links back into the aggregator itself.
func externalOrigin(href, aggregatorURL string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil || !u.IsAbs() {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Hostname() == "" || SameOrigin(href, aggregatorURL) {
		return "", false
	}
	return u.Scheme + "://" + u.Host + "/", true
}
