// internal/scrape/options.go
package scrape

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
)

// GetOptions renders a movie's detail page and extracts its download
// options. sourceSite picks the parser; the sites all host detail pages on
// the same domain family as their search pages. Failures yield an empty
// list.
func (e *Engine) GetOptions(ctx context.Context, detailPageURL, sourceSite string) []schemas.DownloadOption {
	log := e.logger.Named("options").With(zap.String("url", detailPageURL))

	session, err := e.factory.Acquire(ctx, e.ctxOpts)
	if err != nil {
		log.Error("Failed to acquire browser session.", zap.Error(err))
		return nil
	}
	defer session.Release(ctx)

	doc, err := e.render(ctx, session, detailPageURL, e.cfg.OptionsDwell)
	if err != nil {
		log.Error("Failed to render detail page.", zap.Error(err))
		return nil
	}

	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(doc.html))
	if err != nil {
		log.Error("Failed to parse detail page HTML.", zap.Error(err))
		return nil
	}

	scraper := e.registry.Lookup(sourceSite)
	options := scraper.ParseOptions(parsed, doc.base)

	log.Info("Extracted download options.", zap.Int("count", len(options)))
	return options
}
