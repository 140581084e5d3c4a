// internal/scrape/sites/sites_test.go
package sites

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()

	t.Run("vega family by host substring", func(t *testing.T) {
		assert.IsType(t, &VegaScraper{}, reg.Lookup("https://vegamovies.yt/"))
		assert.IsType(t, &VegaScraper{}, reg.Lookup("https://new2.vegamovies-official.lol/"))
		assert.IsType(t, &VegaScraper{}, reg.Lookup("https://vcloud.lol/page"))
	})

	t.Run("unknown hosts get the generic scraper", func(t *testing.T) {
		assert.IsType(t, &GenericScraper{}, reg.Lookup("https://moviesite.example/"))
	})

	t.Run("unparseable url gets the generic scraper", func(t *testing.T) {
		assert.IsType(t, &GenericScraper{}, reg.Lookup("::::"))
	})
}

func TestVegaParseResults(t *testing.T) {
	const html = `<html><body>
	<div class="blog-items">
		<article>
			<a href="/download-film-one/" title="Film One (2024) Hindi 1080p">
				<img data-src="https://img.example/one.jpg" src="placeholder.gif">
			</a>
		</article>
		<article>
			<h2 class="entry-title"><a href="https://vegamovies.yt/film-two/">Film Two (2023)</a></h2>
		</article>
		<article>
			<a href="/download-film-one/" title="Film One (2024) Hindi 1080p"></a>
		</article>
	</div>
	</body></html>`

	results := NewVegaScraper().ParseResults(parseDoc(t, html), "https://vegamovies.yt/?s=film")

	require.Len(t, results, 2, "duplicate detail links should collapse")
	assert.Equal(t, "Film One (2024) Hindi 1080p", results[0].Title)
	assert.Equal(t, "https://vegamovies.yt/download-film-one/", results[0].DetailPageURL)
	assert.Equal(t, "https://img.example/one.jpg", results[0].PosterURL, "lazy-loaded poster should win over placeholder")
	assert.Equal(t, "Film Two (2023)", results[1].Title)
}

func TestVegaParseOptions(t *testing.T) {
	const html = `<html><body>
	<h3>Film One (2024) Hindi Dubbed 720p [900MB]</h3>
	<p><a class="maxbutton-1 maxbutton" href="https://vcloud.lol/dl/abc">Download Now</a></p>
	<h3>Film One (2024) Dual Audio 1080p [2GB]</h3>
	<p><a class="maxbutton-2 maxbutton" href="https://vcloud.lol/dl/def">Download Now</a></p>
	<p><a href="/unrelated">Read more</a></p>
	</body></html>`

	options := NewVegaScraper().ParseOptions(parseDoc(t, html), "https://vegamovies.yt/film-one/")

	require.Len(t, options, 2)
	assert.Equal(t, "720p", options[0].Quality)
	assert.Equal(t, "Hindi", options[0].Language)
	assert.Equal(t, "https://vcloud.lol/dl/abc", options[0].DownloadTriggerURL)
	assert.Equal(t, "1080p", options[1].Quality)
	assert.Equal(t, "Dual Audio", options[1].Language)
}

func TestGenericParseResults(t *testing.T) {
	t.Run("article headings", func(t *testing.T) {
		const html = `<html><body>
		<article><h2><a href="/movie-a/">Movie A</a></h2></article>
		<article><h2><a href="/movie-b/">Movie B</a></h2></article>
		</body></html>`

		results := NewGenericScraper().ParseResults(parseDoc(t, html), "https://site.example/search")
		require.Len(t, results, 2)
		assert.Equal(t, "Movie A", results[0].Title)
		assert.Equal(t, "https://site.example/movie-a/", results[0].DetailPageURL)
		assert.Equal(t, "https://site.example/search", results[0].SourceSite)
	})

	t.Run("falls back to titled links", func(t *testing.T) {
		const html = `<html><body>
		<a href="/watch/film" title="Some Long Film Title">poster</a>
		<a href="/nav" title="Go">nav</a>
		</body></html>`

		results := NewGenericScraper().ParseResults(parseDoc(t, html), "https://site.example/")
		require.Len(t, results, 1, "short titles are navigation, not results")
		assert.Equal(t, "Some Long Film Title", results[0].Title)
	})

	t.Run("skips javascript and mailto links", func(t *testing.T) {
		const html = `<html><body>
		<article><h2><a href="javascript:void(0)">Fake</a></h2></article>
		</body></html>`

		results := NewGenericScraper().ParseResults(parseDoc(t, html), "https://site.example/")
		assert.Empty(t, results)
	})
}

func TestGenericParseOptions(t *testing.T) {
	const html = `<html><body>
	<h4>English 480p WEB-DL</h4>
	<p><a id="dl-btn" href="/get/480">Download Links</a></p>
	<p><a href="/other">About us</a></p>
	</body></html>`

	options := NewGenericScraper().ParseOptions(parseDoc(t, html), "https://site.example/film/")

	require.Len(t, options, 1)
	assert.Equal(t, "480p", options[0].Quality)
	assert.Equal(t, "English", options[0].Language)
	assert.Equal(t, "https://site.example/get/480", options[0].DownloadTriggerURL)
}

func TestExtractQuality(t *testing.T) {
	assert.Equal(t, "1080p", extractQuality("Film (2024) Dual Audio 1080p BluRay"))
	assert.Equal(t, "4k", extractQuality("Remux 4K HDR"))
	assert.Equal(t, "unknown", extractQuality("Film (2024) HDRip"))
}
