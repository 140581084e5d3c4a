// internal/scrape/sites/vega.go
package sites

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
)

// VegaScraper handles the vegamovies family (vegamovies, vcloud and their
// rotating TLD mirrors). The markup is WordPress with maxbuttons for the
// download links.
type VegaScraper struct {
	generic *GenericScraper
}

func NewVegaScraper() *VegaScraper {
	return &VegaScraper{generic: NewGenericScraper()}
}

func (v *VegaScraper) SearchSelectors() []string {
	return []string{
		`input[name="s"]`,
		"form.search-form input[type=search]",
	}
}

// ParseResults reads the post grid on a vegamovies search page.
func (v *VegaScraper) ParseResults(doc *goquery.Document, base string) []schemas.SearchResult {
	var results []schemas.SearchResult

	doc.Find(".blog-items article, .post-inner, article.post-item").Each(func(_ int, item *goquery.Selection) {
		a := item.Find("a[title]").First()
		if a.Length() == 0 {
			a = item.Find(".entry-title a, h2 a, h3 a").First()
		}
		if a.Length() == 0 {
			return
		}
		link := absolutize(base, a.AttrOr("href", ""))
		if link == "" {
			return
		}
		title := strings.TrimSpace(a.AttrOr("title", ""))
		if title == "" {
			title = strings.TrimSpace(a.Text())
		}
		if title == "" {
			return
		}
		poster := ""
		if img := item.Find("img").First(); img.Length() > 0 {
			poster = absolutize(base, img.AttrOr("data-src", img.AttrOr("src", "")))
		}
		results = append(results, schemas.SearchResult{
			Title:         title,
			PosterURL:     poster,
			DetailPageURL: link,
			SourceSite:    base,
		})
	})

	if len(results) == 0 {
		// Mirrors restyle the grid often enough that falling back to the
		// heuristics is worth it.
		return v.generic.ParseResults(doc, base)
	}
	return dedupeResults(results)
}

// ParseOptions reads the maxbutton download blocks on a detail page. Each
// quality section is a heading followed by one or more buttons.
func (v *VegaScraper) ParseOptions(doc *goquery.Document, base string) []schemas.DownloadOption {
	var options []schemas.DownloadOption

	doc.Find("a.maxbutton, a[class*='maxbutton'], .download-links-div a").Each(func(_ int, a *goquery.Selection) {
		link := absolutize(base, a.AttrOr("href", ""))
		if link == "" {
			return
		}

		label := strings.TrimSpace(a.Text())
		context := label
		if heading := a.Closest("p, div").PrevFiltered("h1, h2, h3, h4, h5, h6").First(); heading.Length() > 0 {
			context = heading.Text() + " " + label
		}

		options = append(options, schemas.DownloadOption{
			Quality:            extractQuality(context),
			Language:           extractLanguage(context),
			DownloadTriggerURL: link,
		})
	})

	if len(options) == 0 {
		return v.generic.ParseOptions(doc, base)
	}
	return dedupeOptions(options)
}
