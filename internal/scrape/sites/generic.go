// internal/scrape/sites/generic.go
package sites

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
)

var (
	qualityRe = regexp.MustCompile(`(?i)\b(480p|720p|1080p|2160p|4k)\b`)
	// languageRe catches the usual labels these sites put on release lines.
	languageRe = regexp.MustCompile(`(?i)\b(hindi|english|tamil|telugu|dual audio|multi audio)\b`)
)

// GenericScraper is the heuristic fallback for sites without a dedicated
// parser. It looks for WordPress-style article markup first and degrades to
// any titled link that points back into the same site.
type GenericScraper struct{}

func NewGenericScraper() *GenericScraper {
	return &GenericScraper{}
}

func (g *GenericScraper) SearchSelectors() []string {
	return nil
}

// ParseResults extracts search results from common listing markup.
func (g *GenericScraper) ParseResults(doc *goquery.Document, base string) []schemas.SearchResult {
	var results []schemas.SearchResult

	collect := func(sel *goquery.Selection) {
		sel.Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			link := absolutize(base, href)
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
			if img := a.Find("img").First(); img.Length() > 0 {
				poster = absolutize(base, img.AttrOr("data-src", img.AttrOr("src", "")))
			}
			results = append(results, schemas.SearchResult{
				Title:         title,
				PosterURL:     poster,
				DetailPageURL: link,
				SourceSite:    base,
			})
		})
	}

	// WordPress listing markup, in decreasing order of specificity.
	for _, selector := range []string{
		"article h2 a", "article .entry-title a",
		".post-title a", ".result-item .title a",
	} {
		collect(doc.Find(selector))
		if len(results) > 0 {
			break
		}
	}

	// Last resort: titled links within the site.
	if len(results) == 0 {
		collect(doc.Find("a[title]").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return len(strings.TrimSpace(a.AttrOr("title", ""))) > 3
		}))
	}

	return dedupeResults(results)
}

// ParseOptions extracts download options from a detail page by scanning for
// download-flavored buttons and quality-labeled headings.
func (g *GenericScraper) ParseOptions(doc *goquery.Document, base string) []schemas.DownloadOption {
	var options []schemas.DownloadOption

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		label := strings.TrimSpace(a.Text())
		marker := strings.ToLower(label + " " + a.AttrOr("class", "") + " " + a.AttrOr("id", ""))
		if !strings.Contains(marker, "download") && !qualityRe.MatchString(label) {
			return
		}
		link := absolutize(base, a.AttrOr("href", ""))
		if link == "" {
			return
		}

		// The quality and language often live on the nearest heading rather
		// than the button itself.
		context := label
		if heading := a.Closest("p, div, li").PrevFiltered("h1, h2, h3, h4, h5").First(); heading.Length() > 0 {
			context = heading.Text() + " " + label
		}

		options = append(options, schemas.DownloadOption{
			Quality:            extractQuality(context),
			Language:           extractLanguage(context),
			DownloadTriggerURL: link,
		})
	})

	return dedupeOptions(options)
}

func extractQuality(text string) string {
	if m := qualityRe.FindString(text); m != "" {
		return strings.ToLower(m)
	}
	return "unknown"
}

func extractLanguage(text string) string {
	if m := languageRe.FindString(text); m != "" {
		return titleCase(m)
	}
	return "Unknown"
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func dedupeResults(in []schemas.SearchResult) []schemas.SearchResult {
	return lo.UniqBy(in, func(r schemas.SearchResult) string { return r.DetailPageURL })
}

func dedupeOptions(in []schemas.DownloadOption) []schemas.DownloadOption {
	return lo.UniqBy(in, func(o schemas.DownloadOption) string { return o.DownloadTriggerURL })
}
