package schemas

// -- Scraped data records --
//
// Everything in this package is transient: records live for one user
// interaction cycle and are never persisted.

// SearchResult is one movie entry scraped from a source site's search page.
type SearchResult struct {
	Title         string `json:"title"`
	PosterURL     string `json:"posterUrl"`
	DetailPageURL string `json:"detailPageUrl"`
	SourceSite    string `json:"sourceSite"`
}

// DownloadOption is one quality/language variant scraped from a detail page.
// DownloadTriggerURL leads to the gated server-selection page, not to a file.
type DownloadOption struct {
	Quality            string `json:"quality"`
	Language           string `json:"language"`
	DownloadTriggerURL string `json:"downloadTriggerUrl"`
}

// Label renders the option the way it is shown on a selection button.
func (o DownloadOption) Label() string {
	return o.Quality + " - " + o.Language
}

// -- Server resolution configuration --

// Identifier describes one way to recognise a server-choice element on a
// gated download page. Exactly one of Text or Pattern is set: Text is matched
// as a case-insensitive substring of the element's visible text, class or id;
// Pattern is a case-insensitive regular expression applied to visible text.
type Identifier struct {
	Text    string `mapstructure:"text" yaml:"text,omitempty"`
	Pattern string `mapstructure:"pattern" yaml:"pattern,omitempty"`
}

// ServerTier is a named priority group of alternative server identifiers.
// Tiers are tried strictly in listed order; within a tier, identifiers are
// tried in listed order, and the first usable link wins.
type ServerTier struct {
	Name        string       `mapstructure:"name" yaml:"name"`
	Identifiers []Identifier `mapstructure:"identifiers" yaml:"identifiers"`
}

// -- Browser session configuration --

// ContextOptions carries the per-session browsing context settings.
type ContextOptions struct {
	UserAgent        string
	IgnoreTLSErrors  bool
	EnableJavaScript bool
}

// DefaultUserAgent is a realistic desktop Chrome user agent. Many source
// sites serve degraded or blocked pages to obvious automation agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultContextOptions returns the options used when the caller does not
// override them: JavaScript on, TLS errors ignored (many source sites are
// misconfigured), desktop user agent.
func DefaultContextOptions() ContextOptions {
	return ContextOptions{
		UserAgent:        DefaultUserAgent,
		IgnoreTLSErrors:  true,
		EnableJavaScript: true,
	}
}

// ElementHit reports the outcome of locating a server-choice element.
type ElementHit struct {
	Found bool   `json:"found"`
	Href  string `json:"href"`
	Src   string `json:"src"`
	Text  string `json:"text"`
}
