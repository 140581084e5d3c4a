// internal/scrape/medialink.go
package scrape

import (
	"net/url"
	"path"
	"strings"
)

// videoExtensions are file suffixes that mark a URL as a direct media file.
var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".avi":  {},
	".webm": {},
	".m4v":  {},
	".mov":  {},
	".ts":   {},
}

// mediaHostMarkers are URL fragments used by known streaming backends whose
// links are playable even without a file extension.
var mediaHostMarkers = []string{
	"googlevideo.com/videoplayback",
	"/videoplayback",
	".workers.dev/",
}

// IsDirectMedia reports whether the URL points at a playable or downloadable
// media file rather than another HTML page. The query string is ignored;
// CDNs hang tokens and expiry parameters off these links.
func IsDirectMedia(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if _, ok := videoExtensions[ext]; ok {
		return true
	}

	probe := strings.ToLower(u.Host + u.Path)
	if !strings.HasSuffix(probe, "/") {
		probe += "/"
	}
	for _, marker := range mediaHostMarkers {
		if strings.Contains(probe, marker) {
			return true
		}
	}
	return false
}
