// internal/scrape/origin.go
package scrape

import (
	"net/url"
	"strings"
)

// SameOrigin reports whether two URLs point at the same site. The comparison
// is deliberately loose: scheme is ignored (http/https upgrades are routine)
// and a leading "www." is stripped, because sites flip between the bare and
// www forms mid-session. Anything that fails to parse counts as a different
// origin.
func SameOrigin(a, b string) bool {
	hostA, okA := normalizedHost(a)
	hostB, okB := normalizedHost(b)
	if !okA || !okB {
		return false
	}
	return hostA == hostB
}

func normalizedHost(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	host = strings.TrimPrefix(host, "www.")
	return host, true
}
