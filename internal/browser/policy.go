// internal/browser/policy.go
package browser

import (
	"strings"

	"github.com/chromedp/cdproto/network"
)

// Policy decides which in-flight requests get cut off before they reach the
// network. It is deliberately coarse: a substring denylist over the request
// URL, applied only to resource categories that ad networks actually use.
// Top-level document loads are never blocked, so a navigation can never be
// broken by an overzealous list entry.
type Policy struct {
	denylist []string
}

// NewPolicy builds a Policy from a denylist of domain substrings. Entries are
// matched case-insensitively against the full request URL.
func NewPolicy(denylist []string) *Policy {
	lowered := make([]string, 0, len(denylist))
	for _, entry := range denylist {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" {
			lowered = append(lowered, entry)
		}
	}
	return &Policy{denylist: lowered}
}

// MatchesDenylist reports whether the URL contains any denylist entry.
func (p *Policy) MatchesDenylist(url string) bool {
	lowered := strings.ToLower(url)
	for _, entry := range p.denylist {
		if strings.Contains(lowered, entry) {
			return true
		}
	}
	return false
}

// ShouldBlock decides the fate of a paused request. subFrame reports whether
// the request belongs to a frame other than the main frame; a Document load
// in a sub-frame is an embedded iframe and is fair game, while the main
// document never is.
func (p *Policy) ShouldBlock(resourceType network.ResourceType, subFrame bool, url string) bool {
	if !p.blockableCategory(resourceType, subFrame) {
		return false
	}
	return p.MatchesDenylist(url)
}

// blockableCategory limits blocking to the categories ad delivery relies on.
func (p *Policy) blockableCategory(resourceType network.ResourceType, subFrame bool) bool {
	switch resourceType {
	case network.ResourceTypeImage,
		network.ResourceTypeScript,
		network.ResourceTypeMedia,
		network.ResourceTypeWebSocket:
		return true
	case network.ResourceTypeDocument:
		// CDP has no dedicated iframe category; a sub-frame Document is one.
		return subFrame
	default:
		return false
	}
}
