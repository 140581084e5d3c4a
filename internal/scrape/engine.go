// internal/scrape/engine.go

// Package scrape implements the movie scraping pipeline: discovering the
// current source sites, fanning a search out across them, reading download
// options off a detail page, and walking the ad gauntlet to a final media
// link. All browser work goes through schemas.BrowserSession, so the
// pipeline itself never touches CDP.
package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/config"
	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/scrape/sites"
)

// genericSearchSelectors are tried after a site's own selectors when hunting
// for the search input.
var genericSearchSelectors = []string{
	`input[name="s"]`,
	`input[name="q"]`,
	"input[type=search]",
	"input[type=text]",
}

// submitSelectors locate a search submit control when pressing Enter did not
// take.
var submitSelectors = []string{
	"button[type=submit]",
	"input[type=submit]",
	"form button",
}

// Engine runs the scraping pipeline. Operations degrade rather than fail: a
// broken site, a dead browser or a hostile redirect produces an empty result
// and a log line, never an error for the caller.
type Engine struct {
	factory  schemas.SessionFactory
	registry *sites.Registry
	cfg      config.ScraperConfig
	ctxOpts  schemas.ContextOptions
	logger   *zap.Logger
}

// Ensure Engine satisfies the pipeline contract.
var _ schemas.Engine = (*Engine)(nil)

// New builds an Engine. The server tier table must already be validated; an
// empty one is rejected here because resolution would silently do nothing.
func New(factory schemas.SessionFactory, registry *sites.Registry, cfg config.ScraperConfig, ctxOpts schemas.ContextOptions, logger *zap.Logger) (*Engine, error) {
	if factory == nil {
		return nil, fmt.Errorf("session factory is required")
	}
	if len(cfg.ServerTiers) == 0 {
		return nil, fmt.Errorf("at least one server tier is required")
	}
	if registry == nil {
		registry = sites.NewRegistry()
	}
	return &Engine{
		factory:  factory,
		registry: registry,
		cfg:      cfg,
		ctxOpts:  ctxOpts,
		logger:   logger.Named("engine"),
	}, nil
}

// renderedDoc is the string form of a rendered page plus where it ended up.
type renderedDoc struct {
	html string
	base string
}

// render navigates a fresh page in the session and returns its serialized
// DOM after the settle delay. base is the post-navigation location when the
// browser can report one, falling back to the requested URL.
func (e *Engine) render(ctx context.Context, session schemas.BrowserSession, url string, settle time.Duration) (renderedDoc, error) {
	if err := session.Navigate(ctx, url); err != nil {
		return renderedDoc{}, err
	}
	_ = session.Dwell(ctx, settle)

	base := url
	if loc, err := session.Location(ctx); err == nil && strings.TrimSpace(loc) != "" {
		base = loc
	}

	html, err := session.HTML(ctx)
	if err != nil {
		return renderedDoc{}, err
	}
	return renderedDoc{html: html, base: base}, nil
}
