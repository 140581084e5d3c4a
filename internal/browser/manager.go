// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/api/schemas"
	"github.com/Aadityasamriyagit/Reloadthegraphicsbot/internal/config"
)

// Manager launches and hands out isolated browser sessions. Every Acquire
// spawns a dedicated Chrome process, so a crashed or ad-poisoned session can
// never take a sibling down with it.
type Manager struct {
	rootCtx context.Context
	cfg     config.BrowserConfig
	policy  *Policy
	logger  *zap.Logger
}

// Ensure Manager satisfies the factory contract.
var _ schemas.SessionFactory = (*Manager)(nil)

// NewManager creates a session factory. rootCtx bounds the lifetime of every
// browser process the manager launches; canceling it tears them all down.
func NewManager(rootCtx context.Context, cfg config.BrowserConfig, denylist []string, logger *zap.Logger) *Manager {
	return &Manager{
		rootCtx: rootCtx,
		cfg:     cfg,
		policy:  NewPolicy(denylist),
		logger:  logger.Named("browser"),
	}
}

// execOptions translates the browser configuration into chromedp allocator options.
func (m *Manager) execOptions(opts schemas.ContextOptions) []chromedp.ExecAllocatorOption {
	// Start with chromedp defaults.
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		// Required on hardened systems where the Chrome sandbox cannot start.
		chromedp.NoSandbox,
		// Recommended for stability in containers and headless environments.
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	if m.cfg.Headless {
		execOpts = append(execOpts, chromedp.Headless)
	}
	if opts.UserAgent != "" {
		execOpts = append(execOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.IgnoreTLSErrors {
		execOpts = append(execOpts, chromedp.Flag("ignore-certificate-errors", true))
	}
	if !opts.EnableJavaScript {
		execOpts = append(execOpts, chromedp.Flag("blink-settings", "scriptsEnabled=false"))
	}

	// Add additional flags from the config file's 'args' slice.
	for _, arg := range m.cfg.Args {
		arg = strings.TrimPrefix(arg, "--")
		if arg == "" {
			continue
		}
		if key, value, found := strings.Cut(arg, "="); found {
			execOpts = append(execOpts, chromedp.Flag(key, value))
		} else {
			execOpts = append(execOpts, chromedp.Flag(arg, true))
		}
	}
	return execOpts
}

// Acquire launches a fresh Chrome process and returns a session attached to
// its initial tab, with ad interception already armed. The caller owns the
// session and must Release it.
func (m *Manager) Acquire(ctx context.Context, opts schemas.ContextOptions) (schemas.BrowserSession, error) {
	// The allocator is parented on the manager's root context, not the
	// acquire context: the session must outlive the call that created it.
	allocCtx, allocCancel := chromedp.NewExecAllocator(m.rootCtx, m.execOptions(opts)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	release := func() {
		tabCancel()
		allocCancel()
	}

	// Starting with an empty task list launches the process and attaches to
	// the initial target.
	if err := chromedp.Run(tabCtx); err != nil {
		release()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	sessionID := uuid.NewString()
	s := &Session{
		id:          sessionID,
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		cfg:         m.cfg,
		policy:      m.policy,
		logger:      m.logger.With(zap.String("session_id", sessionID)),
	}

	if err := s.arm(); err != nil {
		release()
		return nil, fmt.Errorf("failed to arm request interception: %w", err)
	}

	s.logger.Debug("Browser session acquired.")
	return s, nil
}
