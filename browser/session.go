// Package browser drives a Chrome instance over the DevTools protocol for
// form filling and evidence capture.
//
// Each Session owns an isolated browser process; distinct runs never share a
// session. Element resolution walks an explicit ordered list of locator
// strategies (XPath, CSS selector, name attribute) and reports not-found as
// a result rather than an error. Fill behavior dispatches on the semantic
// field type through a strategy table.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"formprobe/metadata"
)

const (
	defaultLocateTimeout = 5 * time.Second
	defaultNavTimeout    = 30 * time.Second
	defaultActionTimeout = 10 * time.Second
	defaultWindowWidth   = 1280
	defaultWindowHeight  = 720

	// fullScreenshotQuality of 100 makes chromedp emit lossless PNG.
	fullScreenshotQuality = 100
)

// Config controls how browser sessions are launched and how long individual
// operations may take.
type Config struct {
	// Headless launches Chrome without a visible window.
	Headless bool `yaml:"headless"`
	// LocateTimeout bounds each individual locator attempt.
	LocateTimeout time.Duration `yaml:"locate_timeout"`
	// NavTimeout bounds page navigation including readiness wait.
	NavTimeout time.Duration `yaml:"nav_timeout"`
	// ActionTimeout bounds individual element interactions.
	ActionTimeout time.Duration `yaml:"action_timeout"`
	WindowWidth   int           `yaml:"window_width"`
	WindowHeight  int           `yaml:"window_height"`
	// UserAgent overrides the browser default when non-empty.
	UserAgent string `yaml:"user_agent"`
}

func (c Config) withDefaults() Config {
	if c.LocateTimeout <= 0 {
		c.LocateTimeout = defaultLocateTimeout
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = defaultNavTimeout
	}
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = defaultActionTimeout
	}
	if c.WindowWidth <= 0 {
		c.WindowWidth = defaultWindowWidth
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = defaultWindowHeight
	}
	return c
}

// Session is one isolated browser instance.
type Session struct {
	cfg    Config
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	fills  map[metadata.FieldType]FillFunc
}

// NewSession launches a browser. The parent context bounds the whole session
// lifetime; cancelling it tears the browser down.
func NewSession(parent context.Context, cfg Config, logger *slog.Logger) (*Session, error) {
	cfg = cfg.withDefaults()

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.DisableGPU,
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		cfg:    cfg,
		logger: logger,
		ctx:    browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		fills: defaultFillFuncs(),
	}

	// Start the browser eagerly so session creation fails fast.
	if err := chromedp.Run(browserCtx); err != nil {
		s.cancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	logger.Debug("browser session started",
		"headless", cfg.Headless,
		"window", fmt.Sprintf("%dx%d", cfg.WindowWidth, cfg.WindowHeight),
	)
	return s, nil
}

// Navigate loads the target URL and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	err := s.run(ctx, s.cfg.NavTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// Screenshot captures a full-page PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, s.cfg.ActionTimeout, chromedp.FullScreenshot(&buf, fullScreenshotQuality)); err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return buf, nil
}

// Close shuts the browser down and releases the underlying process.
func (s *Session) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	return err
}

// run executes chromedp actions on the session's browser context with a
// timeout, while honoring cancellation of the caller's context.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}
