// Package browser owns the automation session: one launched Chromium, one
// stealth page. A session is acquired per subsection and must be released
// on both success and failure paths; a session is never reused after an
// unrecoverable automation error.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"galleryscraper/internal/config"
)

// NavigationError wraps a failure to load a gallery page.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation error for %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// Session is a live browser automation session.
type Session struct {
	cfg      config.BrowserConfig
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   *slog.Logger
}

// NewSession launches a Chromium instance and opens a stealth page.
func NewSession(cfg config.BrowserConfig, logger *slog.Logger) (*Session, error) {
	s := &Session{
		cfg:    cfg,
		logger: logger.With("component", "browser_session"),
	}

	s.launcher = launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-background-networking").
		Set("disable-extensions").
		Set("mute-audio").
		Set("no-first-run")
	if cfg.WindowSize != "" {
		s.launcher = s.launcher.Set("window-size", cfg.WindowSize)
	}

	launchURL, err := s.launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	s.browser = rod.New().ControlURL(launchURL)
	if err := s.browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(s.browser)
	if err != nil {
		_ = s.browser.Close()
		return nil, fmt.Errorf("stealth page: %w", err)
	}
	s.page = page

	if cfg.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent})
		if err != nil {
			s.logger.Warn("failed to set user agent", "error", err)
		}
	}

	if cfg.BlockImages {
		if err := s.blockImages(); err != nil {
			s.logger.Warn("failed to enable image blocking", "error", err)
		}
	}

	s.logger.Info("browser session ready", "headless", cfg.Headless)
	return s, nil
}

// blockImages aborts image requests to reduce bandwidth and speed up page
// loads. The gallery markup still renders, which is all enumeration needs.
func (s *Session) blockImages() error {
	router := s.browser.HijackRequests()
	err := router.Add("*", proto.NetworkResourceTypeImage, func(ctx *rod.Hijack) {
		ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
	})
	if err != nil {
		return err
	}
	go router.Run()
	return nil
}

// Page returns the session's page handle.
func (s *Session) Page() *rod.Page {
	return s.page
}

// Navigate loads a gallery URL and waits for the document body to exist
// and the page to go stable. Stability timeout is non-fatal; the content
// loader tolerates an incompletely loaded page.
func (s *Session) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx)

	if err := page.Timeout(s.cfg.NavTimeout).Navigate(url); err != nil {
		return &NavigationError{URL: url, Err: err}
	}

	if _, err := page.Timeout(s.cfg.NavTimeout).Element("body"); err != nil {
		return &NavigationError{URL: url, Err: fmt.Errorf("body never appeared: %w", err)}
	}

	if err := page.Timeout(s.cfg.NavTimeout).WaitStable(300 * time.Millisecond); err != nil {
		s.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}

	info, err := page.Info()
	if err == nil && info != nil {
		s.logger.Info("page loaded", "url", url, "final_url", info.URL, "title", info.Title)
	}
	return nil
}

// HTML returns the current page markup.
func (s *Session) HTML() (string, error) {
	return s.page.HTML()
}

// Close releases the page and browser. Safe to call on a partially
// initialized session.
func (s *Session) Close() error {
	if s.page != nil {
		_ = s.page.Close()
	}
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	s.logger.Info("browser session closed")
	return err
}
