package recovery

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"tubepost/internal/cookies"
)

// playerSelectors match once YouTube renders actual video content instead
// of the challenge interstitial.
const playerSelectors = "div#player, ytd-watch-flexy, #movie_player"

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// newRodSession launches a visible Chromium window. The human needs to
// see the page, so headless is off and automation tells are stripped.
func newRodSession() (session, error) {
	bin, found := launcher.LookPath()
	if !found {
		return nil, fmt.Errorf("no chromium binary found on this machine")
	}

	l := launcher.New().
		Bin(bin).
		Headless(false).
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", "1280,720").
		Set("no-first-run").
		Set("no-default-browser-check").
		Delete("enable-automation")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("open stealth page: %w", err)
	}

	return &rodSession{launcher: l, browser: browser, page: page}, nil
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	return s.page.Context(ctx).Navigate(url)
}

func (s *rodSession) ChallengeCleared(ctx context.Context) (bool, error) {
	has, _, err := s.page.Context(ctx).Has(playerSelectors)
	if err != nil {
		return false, err
	}
	return has, nil
}

func (s *rodSession) Cookies() ([]cookies.Record, error) {
	browserCookies, err := s.browser.GetCookies()
	if err != nil {
		return nil, err
	}
	return cookies.FromBrowser(browserCookies), nil
}

func (s *rodSession) Close() {
	s.browser.Close()
	s.launcher.Cleanup()
}
