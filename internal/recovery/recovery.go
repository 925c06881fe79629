// Package recovery runs the human-assisted bot-challenge flow: open a
// visible browser on the video, wait for a person to clear the challenge,
// then harvest the session cookies.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tubepost/internal/cookies"
)

// State tracks the recovery flow's progress. Terminal states are Saved,
// TimedOut, and BrowserUnavailable.
type State int

const (
	StateIdle State = iota
	StateBrowserLaunching
	StateAwaitingHumanSolve
	StateCookiesCaptured
	StateSaved
	StateTimedOut
	StateBrowserUnavailable
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBrowserLaunching:
		return "browser_launching"
	case StateAwaitingHumanSolve:
		return "awaiting_human_solve"
	case StateCookiesCaptured:
		return "cookies_captured"
	case StateSaved:
		return "saved"
	case StateTimedOut:
		return "timed_out"
	case StateBrowserUnavailable:
		return "browser_unavailable"
	default:
		return "unknown"
	}
}

var (
	// ErrTimedOut means no human cleared the challenge before the
	// deadline. The cookie store is left untouched.
	ErrTimedOut = errors.New("challenge was not solved before the deadline")

	// ErrBrowserUnavailable means no Chromium could be launched. Install
	// Chrome or Chromium on a machine with a display and retry there.
	ErrBrowserUnavailable = errors.New("no browser available for the recovery flow")
)

// session is one live browser window. The production implementation is
// rodSession; tests substitute their own.
type session interface {
	Navigate(ctx context.Context, url string) error
	ChallengeCleared(ctx context.Context) (bool, error)
	Cookies() ([]cookies.Record, error)
	Close()
}

// Outcome reports how a recovery run ended.
type Outcome struct {
	State       State         `json:"state"`
	CookieCount int           `json:"cookie_count"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Flow drives one recovery attempt at a time.
type Flow struct {
	store        *cookies.Store
	timeout      time.Duration
	pollInterval time.Duration
	log          zerolog.Logger

	newSession func() (session, error)
}

// NewFlow builds a flow bounded by timeout (default 5 minutes).
func NewFlow(store *cookies.Store, timeout time.Duration, log zerolog.Logger) *Flow {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Flow{
		store:        store,
		timeout:      timeout,
		pollInterval: 2 * time.Second,
		log:          log,
		newSession:   newRodSession,
	}
}

// Run opens the browser on videoURL and blocks until the challenge is
// cleared, the deadline passes, or ctx is cancelled. On success the
// harvested cookies are saved through the store; on timeout or
// cancellation the store is not modified.
func (f *Flow) Run(ctx context.Context, videoURL string) (*Outcome, error) {
	start := time.Now()
	outcome := &Outcome{State: StateBrowserLaunching}

	f.log.Info().Str("url", videoURL).Dur("timeout", f.timeout).Msg("starting challenge recovery")

	sess, err := f.newSession()
	if err != nil {
		outcome.State = StateBrowserUnavailable
		outcome.Elapsed = time.Since(start)
		f.log.Error().Err(err).Msg("browser launch failed")
		return outcome, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}
	defer sess.Close()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := sess.Navigate(ctx, videoURL); err != nil {
		outcome.State = StateBrowserUnavailable
		outcome.Elapsed = time.Since(start)
		return outcome, fmt.Errorf("%w: navigation failed: %v", ErrBrowserUnavailable, err)
	}

	outcome.State = StateAwaitingHumanSolve
	f.log.Info().Msg("waiting for a human to clear the challenge in the browser window")

	if err := f.awaitSolve(ctx, sess); err != nil {
		outcome.State = StateTimedOut
		outcome.Elapsed = time.Since(start)
		f.log.Warn().Dur("elapsed", outcome.Elapsed).Msg("challenge not solved in time")
		return outcome, err
	}

	outcome.State = StateCookiesCaptured
	records, err := sess.Cookies()
	if err != nil {
		outcome.Elapsed = time.Since(start)
		return outcome, fmt.Errorf("harvest cookies: %w", err)
	}
	if len(records) == 0 {
		outcome.Elapsed = time.Since(start)
		return outcome, fmt.Errorf("browser session produced no usable cookies")
	}

	if err := f.store.Save(records); err != nil {
		outcome.Elapsed = time.Since(start)
		return outcome, fmt.Errorf("save cookies: %w", err)
	}

	outcome.State = StateSaved
	outcome.CookieCount = len(records)
	outcome.Elapsed = time.Since(start)
	f.log.Info().Int("cookies", len(records)).Dur("elapsed", outcome.Elapsed).Msg("recovery complete")
	return outcome, nil
}

func (f *Flow) awaitSolve(ctx context.Context, sess session) error {
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		cleared, err := sess.ChallengeCleared(ctx)
		if err == nil && cleared {
			return nil
		}

		select {
		case <-ctx.Done():
			return ErrTimedOut
		case <-ticker.C:
		}
	}
}
