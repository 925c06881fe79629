package recovery

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tubepost/internal/cookies"
)

type fakeSession struct {
	solveAfter int // ChallengeCleared returns true on the nth probe; 0 = never
	probes     int
	records    []cookies.Record
	cookieErr  error
	closed     bool
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error { return nil }

func (f *fakeSession) ChallengeCleared(ctx context.Context) (bool, error) {
	f.probes++
	return f.solveAfter > 0 && f.probes >= f.solveAfter, nil
}

func (f *fakeSession) Cookies() ([]cookies.Record, error) {
	return f.records, f.cookieErr
}

func (f *fakeSession) Close() { f.closed = true }

func testFlow(t *testing.T, sess session, launchErr error, timeout time.Duration) (*Flow, *cookies.Store) {
	t.Helper()
	store := cookies.NewStore(filepath.Join(t.TempDir(), "cookies.txt"))
	flow := NewFlow(store, timeout, zerolog.Nop())
	flow.pollInterval = time.Millisecond
	flow.newSession = func() (session, error) {
		if launchErr != nil {
			return nil, launchErr
		}
		return sess, nil
	}
	return flow, store
}

func TestRunSavesCookiesOnSolve(t *testing.T) {
	sess := &fakeSession{
		solveAfter: 3,
		records: []cookies.Record{
			{Domain: ".youtube.com", IncludeSubdomains: true, Path: "/", Secure: true, Expires: 1767225600, Name: "SID", Value: "fresh"},
		},
	}
	flow, store := testFlow(t, sess, nil, time.Second)

	outcome, err := flow.Run(t.Context(), "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.State != StateSaved {
		t.Errorf("state = %s, want saved", outcome.State)
	}
	if outcome.CookieCount != 1 {
		t.Errorf("cookie count = %d", outcome.CookieCount)
	}
	if !sess.closed {
		t.Error("session not closed")
	}

	records, err := store.Load()
	if err != nil || len(records) != 1 || records[0].Value != "fresh" {
		t.Errorf("store contents wrong: %v, %v", records, err)
	}
}

func TestRunTimeoutLeavesStoreUntouched(t *testing.T) {
	sess := &fakeSession{solveAfter: 0}
	flow, store := testFlow(t, sess, nil, 20*time.Millisecond)

	outcome, err := flow.Run(t.Context(), "https://youtu.be/abc")
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("err = %v, want ErrTimedOut", err)
	}
	if outcome.State != StateTimedOut {
		t.Errorf("state = %s, want timed_out", outcome.State)
	}
	if store.Exists() {
		t.Error("timed-out run must not write the cookie file")
	}
	if !sess.closed {
		t.Error("session not closed after timeout")
	}
}

func TestRunCancellationPropagates(t *testing.T) {
	sess := &fakeSession{solveAfter: 0}
	flow, store := testFlow(t, sess, nil, time.Minute)

	ctx, cancel := context.WithCancel(t.Context())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := flow.Run(ctx, "https://youtu.be/abc")
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("err = %v, want ErrTimedOut on cancellation", err)
	}
	if store.Exists() {
		t.Error("cancelled run must not write the cookie file")
	}
}

func TestRunBrowserUnavailable(t *testing.T) {
	flow, _ := testFlow(t, nil, errors.New("no chromium binary found"), time.Second)

	outcome, err := flow.Run(t.Context(), "https://youtu.be/abc")
	if !errors.Is(err, ErrBrowserUnavailable) {
		t.Fatalf("err = %v, want ErrBrowserUnavailable", err)
	}
	if outcome.State != StateBrowserUnavailable {
		t.Errorf("state = %s", outcome.State)
	}
}

func TestRunNoCookiesHarvested(t *testing.T) {
	sess := &fakeSession{solveAfter: 1, records: nil}
	flow, store := testFlow(t, sess, nil, time.Second)

	_, err := flow.Run(t.Context(), "https://youtu.be/abc")
	if err == nil {
		t.Fatal("expected error when no cookies were harvested")
	}
	if store.Exists() {
		t.Error("empty harvest must not write the cookie file")
	}
}
