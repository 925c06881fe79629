// Package transcript fetches YouTube captions directly, without touching
// the media pipeline.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoTranscript means the video has no usable caption track: captions
// disabled, none published, or every track gated behind a proof-of-origin
// token.
var ErrNoTranscript = errors.New("no transcript available")

var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`)

// ExtractVideoID pulls the 11-character video ID out of any of the common
// YouTube URL forms. Returns "" when the URL does not look like a video.
func ExtractVideoID(rawURL string) string {
	m := videoIDPattern.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Fetcher retrieves caption tracks via the Innertube player API.
type Fetcher struct {
	client *http.Client
	langs  []string
	log    zerolog.Logger
}

// NewFetcher returns a fetcher preferring the given language codes, most
// preferred first. Defaults to English variants.
func NewFetcher(log zerolog.Logger, langs ...string) *Fetcher {
	if len(langs) == 0 {
		langs = []string{"en", "en-US", "en-GB"}
	}
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		langs:  langs,
		log:    log,
	}
}

// Fetch returns the plain-text transcript for a video URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	videoID := ExtractVideoID(rawURL)
	if videoID == "" {
		return "", fmt.Errorf("no video ID in URL %q", rawURL)
	}

	player, err := f.callPlayer(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("player request for %s: %w", videoID, err)
	}

	tracks := player.captionTracks()
	if len(tracks) == 0 {
		return "", fmt.Errorf("video %s has no caption tracks: %w", videoID, ErrNoTranscript)
	}

	track := pickTrack(tracks, f.langs)
	if track == nil {
		return "", fmt.Errorf("video %s has only gated caption tracks: %w", videoID, ErrNoTranscript)
	}
	f.log.Debug().Str("video_id", videoID).Str("lang", track.LanguageCode).
		Str("kind", track.Kind).Msg("selected caption track")

	text, err := f.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("timedtext fetch for %s: %w", videoID, err)
	}
	if text == "" {
		return "", fmt.Errorf("video %s caption track is empty: %w", videoID, ErrNoTranscript)
	}
	return text, nil
}
