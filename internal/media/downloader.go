// Package media shells out to yt-dlp for video metadata and audio
// extraction.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"tubepost/internal/botcheck"
	"tubepost/internal/cookies"
)

const (
	defaultBinary = "yt-dlp"

	// Desktop Chrome identity. The android player client dodges most
	// signature throttling; web is the fallback.
	chromeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	extractorArgs   = "youtube:player_client=android,web"
)

// audioExtensions are the formats yt-dlp may produce for bestaudio,
// checked in order when resolving the output file.
var audioExtensions = []string{".wav", ".webm", ".m4a", ".mp3", ".opus", ".ogg"}

// Downloader wraps yt-dlp invocations. The cookie store is consulted on
// every call so a recovery mid-process picks up fresh cookies without a
// restart.
type Downloader struct {
	binary string
	store  *cookies.Store
	log    zerolog.Logger
}

func NewDownloader(store *cookies.Store, log zerolog.Logger) *Downloader {
	return &Downloader{binary: defaultBinary, store: store, log: log}
}

// Available reports whether the yt-dlp binary is on PATH.
func (d *Downloader) Available() bool {
	_, err := exec.LookPath(d.binary)
	return err == nil
}

// VideoInfo is the subset of yt-dlp -J output the pipeline needs.
type VideoInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Uploader    string `json:"uploader"`
	Duration    int    `json:"duration"`
	Description string `json:"description"`
}

// ChannelName returns the channel, falling back to the uploader field.
func (v *VideoInfo) ChannelName() string {
	if v.Channel != "" {
		return v.Channel
	}
	return v.Uploader
}

// FormattedDuration renders the duration as H:MM:SS or M:SS.
func (v *VideoInfo) FormattedDuration() string {
	h := v.Duration / 3600
	m := (v.Duration % 3600) / 60
	s := v.Duration % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Info fetches video metadata without downloading media.
func (d *Downloader) Info(ctx context.Context, videoURL string) (*VideoInfo, error) {
	args := append(d.baseArgs(), "-J", "--no-download", videoURL)
	cmd := exec.CommandContext(ctx, d.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	d.log.Debug().Str("url", videoURL).Msg("fetching video metadata")
	if err := cmd.Run(); err != nil {
		return nil, d.classify(videoURL, stderr.String(), fmt.Errorf("yt-dlp metadata: %w", err))
	}

	var info VideoInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp metadata: %w", err)
	}
	return &info, nil
}

// DownloadAudio extracts the best audio track into a temp directory and
// returns the file path plus a cleanup func that removes the directory.
func (d *Downloader) DownloadAudio(ctx context.Context, videoURL string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "tubepost-audio-*")
	if err != nil {
		return "", nil, fmt.Errorf("create audio temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	outTemplate := filepath.Join(dir, "audio.%(ext)s")
	args := append(d.baseArgs(),
		"-f", "bestaudio/best",
		"-x",
		"-o", outTemplate,
		videoURL,
	)
	cmd := exec.CommandContext(ctx, d.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	d.log.Info().Str("url", videoURL).Msg("downloading audio track")
	if err := cmd.Run(); err != nil {
		cleanup()
		return "", nil, d.classify(videoURL, stderr.String(), fmt.Errorf("yt-dlp download: %w", err))
	}

	path, err := resolveAudioFile(dir)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

func (d *Downloader) baseArgs() []string {
	args := []string{
		"--no-warnings",
		"--no-playlist",
		"--user-agent", chromeUserAgent,
		"--extractor-args", extractorArgs,
	}
	if d.store != nil && d.store.Exists() {
		args = append(args, "--cookies", d.store.Path())
	}
	return args
}

// classify turns a yt-dlp failure into a BotDetectionError when stderr
// carries a challenge signature; anything else passes through with the
// stderr tail attached.
func (d *Downloader) classify(videoURL, stderr string, err error) error {
	if botcheck.IsChallenge(stderr) {
		d.log.Warn().Str("url", videoURL).Msg("yt-dlp hit a bot challenge")
		return &botcheck.BotDetectionError{URL: videoURL, Output: tail(stderr, 2000)}
	}
	if s := tail(stderr, 500); s != "" {
		return fmt.Errorf("%w: %s", err, s)
	}
	return err
}

func resolveAudioFile(dir string) (string, error) {
	for _, ext := range audioExtensions {
		path := filepath.Join(dir, "audio"+ext)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path, nil
		}
	}
	// Fall back to whatever single file landed in the directory.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read audio dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("yt-dlp produced no audio file in %s", dir)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
