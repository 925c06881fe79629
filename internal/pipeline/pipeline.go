// Package pipeline orchestrates the URL-to-post flow: metadata, direct
// captions, the audio fallback, and blog assembly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tubepost/internal/blog"
	"tubepost/internal/botcheck"
	"tubepost/internal/media"
	"tubepost/internal/recovery"
	"tubepost/internal/transcriber"
)

var (
	// ErrDownloadFailed wraps non-challenge yt-dlp failures.
	ErrDownloadFailed = errors.New("audio download failed")

	// ErrTranscriptionFailed wraps speech backend failures.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrRecoveryExhausted means the bot challenge came back after a
	// successful recovery. The request is terminal; no further recovery
	// is attempted.
	ErrRecoveryExhausted = errors.New("bot challenge persisted after cookie recovery")
)

// CaptionFetcher is the direct caption path.
type CaptionFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// AudioSource provides video metadata and the audio fallback.
type AudioSource interface {
	Info(ctx context.Context, url string) (*media.VideoInfo, error)
	DownloadAudio(ctx context.Context, url string) (string, func(), error)
}

// Composer assembles the final post from a transcript.
type Composer interface {
	Compose(ctx context.Context, transcript string, info *media.VideoInfo) (*blog.Post, error)
}

// RecoveryRunner is the human-assisted challenge flow.
type RecoveryRunner interface {
	Run(ctx context.Context, url string) (*recovery.Outcome, error)
}

// Result is a finished pipeline run.
type Result struct {
	Info             *media.VideoInfo
	Transcript       string
	TranscriptSource string // "captions" or the speech provider name
	Post             *blog.Post
}

// Generator wires the pipeline stages together. All dependencies are
// explicit; nothing reads global state.
type Generator struct {
	captions CaptionFetcher
	media    AudioSource
	speech   transcriber.Transcriber
	writer   Composer
	log      zerolog.Logger
}

func NewGenerator(captions CaptionFetcher, audio AudioSource, speech transcriber.Transcriber, writer Composer, log zerolog.Logger) *Generator {
	return &Generator{
		captions: captions,
		media:    audio,
		speech:   speech,
		writer:   writer,
		log:      log,
	}
}

// Generate runs the full pipeline once. A successful direct caption fetch
// never touches the downloader or the speech backend.
func (g *Generator) Generate(ctx context.Context, url string) (*Result, error) {
	info, err := g.media.Info(ctx, url)
	if err != nil {
		var botErr *botcheck.BotDetectionError
		if errors.As(err, &botErr) {
			return nil, err
		}
		// Metadata is decoration; the transcript paths decide success.
		g.log.Warn().Err(err).Str("url", url).Msg("metadata fetch failed, continuing without it")
		info = nil
	}

	result := &Result{Info: info}

	text, err := g.captions.Fetch(ctx, url)
	if err != nil {
		var botErr *botcheck.BotDetectionError
		if errors.As(err, &botErr) {
			return nil, err
		}
	}
	if err == nil && strings.TrimSpace(text) != "" {
		g.log.Info().Str("url", url).Int("chars", len(text)).Msg("transcript fetched directly")
		result.Transcript = text
		result.TranscriptSource = "captions"
	} else {
		if err != nil {
			g.log.Info().Err(err).Str("url", url).Msg("direct captions unavailable, falling back to audio")
		}
		text, source, err := g.transcribeAudio(ctx, url)
		if err != nil {
			return nil, err
		}
		result.Transcript = text
		result.TranscriptSource = source
	}

	post, err := g.writer.Compose(ctx, result.Transcript, info)
	if err != nil {
		return nil, fmt.Errorf("blog assembly: %w", err)
	}
	result.Post = post
	return result, nil
}

func (g *Generator) transcribeAudio(ctx context.Context, url string) (string, string, error) {
	if g.speech == nil {
		return "", "", fmt.Errorf("%w: no speech backend configured", ErrTranscriptionFailed)
	}

	audioPath, cleanup, err := g.media.DownloadAudio(ctx, url)
	if err != nil {
		var botErr *botcheck.BotDetectionError
		if errors.As(err, &botErr) {
			return "", "", err
		}
		return "", "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer cleanup()

	g.log.Info().Str("provider", g.speech.Name()).Msg("transcribing audio")
	text, err := g.speech.Transcribe(ctx, audioPath)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %v", ErrTranscriptionFailed, g.speech.Name(), err)
	}
	if strings.TrimSpace(text) == "" {
		return "", "", fmt.Errorf("%w: %s produced empty output", ErrTranscriptionFailed, g.speech.Name())
	}
	return text, g.speech.Name(), nil
}

// GenerateWithRecovery runs Generate and, on a bot challenge, runs the
// recovery flow and retries exactly once. A second challenge is terminal.
func (g *Generator) GenerateWithRecovery(ctx context.Context, url string, rec RecoveryRunner) (*Result, error) {
	result, err := g.Generate(ctx, url)
	var botErr *botcheck.BotDetectionError
	if err == nil || !errors.As(err, &botErr) || rec == nil {
		return result, err
	}

	g.log.Warn().Str("url", url).Msg("bot challenge hit, starting recovery")
	if _, recErr := rec.Run(ctx, url); recErr != nil {
		return nil, recErr
	}

	result, err = g.Generate(ctx, url)
	if err != nil && errors.As(err, &botErr) {
		return nil, fmt.Errorf("%w: %v", ErrRecoveryExhausted, err)
	}
	return result, err
}
