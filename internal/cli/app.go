package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/rs/zerolog"

	"tubepost/internal/blog"
	"tubepost/internal/config"
	"tubepost/internal/cookies"
	"tubepost/internal/media"
	"tubepost/internal/pipeline"
	"tubepost/internal/recovery"
	"tubepost/internal/transcriber"
	"tubepost/internal/transcript"
)

// app bundles the wired pipeline dependencies for the CLI commands.
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	store      *cookies.Store
	downloader *media.Downloader
	runtime    *transcriber.Runtime
}

func newApp(verbose bool) *app {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	cfg := config.LoadOrDefault()
	store := cookies.NewStore(cfg.Cookies.Path)

	return &app{
		cfg:        cfg,
		log:        log,
		store:      store,
		downloader: media.NewDownloader(store, log),
		runtime:    transcriber.NewRuntime(cfg.DataDir, cfg.Transcription.WhisperModel),
	}
}

// provisionCookies runs the startup cookie provisioning.
func (a *app) provisionCookies(ctx context.Context) (cookies.Source, error) {
	return cookies.Provision(ctx, a.cfg.Cookies, a.store, a.log)
}

// generator wires the full pipeline. The speech backend is optional;
// caption-only videos still work without one.
func (a *app) generator() (*pipeline.Generator, error) {
	speech, err := transcriber.Resolve(a.cfg.Transcription, a.runtime, a.log)
	if err != nil {
		a.log.Warn().Err(err).Msg("no speech backend; audio fallback disabled")
		speech = nil
	}

	writer, err := blog.NewWriter(a.cfg.Blog, a.log)
	if err != nil {
		return nil, fmt.Errorf("blog backend: %w", err)
	}

	fetcher := transcript.NewFetcher(a.log)
	return pipeline.NewGenerator(fetcher, a.downloader, speech, writer, a.log), nil
}

func (a *app) recoveryFlow() *recovery.Flow {
	return recovery.NewFlow(a.store, a.cfg.Recovery.Timeout, a.log)
}

// diagnostics reports tool availability for the diagnostics endpoint and
// the doctor-style CLI output.
func (a *app) diagnostics() map[string]any {
	_, browserFound := launcher.LookPath()
	_, ffmpegErr := exec.LookPath("ffmpeg")
	return map[string]any{
		"yt_dlp":           a.downloader.Available(),
		"ffmpeg":           ffmpegErr == nil,
		"whisper":          a.runtime.WhisperInstalled(),
		"browser":          browserFound,
		"cookies_present":  a.store.Exists(),
		"cookies_path":     a.store.Path(),
		"speech_provider":  a.cfg.Transcription.Provider,
		"blog_provider":    a.cfg.Blog.Provider,
		"blog_key_present": a.cfg.Blog.APIKey != "",
		"recovery_timeout": a.cfg.Recovery.Timeout.String(),
	}
}

func (a *app) postsDBPath() string {
	return filepath.Join(a.cfg.DataDir, "posts.db")
}
