// Package transcriber converts audio files to text through one of the
// supported speech backends.
package transcriber

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tubepost/internal/config"
)

// Transcriber is a speech-to-text backend. Transcribe returns the raw
// transcript exactly as produced; no truncation or summarization happens
// at this layer.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, filePath string) (string, error)
}

// Provider is the closed set of speech backends.
type Provider int

const (
	ProviderAuto Provider = iota
	ProviderWhisper
	ProviderAssemblyAI
	ProviderDeepgram
)

func (p Provider) String() string {
	switch p {
	case ProviderWhisper:
		return "whisper"
	case ProviderAssemblyAI:
		return "assemblyai"
	case ProviderDeepgram:
		return "deepgram"
	default:
		return "auto"
	}
}

// ParseProvider maps a config string to a Provider. The second return is
// false for unrecognized values; callers fall back to auto.
func ParseProvider(s string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ProviderAuto, true
	case "whisper":
		return ProviderWhisper, true
	case "assemblyai":
		return ProviderAssemblyAI, true
	case "deepgram":
		return ProviderDeepgram, true
	default:
		return ProviderAuto, false
	}
}

// Resolve builds the transcriber for the configured provider. Auto picks
// deterministically: local whisper when binary and model are installed,
// then AssemblyAI, then Deepgram, in key-configuration order.
func Resolve(cfg config.TranscriptionConfig, rt *Runtime, log zerolog.Logger) (Transcriber, error) {
	provider, ok := ParseProvider(cfg.Provider)
	if !ok {
		log.Warn().Str("provider", cfg.Provider).Msg("unknown transcription provider, using auto")
	}

	switch provider {
	case ProviderWhisper:
		return newWhisper(rt, cfg.Language)
	case ProviderAssemblyAI:
		if cfg.AssemblyAIKey == "" {
			return nil, fmt.Errorf("assemblyai selected but ASSEMBLYAI_API_KEY is not set")
		}
		return newAssemblyAI(cfg.AssemblyAIKey, log), nil
	case ProviderDeepgram:
		if cfg.DeepgramKey == "" {
			return nil, fmt.Errorf("deepgram selected but DEEPGRAM_API_KEY is not set")
		}
		return newDeepgram(cfg.DeepgramKey, cfg.Language), nil
	}

	if rt != nil && rt.WhisperInstalled() {
		return newWhisper(rt, cfg.Language)
	}
	if cfg.AssemblyAIKey != "" {
		return newAssemblyAI(cfg.AssemblyAIKey, log), nil
	}
	if cfg.DeepgramKey != "" {
		return newDeepgram(cfg.DeepgramKey, cfg.Language), nil
	}
	return nil, fmt.Errorf("no transcription backend available: install whisper-cli or configure an API key")
}
