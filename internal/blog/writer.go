// Package blog turns a transcript into a publishable post through an
// OpenAI-compatible chat completion API.
package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"tubepost/internal/config"
	"tubepost/internal/media"
)

// ProviderEndpoints maps provider names to their OpenAI-compatible base
// URLs. OpenAI itself uses the SDK default.
var ProviderEndpoints = map[string]string{
	"groq": "https://api.groq.com/openai/v1",
}

// groqFallbackModels are tried in order when Groq decommissions the
// configured model.
var groqFallbackModels = []string{
	"llama-3.3-70b-versatile",
	"llama-3.1-8b-instant",
	"mixtral-8x7b-32768",
}

// Post is the assembled blog output.
type Post struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// Writer calls the chat completion API and parses the structured reply.
type Writer struct {
	client    openai.Client
	provider  string
	model     string
	fallbacks []string
	log       zerolog.Logger
}

// NewWriter builds a writer from config. Groq gets its endpoint and model
// fallback chain; any other provider uses the configured base URL or the
// SDK default.
func NewWriter(cfg config.BlogConfig, log zerolog.Logger) (*Writer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("blog provider %q has no API key configured", cfg.Provider)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = ProviderEndpoints[cfg.Provider]
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	w := &Writer{
		client:   openai.NewClient(opts...),
		provider: cfg.Provider,
		model:    cfg.Model,
		log:      log,
	}
	if cfg.Provider == "groq" {
		w.fallbacks = groqFallbackModels
	}
	if w.model == "" {
		if len(w.fallbacks) > 0 {
			w.model = w.fallbacks[0]
		} else {
			w.model = "gpt-4o-mini"
		}
	}
	return w, nil
}

// Compose generates the post. When the completion stops at the token
// limit, one continuation request extends the content.
func (w *Writer) Compose(ctx context.Context, transcript string, info *media.VideoInfo) (*Post, error) {
	prompt := buildPrompt(transcript, info)

	text, finishReason, err := w.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	post := parsePost(text, info)

	if finishReason == "length" {
		w.log.Debug().Msg("completion truncated, requesting continuation")
		more, _, err := w.complete(ctx, continuationPrompt(post.Content))
		if err != nil {
			w.log.Warn().Err(err).Msg("continuation request failed, keeping truncated content")
		} else if more != "" {
			post.Content = strings.TrimSpace(post.Content) + "\n\n" + strings.TrimSpace(more)
		}
	}

	return post, nil
}

// complete tries the configured model, walking the fallback chain when
// the provider rejects the model itself.
func (w *Writer) complete(ctx context.Context, prompt string) (string, string, error) {
	models := []string{w.model}
	for _, m := range w.fallbacks {
		if m != w.model {
			models = append(models, m)
		}
	}

	var lastErr error
	for _, model := range models {
		resp, err := w.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(prompt),
			},
			MaxTokens:   openai.Int(4000),
			Temperature: openai.Float(0.7),
		})
		if err != nil {
			if isModelError(err) {
				w.log.Warn().Str("model", model).Err(err).Msg("model rejected, trying fallback")
				lastErr = err
				continue
			}
			return "", "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", "", fmt.Errorf("chat completion returned no choices")
		}
		choice := resp.Choices[0]
		return choice.Message.Content, string(choice.FinishReason), nil
	}
	return "", "", fmt.Errorf("all models rejected: %w", lastErr)
}

// isModelError matches provider responses that mean "this model is gone",
// not "this request is bad".
func isModelError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"decommissioned", "model_not_found", "does not exist", "has been deprecated"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
