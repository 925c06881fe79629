package blog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tubepost/internal/config"
	"tubepost/internal/media"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatResponse(content, finishReason string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "test",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": finishReason,
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	}
}

func newTestWriter(t *testing.T, handler http.HandlerFunc) *Writer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		handler(rw, r)
	}))
	t.Cleanup(srv.Close)

	w, err := NewWriter(config.BlogConfig{
		Provider: "groq",
		Model:    "llama-3.3-70b-versatile",
		APIKey:   "test-key",
		BaseURL:  srv.URL,
	}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestComposeParsesSections(t *testing.T) {
	w := newTestWriter(t, func(rw http.ResponseWriter, r *http.Request) {
		json.NewEncoder(rw).Encode(chatResponse(
			"TITLE: Generated Title\nDESCRIPTION: Generated description.\nCONTENT:\nBody text.", "stop"))
	})

	post, err := w.Compose(t.Context(), "the transcript", &media.VideoInfo{Title: "Video"})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if post.Title != "Generated Title" || post.Description != "Generated description." || post.Content != "Body text." {
		t.Errorf("post = %+v", post)
	}
}

func TestComposeContinuationOnLength(t *testing.T) {
	calls := 0
	w := newTestWriter(t, func(rw http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			json.NewEncoder(rw).Encode(chatResponse(
				"TITLE: T\nDESCRIPTION: D\nCONTENT:\nFirst half", "length"))
			return
		}
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !strings.Contains(req.Messages[len(req.Messages)-1].Content, "First half") {
			t.Errorf("continuation prompt missing prior content tail")
		}
		json.NewEncoder(rw).Encode(chatResponse("second half.", "stop"))
	})

	post, err := w.Compose(t.Context(), "transcript", nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (initial + one continuation)", calls)
	}
	if !strings.Contains(post.Content, "First half") || !strings.Contains(post.Content, "second half.") {
		t.Errorf("content = %q", post.Content)
	}
}

func TestComposeModelFallback(t *testing.T) {
	var models []string
	w := newTestWriter(t, func(rw http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		models = append(models, req.Model)
		if req.Model == "llama-3.3-70b-versatile" {
			rw.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(rw).Encode(map[string]any{
				"error": map[string]any{"message": "model llama-3.3-70b-versatile has been decommissioned", "type": "invalid_request_error"},
			})
			return
		}
		json.NewEncoder(rw).Encode(chatResponse("TITLE: T\nDESCRIPTION: D\nCONTENT:\nok", "stop"))
	})

	post, err := w.Compose(t.Context(), "transcript", nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if post.Content != "ok" {
		t.Errorf("content = %q", post.Content)
	}
	if len(models) < 2 || models[1] != "llama-3.1-8b-instant" {
		t.Errorf("model sequence = %v, want fallback to llama-3.1-8b-instant", models)
	}
}

func TestNewWriterRequiresKey(t *testing.T) {
	if _, err := NewWriter(config.BlogConfig{Provider: "groq"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error without API key")
	}
}
