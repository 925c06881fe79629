package blog

import (
	"strings"
	"testing"
	"unicode/utf8"

	"tubepost/internal/media"
)

func TestParsePostWellFormed(t *testing.T) {
	text := `TITLE: Ten Things About Go
DESCRIPTION: A tour of Go features you might have missed.
CONTENT:
## Introduction

Go is a small language.

## Details

More text here.`

	post := parsePost(text, nil)
	if post.Title != "Ten Things About Go" {
		t.Errorf("Title = %q", post.Title)
	}
	if post.Description != "A tour of Go features you might have missed." {
		t.Errorf("Description = %q", post.Description)
	}
	if !strings.HasPrefix(post.Content, "## Introduction") {
		t.Errorf("Content start = %q", post.Content[:40])
	}
	if !strings.Contains(post.Content, "More text here.") {
		t.Error("Content lost its tail")
	}
}

func TestParsePostMissingSectionsFallsBackToMetadata(t *testing.T) {
	info := &media.VideoInfo{Title: "Original Video Title"}
	post := parsePost("Just a wall of text. With two sentences.", info)

	if post.Title != "Original Video Title" {
		t.Errorf("Title = %q, want video title fallback", post.Title)
	}
	if post.Content != "Just a wall of text. With two sentences." {
		t.Errorf("Content = %q", post.Content)
	}
	if post.Description != "Just a wall of text." {
		t.Errorf("Description = %q, want first sentence", post.Description)
	}
}

func TestParsePostNoMetadataAtAll(t *testing.T) {
	post := parsePost("words", nil)
	if post.Title != "Untitled Post" {
		t.Errorf("Title = %q", post.Title)
	}
}

func TestFirstSentenceKeepsUTF8Valid(t *testing.T) {
	// No sentence terminator, forcing the length cut; every rune is
	// multi-byte so a byte-index slice would split one.
	long := strings.Repeat("日本語のテキスト", 50)
	got := firstSentence(long)

	if !utf8.ValidString(got) {
		t.Fatalf("truncated description is not valid UTF-8: %q", got)
	}
	if len(got) > 200 {
		t.Errorf("len = %d, want <= 200 bytes", len(got))
	}
	if !strings.HasPrefix(long, got) {
		t.Error("truncation altered the text instead of cutting it")
	}
}

func TestFirstSentenceStopsAtTerminator(t *testing.T) {
	if got := firstSentence("One. Two."); got != "One." {
		t.Errorf("got %q, want %q", got, "One.")
	}
}

func TestBuildPromptTruncatesTranscript(t *testing.T) {
	long := strings.Repeat("a", maxTranscriptChars+5000)
	prompt := buildPrompt(long, nil)
	if strings.Count(prompt, "a") > maxTranscriptChars+100 {
		t.Error("transcript was not truncated in the prompt")
	}
	if !strings.Contains(prompt, "TITLE:") {
		t.Error("prompt missing format instructions")
	}
}

func TestBuildPromptIncludesMetadata(t *testing.T) {
	info := &media.VideoInfo{Title: "My Video", Channel: "My Channel", Duration: 125}
	prompt := buildPrompt("transcript text", info)
	for _, want := range []string{"My Video", "My Channel", "2:05"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestIsModelError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"model llama-3.1-70b-versatile has been decommissioned", true},
		{"model_not_found: gpt-5", true},
		{"The model `foo` does not exist", true},
		{"429 rate limit exceeded", false},
		{"invalid api key", false},
	}
	for _, tt := range tests {
		if got := isModelError(errString(tt.msg)); got != tt.want {
			t.Errorf("isModelError(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }
