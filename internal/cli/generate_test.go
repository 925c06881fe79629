package cli

import (
	"errors"
	"strings"
	"testing"

	"tubepost/internal/blog"
	"tubepost/internal/botcheck"
	"tubepost/internal/pipeline"
	"tubepost/internal/recovery"
)

func TestRenderMarkdown(t *testing.T) {
	result := &pipeline.Result{
		Post: &blog.Post{Title: "My Title", Description: "Short summary.", Content: "## Body\n\ntext"},
	}
	md := renderMarkdown(result)

	if !strings.HasPrefix(md, "# My Title\n") {
		t.Errorf("markdown start = %q", md[:20])
	}
	if !strings.Contains(md, "> Short summary.") {
		t.Error("description blockquote missing")
	}
	if !strings.Contains(md, "## Body") {
		t.Error("content missing")
	}
}

func TestRenderMarkdownWithoutDescription(t *testing.T) {
	md := renderMarkdown(&pipeline.Result{Post: &blog.Post{Title: "T", Content: "C"}})
	if strings.Contains(md, ">") {
		t.Errorf("unexpected blockquote: %q", md)
	}
}

func TestDescribeFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"bot challenge", &botcheck.BotDetectionError{URL: "https://youtu.be/x"}, "tubepost solve"},
		{"recovery exhausted", pipeline.ErrRecoveryExhausted, "did not stick"},
		{"browser missing", recovery.ErrBrowserUnavailable, "machine with Chrome"},
		{"passthrough", errors.New("some other failure"), "some other failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeFailure(tt.err)
			if !strings.Contains(got.Error(), tt.want) {
				t.Errorf("describeFailure(%v) = %q, want substring %q", tt.err, got, tt.want)
			}
		})
	}
}
