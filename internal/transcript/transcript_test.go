package transcript

import (
	"errors"
	"testing"

	"tubepost/internal/botcheck"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://example.com/watch?v=dQw4w9WgXcQ", ""},
		{"https://www.youtube.com/watch?v=tooshort", ""},
		{"not a url", ""},
	}
	for _, tt := range tests {
		if got := ExtractVideoID(tt.url); got != tt.want {
			t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestPickTrack(t *testing.T) {
	manual := func(lang string) captionTrack {
		return captionTrack{BaseURL: "https://yt/timedtext?lang=" + lang, LanguageCode: lang}
	}
	asr := func(lang string) captionTrack {
		return captionTrack{BaseURL: "https://yt/timedtext?lang=" + lang + "&kind=asr", LanguageCode: lang, Kind: "asr"}
	}
	gated := captionTrack{BaseURL: "https://yt/timedtext?lang=en&exp=xpe&more", LanguageCode: "en"}
	langs := []string{"en", "en-US", "en-GB"}

	t.Run("manual english beats asr english", func(t *testing.T) {
		got := pickTrack([]captionTrack{asr("en"), manual("en")}, langs)
		if got == nil || got.Kind == "asr" {
			t.Fatalf("got %+v, want manual en", got)
		}
	})

	t.Run("manual foreign beats asr english", func(t *testing.T) {
		got := pickTrack([]captionTrack{asr("en"), manual("de")}, langs)
		if got == nil || got.LanguageCode != "de" {
			t.Fatalf("got %+v, want manual de", got)
		}
	})

	t.Run("preferred language order breaks ties", func(t *testing.T) {
		got := pickTrack([]captionTrack{manual("en-GB"), manual("en")}, langs)
		if got == nil || got.LanguageCode != "en" {
			t.Fatalf("got %+v, want en", got)
		}
	})

	t.Run("gated tracks are skipped", func(t *testing.T) {
		got := pickTrack([]captionTrack{gated, asr("fr")}, langs)
		if got == nil || got.LanguageCode != "fr" {
			t.Fatalf("got %+v, want asr fr", got)
		}
	})

	t.Run("all tracks gated", func(t *testing.T) {
		if got := pickTrack([]captionTrack{gated}, langs); got != nil {
			t.Fatalf("got %+v, want nil", got)
		}
	})
}

func TestFlattenTimedText(t *testing.T) {
	xmlBody := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">Hello &amp;amp; welcome</text>
  <text start="2.5" dur="3.1">to the &lt;i&gt;show&lt;/i&gt;
everyone</text>
  <text start="5.6" dur="1.0">   </text>
</transcript>`)

	got, err := flattenTimedText(xmlBody)
	if err != nil {
		t.Fatalf("flattenTimedText: %v", err)
	}
	want := "Hello & welcome to the show everyone"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClassifyPlayability(t *testing.T) {
	t.Run("challenge reason yields bot detection", func(t *testing.T) {
		err := classifyPlayability("LOGIN_REQUIRED", "Sign in to confirm you're not a bot", "dQw4w9WgXcQ")
		var botErr *botcheck.BotDetectionError
		if !errors.As(err, &botErr) {
			t.Fatalf("got %v, want BotDetectionError", err)
		}
		if botErr.URL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
			t.Errorf("URL = %q", botErr.URL)
		}
		if errors.Is(err, ErrNoTranscript) {
			t.Error("challenge must not be reported as a missing transcript")
		}
	})

	t.Run("age-restricted sign-in yields bot detection", func(t *testing.T) {
		err := classifyPlayability("LOGIN_REQUIRED", "Sign in to confirm your age", "dQw4w9WgXcQ")
		var botErr *botcheck.BotDetectionError
		if !errors.As(err, &botErr) {
			t.Fatalf("got %v, want BotDetectionError", err)
		}
	})

	t.Run("plain unplayable yields no-transcript", func(t *testing.T) {
		err := classifyPlayability("UNPLAYABLE", "This video is private", "dQw4w9WgXcQ")
		if !errors.Is(err, ErrNoTranscript) {
			t.Fatalf("got %v, want ErrNoTranscript", err)
		}
		var botErr *botcheck.BotDetectionError
		if errors.As(err, &botErr) {
			t.Error("private video misclassified as bot challenge")
		}
	})
}

func TestFlattenTimedTextRejectsNonXML(t *testing.T) {
	if _, err := flattenTimedText([]byte("not xml at all")); err == nil {
		t.Fatal("expected parse error")
	}
}
