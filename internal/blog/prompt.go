package blog

import (
	"fmt"
	"strings"

	"tubepost/internal/media"
)

// maxTranscriptChars keeps the prompt inside the context window of the
// smaller Groq models.
const maxTranscriptChars = 12000

const systemPrompt = `You are a professional blog writer. You turn video transcripts into well-structured, engaging blog articles in markdown.`

func buildPrompt(transcript string, info *media.VideoInfo) string {
	if len(transcript) > maxTranscriptChars {
		transcript = transcript[:maxTranscriptChars]
	}

	var meta strings.Builder
	if info != nil {
		if info.Title != "" {
			fmt.Fprintf(&meta, "Video title: %s\n", info.Title)
		}
		if ch := info.ChannelName(); ch != "" {
			fmt.Fprintf(&meta, "Channel: %s\n", ch)
		}
		if info.Duration > 0 {
			fmt.Fprintf(&meta, "Duration: %s\n", info.FormattedDuration())
		}
	}

	return fmt.Sprintf(`Write a complete blog article based on this video transcript.

%s
Respond in EXACTLY this format:

TITLE: <a compelling article title>
DESCRIPTION: <a 1-2 sentence summary for previews and SEO>
CONTENT:
<the full article in markdown, with headings, covering all key points from the transcript>

Transcript:
%s`, meta.String(), transcript)
}

func continuationPrompt(content string) string {
	// Hand back the tail so the model picks up mid-thought.
	tail := content
	if len(tail) > 2000 {
		tail = tail[len(tail)-2000:]
	}
	return fmt.Sprintf(`Continue the following blog article from exactly where it stops. Do not repeat anything, do not add a preamble, just continue the text.

%s`, tail)
}
