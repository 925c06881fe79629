// Package botcheck classifies tool output as a YouTube bot challenge.
//
// Classification is deliberately narrow: only full known challenge phrases
// match. A false positive sends a human to a browser for nothing, so loose
// single-word heuristics are off the table.
package botcheck

import (
	"fmt"
	"strings"
)

// signatures are the challenge phrases YouTube embeds in player error
// messages and yt-dlp surfaces on stderr. Compared case-insensitively
// after apostrophe normalization.
var signatures = []string{
	"sign in to confirm you're not a bot",
	"sign in to confirm you are not a bot",
	"sign in to confirm your age",
	"confirm you're not a robot",
	"verify you're not a robot",
	"this helps protect our community",
}

// IsChallenge reports whether the output contains a known bot-challenge
// signature.
func IsChallenge(output string) bool {
	normalized := normalize(output)
	for _, sig := range signatures {
		if strings.Contains(normalized, sig) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "’", "'")
	return strings.ToLower(s)
}

// BotDetectionError marks a failure caused by a bot challenge rather than
// a broken video or network fault. Callers match it with errors.As and may
// run the cookie recovery flow before retrying.
type BotDetectionError struct {
	URL    string
	Output string
}

func (e *BotDetectionError) Error() string {
	return fmt.Sprintf("bot challenge detected for %s", e.URL)
}
