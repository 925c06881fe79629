package blog

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"tubepost/internal/media"
)

var (
	titlePattern       = regexp.MustCompile(`(?m)^\s*TITLE:\s*(.+)$`)
	descriptionPattern = regexp.MustCompile(`(?m)^\s*DESCRIPTION:\s*(.+)$`)
	contentPattern     = regexp.MustCompile(`(?ms)^\s*CONTENT:\s*\n?(.*)\z`)
)

// parsePost extracts the TITLE / DESCRIPTION / CONTENT sections. Missing
// sections fall back to video metadata so a sloppy completion still yields
// a usable post.
func parsePost(text string, info *media.VideoInfo) *Post {
	post := &Post{}

	if m := titlePattern.FindStringSubmatch(text); len(m) == 2 {
		post.Title = strings.TrimSpace(m[1])
	}
	if m := descriptionPattern.FindStringSubmatch(text); len(m) == 2 {
		post.Description = strings.TrimSpace(m[1])
	}
	if m := contentPattern.FindStringSubmatch(text); len(m) == 2 {
		post.Content = strings.TrimSpace(m[1])
	}

	if post.Content == "" {
		post.Content = strings.TrimSpace(text)
	}
	if post.Title == "" && info != nil && info.Title != "" {
		post.Title = info.Title
	}
	if post.Title == "" {
		post.Title = "Untitled Post"
	}
	if post.Description == "" {
		post.Description = firstSentence(post.Content)
	}
	return post
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			return s[:i+1]
		}
		if i > 200 {
			break
		}
	}
	if len(s) > 200 {
		// Back up to a rune boundary so multi-byte text is not cut
		// mid-sequence.
		cut := 200
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut]
	}
	return s
}
