package tts

import (
	"regexp"
	"strings"
)

var (
	boldRe     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe   = regexp.MustCompile(`\*([^*]+)\*`)
	bulletRe   = regexp.MustCompile(`(?m)^\s*[+\-*•●▪‣◦]{1,3}\s+`)
	enumRe     = regexp.MustCompile(`(?m)^\s*(?:[0-9]{1,3}|[a-zA-Z])[.)\-]\s+`)
	loneSignRe = regexp.MustCompile(`(\s)[+\-](\s)`)
	newlinesRe = regexp.MustCompile(`\n+`)
	spacesRe   = regexp.MustCompile(`\s+`)
	dotsRe     = regexp.MustCompile(`(?:\.\s*){2,}`)
)

// Sanitize strips markdown and list formatting so engines don't read it aloud.
func Sanitize(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = bulletRe.ReplaceAllString(text, "")
	text = enumRe.ReplaceAllString(text, "")
	// Adjacent signs share a space, so run twice.
	text = loneSignRe.ReplaceAllString(text, "$1 $2")
	text = loneSignRe.ReplaceAllString(text, "$1 $2")
	text = newlinesRe.ReplaceAllString(text, ". ")
	text = spacesRe.ReplaceAllString(text, " ")
	text = dotsRe.ReplaceAllString(text, ". ")
	return strings.TrimSpace(text)
}
