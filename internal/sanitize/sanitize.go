// Package sanitize is the content-safety boundary consumed by the room:
// a pure Sanitize(text) function and an IsSuspicious(text) detector.
// It holds no state and performs no I/O.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxTextLength caps sanitized output, counted in runes.
const MaxTextLength = 500

var (
	htmlTagRegex     = regexp.MustCompile(`<[^>]*>`)
	controlCharRegex = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

	suspiciousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<\s*script`),
		regexp.MustCompile(`(?i)<\s*(iframe|object|embed)`),
		regexp.MustCompile(`(?i)\bon\w+\s*=`),
		regexp.MustCompile(`(?i)javascript\s*:`),
		regexp.MustCompile(`(?i)data\s*:\s*text/html`),
	}
)

// Sanitize strips HTML tags and control characters from text and trims the
// result. Tag removal is applied until the text stops changing, so nested
// fragments like "<scr<x>ipt>" cannot reassemble into a tag and the function
// is idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string) string {
	for {
		stripped := htmlTagRegex.ReplaceAllString(text, "")
		if stripped == text {
			break
		}
		text = stripped
	}

	text = controlCharRegex.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if utf8.RuneCountInString(text) > MaxTextLength {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[:MaxTextLength]))
	}

	return text
}

// IsSuspicious reports whether raw text looks like an injection attempt:
// script/iframe tags, inline event handlers, javascript: or data:text/html
// URLs. Run against the raw input, before Sanitize.
func IsSuspicious(text string) bool {
	for _, p := range suspiciousPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
