// Package sanitizer normalizes free-text input before validation and
// storage. All functions are idempotent.
package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeCity(city string) string {
	return TrimAndNormalize(city)
}

// NormalizeDay lowercases a weekday name ("Friday" -> "friday").
func NormalizeDay(day string) string {
	return strings.ToLower(strings.TrimSpace(day))
}

var reRegexMeta = regexp.MustCompile(`[\\.+*?()|\[\]{}^$]`)

// EscapeRegex neutralizes regex metacharacters in user-supplied search
// terms before they reach a $regex filter. Unescaped input allows
// catastrophic backtracking patterns.
func EscapeRegex(s string) string {
	return reRegexMeta.ReplaceAllString(s, `\$0`)
}
