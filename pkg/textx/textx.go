// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"
)

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	// strip control chars outside tab/newline/carriage return
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// CollapseSpaces folds runs of spaces and tabs into a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FirstName returns the first whitespace-delimited token of a full name, or
// the fallback when the name is empty.
func FirstName(name, fallback string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return fallback
	}
	return fields[0]
}

// Truncate cuts s to at most n runes, appending an ellipsis when trimmed.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
