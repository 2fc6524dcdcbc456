// Package utils provides shared utilities for text and logging.
package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, drops combining marks, and recomposes.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText canonicalizes raw text for matching: lowercase, accents
// stripped, whitespace runs collapsed to single spaces, trimmed. Idempotent,
// so "Drône" and "drone" normalize identically.
func NormalizeText(raw string) string {
	lowered := strings.ToLower(raw)
	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		// transform only fails on malformed input; fall back to the lowered form
		stripped = lowered
	}
	return strings.Join(strings.Fields(stripped), " ")
}

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
