// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText applies NFKC normalization, drops control characters and collapses whitespace.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most maxRunes runes, appending "..." when it cut anything.
// maxRunes <= 0 leaves s unchanged.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:maxRunes]), unicode.IsSpace) + "..."
}
