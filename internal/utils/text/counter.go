// Package text provides small helpers for sizing scripts and prompts.
package text

import (
	"strings"
	"unicode/utf8"
)

// SpokenWordsPerMinute is the narration pace used to size episodes.
const SpokenWordsPerMinute = 150

// CountRunes counts Unicode characters rather than bytes.
func CountRunes(s string) int {
	return utf8.RuneCountInString(s)
}

// CountWords counts whitespace-separated words.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// WordsForMinutes returns the approximate word budget for a spoken episode of the given length.
// Non-positive minutes are treated as one minute.
func WordsForMinutes(minutes int) int {
	if minutes < 1 {
		minutes = 1
	}
	return minutes * SpokenWordsPerMinute
}

// Truncate shortens s to at most max runes, appending suffix when it cuts.
// The result never splits a multi-byte character.
func Truncate(s string, max int, suffix string) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	keep := max - utf8.RuneCountInString(suffix)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return string(runes[:keep]) + suffix
}
