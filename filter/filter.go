// Package filter classifies message text against a denylist of words
package filter

import (
	"strings"
)

// punctuation is the ASCII punctuation set
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Filter holds a normalized denylist
type Filter struct {
	words []string
}

// New returns a Filter for the given denylist. Entries are normalized the same way as
// inspected text and empty entries are ignored
func New(words []string) (f *Filter) {
	f = new(Filter)
	for _, w := range words {
		if n := Normalize(w); n != "" {
			f.words = append(f.words, n)
		}
	}

	return f
}

// Normalize lower-cases text and strips every ASCII punctuation character
func Normalize(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 && strings.ContainsRune(punctuation, r) {
			return -1
		}

		return r
	}, strings.ToLower(text))
}

// IsViolating returns true if any denylist word is a substring of the normalized text
func (f *Filter) IsViolating(text string) bool {
	if text == "" {
		return false
	}

	normalized := Normalize(text)
	for _, w := range f.words {
		if strings.Contains(normalized, w) {
			return true
		}
	}

	return false
}

// Words returns a copy of the normalized denylist
func (f *Filter) Words() []string {
	return append([]string(nil), f.words...)
}
