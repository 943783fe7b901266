// Package tokenizer splits raw document and query text into words. Only the
// ASCII space separates words; tabs, newlines and every other byte are part
// of a word. No case folding or stemming is applied.
package tokenizer

import (
	"iter"
	"strings"
)

const separator = ' '

// Words returns a lazy sequence of the non-empty space-delimited substrings of
// text. Leading, trailing and repeated spaces are skipped. The sequence can be
// ranged over any number of times.
func Words(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := text
		for {
			rest = strings.TrimLeft(rest, " ")
			if rest == "" {
				return
			}
			end := strings.IndexByte(rest, separator)
			if end < 0 {
				yield(rest)
				return
			}
			if !yield(rest[:end]) {
				return
			}
			rest = rest[end+1:]
		}
	}
}

// Split collects every word of text into a slice.
func Split(text string) []string {
	words := make([]string, 0, strings.Count(text, " ")+1)
	for w := range Words(text) {
		words = append(words, w)
	}
	return words
}

// Count returns the number of words in text without allocating them.
func Count(text string) int {
	n := 0
	for range Words(text) {
		n++
	}
	return n
}
