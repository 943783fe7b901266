// Package parser turns raw query text into a Query of plus and minus words,
// and owns the stop-word set and word validation rules shared with the
// indexer.
package parser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Query is a parsed query. Both lists are sorted ascending and hold no
// duplicates.
type Query struct {
	Plus  []string
	Minus []string
}

// Empty reports whether the query has no plus words. An empty query matches
// nothing.
func (q *Query) Empty() bool {
	return len(q.Plus) == 0
}

// Parser is immutable after construction and safe for concurrent use.
type Parser struct {
	stopWords map[string]struct{}
}

// New builds a Parser from a stop-word collection. Empty strings are skipped;
// a stop word holding a control character is rejected.
func New(stopWords []string) (*Parser, error) {
	p := &Parser{stopWords: make(map[string]struct{}, len(stopWords))}
	for _, w := range stopWords {
		if w == "" {
			continue
		}
		if !ValidWord(w) {
			return nil, fmt.Errorf("%w: stop word %q contains a control character",
				apperrors.ErrInvalidConfiguration, w)
		}
		p.stopWords[strings.Clone(w)] = struct{}{}
	}
	return p, nil
}

// NewFromText builds a Parser from space-separated stop words.
func NewFromText(stopWords string) (*Parser, error) {
	return New(tokenizer.Split(stopWords))
}

func (p *Parser) IsStopWord(word string) bool {
	_, ok := p.stopWords[word]
	return ok
}

// StopWords returns the stop words in ascending order.
func (p *Parser) StopWords() []string {
	words := make([]string, 0, len(p.stopWords))
	for w := range p.stopWords {
		words = append(words, w)
	}
	slices.Sort(words)
	return words
}

// ValidWord reports whether word holds no byte in the range 0x00..0x1F.
func ValidWord(word string) bool {
	for i := 0; i < len(word); i++ {
		if word[i] < ' ' {
			return false
		}
	}
	return true
}

// ContentWords splits document text into its non-stop words in order of
// appearance. Any word with a control character fails the whole text.
func (p *Parser) ContentWords(text string) ([]string, error) {
	words := make([]string, 0, 16)
	for w := range tokenizer.Words(text) {
		if !ValidWord(w) {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidWord, w)
		}
		if p.IsStopWord(w) {
			continue
		}
		words = append(words, w)
	}
	return words, nil
}

// Parse classifies each query word as plus or minus, drops stop words and
// normalizes both lists.
func (p *Parser) Parse(raw string) (*Query, error) {
	q := &Query{}
	for w := range tokenizer.Words(raw) {
		word, minus, err := parseWord(w)
		if err != nil {
			return nil, err
		}
		if p.IsStopWord(word) {
			continue
		}
		if minus {
			q.Minus = append(q.Minus, word)
		} else {
			q.Plus = append(q.Plus, word)
		}
	}
	q.Plus = normalize(q.Plus)
	q.Minus = normalize(q.Minus)
	return q, nil
}

func parseWord(w string) (word string, minus bool, err error) {
	word = w
	if strings.HasPrefix(word, "-") {
		minus = true
		word = word[1:]
	}
	switch {
	case word == "":
		return "", false, fmt.Errorf("%w: lone minus", apperrors.ErrInvalidQuery)
	case word[0] == '-':
		return "", false, fmt.Errorf("%w: %q has a double minus", apperrors.ErrInvalidQuery, w)
	case !ValidWord(word):
		return "", false, fmt.Errorf("%w: %q contains a control character", apperrors.ErrInvalidQuery, w)
	}
	return word, minus, nil
}

func normalize(words []string) []string {
	if len(words) == 0 {
		return nil
	}
	slices.Sort(words)
	return slices.Compact(words)
}
