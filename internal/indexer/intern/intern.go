// Package intern owns the canonical storage of every word the engine has
// indexed. Terms are never released: the pool only grows with the number of
// distinct words seen, not with document churn.
package intern

import "strings"

// Pool maps word text to its canonical string. It is not safe for concurrent
// mutation; the owning engine serializes Intern calls under its write lock.
type Pool struct {
	terms map[string]string
	bytes int
}

func New() *Pool {
	return &Pool{terms: make(map[string]string)}
}

// Intern returns the canonical copy of word, storing a fresh copy on first
// sight so the caller's buffer is never retained.
func (p *Pool) Intern(word string) string {
	if term, ok := p.terms[word]; ok {
		return term
	}
	term := strings.Clone(word)
	p.terms[term] = term
	p.bytes += len(term)
	return term
}

// Lookup returns the canonical copy of word if it has been interned.
func (p *Pool) Lookup(word string) (string, bool) {
	term, ok := p.terms[word]
	return term, ok
}

// Len returns the number of distinct terms.
func (p *Pool) Len() int {
	return len(p.terms)
}

// Bytes returns the total size of the stored term text.
func (p *Pool) Bytes() int {
	return p.bytes
}
