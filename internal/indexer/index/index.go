// Package index holds the term → document → term-frequency map. The index has
// no lock of its own: the engine owns synchronization. The only concurrent
// mutation it supports is RemovePosting on distinct terms, which touches
// nothing but that term's inner map.
package index

import "maps"

// Postings maps a document id to the term frequency of one term in it.
type Postings map[int]float64

type InvertedIndex struct {
	terms map[string]Postings
}

func New() *InvertedIndex {
	return &InvertedIndex{terms: make(map[string]Postings)}
}

// Add accumulates tf for (term, docID), creating the posting list on demand.
func (x *InvertedIndex) Add(term string, docID int, tf float64) {
	postings, ok := x.terms[term]
	if !ok {
		postings = make(Postings)
		x.terms[term] = postings
	}
	postings[docID] += tf
}

// Postings returns the posting list of term, or nil for an unknown term. The
// returned map is shared with the index and must not be mutated.
func (x *InvertedIndex) Postings(term string) Postings {
	return x.terms[term]
}

// DocumentFrequency returns how many documents contain term.
func (x *InvertedIndex) DocumentFrequency(term string) int {
	return len(x.terms[term])
}

// RemovePosting deletes docID from the posting list of term. Calls for
// distinct terms may run concurrently; the outer map is only read.
func (x *InvertedIndex) RemovePosting(term string, docID int) {
	if postings, ok := x.terms[term]; ok {
		delete(postings, docID)
	}
}

// Prune drops the posting lists of terms that became empty.
func (x *InvertedIndex) Prune(terms []string) {
	for _, term := range terms {
		if postings, ok := x.terms[term]; ok && len(postings) == 0 {
			delete(x.terms, term)
		}
	}
}

// Remove deletes docID from the posting lists of the given terms and prunes
// the ones left empty.
func (x *InvertedIndex) Remove(docID int, terms []string) {
	for _, term := range terms {
		x.RemovePosting(term, docID)
	}
	x.Prune(terms)
}

// Terms returns the number of distinct terms with a non-empty posting list.
func (x *InvertedIndex) Terms() int {
	return len(x.terms)
}

// Snapshot copies the posting list of term.
func (x *InvertedIndex) Snapshot(term string) Postings {
	return maps.Clone(x.terms[term])
}
