// Package docstore keeps per-document metadata, the document → term → tf
// view of the index, and the ordered set of live document ids.
package docstore

import (
	"iter"

	"github.com/huandu/skiplist"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
)

// Store is not synchronized; the engine guards it with its own lock.
type Store struct {
	meta  map[int]document.Meta
	freqs map[int]map[string]float64
	ids   *skiplist.SkipList
}

func New() *Store {
	return &Store{
		meta:  make(map[int]document.Meta),
		freqs: make(map[int]map[string]float64),
		ids:   skiplist.New(skiplist.Int),
	}
}

// Put records a document. freqs is owned by the store afterwards.
func (s *Store) Put(id int, meta document.Meta, freqs map[string]float64) {
	s.meta[id] = meta
	s.freqs[id] = freqs
	s.ids.Set(id, struct{}{})
}

func (s *Store) Has(id int) bool {
	_, ok := s.meta[id]
	return ok
}

func (s *Store) Meta(id int) (document.Meta, bool) {
	m, ok := s.meta[id]
	return m, ok
}

// WordFrequencies returns the term → tf map of id, or nil when id is not
// live. The map is shared with the store.
func (s *Store) WordFrequencies(id int) map[string]float64 {
	return s.freqs[id]
}

// Terms returns the terms of id in no particular order.
func (s *Store) Terms(id int) []string {
	freqs := s.freqs[id]
	terms := make([]string, 0, len(freqs))
	for term := range freqs {
		terms = append(terms, term)
	}
	return terms
}

// Delete forgets id and reports whether it was live.
func (s *Store) Delete(id int) bool {
	if !s.Has(id) {
		return false
	}
	delete(s.meta, id)
	delete(s.freqs, id)
	s.ids.Remove(id)
	return true
}

func (s *Store) Len() int {
	return s.ids.Len()
}

// IDs returns the live ids in ascending order, captured at call time.
func (s *Store) IDs() []int {
	ids := make([]int, 0, s.ids.Len())
	for elem := s.ids.Front(); elem != nil; elem = elem.Next() {
		ids = append(ids, elem.Key().(int))
	}
	return ids
}

// All walks the live ids in ascending order. The store must not be mutated
// while the sequence is being consumed.
func (s *Store) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for elem := s.ids.Front(); elem != nil; elem = elem.Next() {
			if !yield(elem.Key().(int)) {
				return
			}
		}
	}
}
