// Package ranker scores documents against a parsed query with classic TF-IDF
// and returns the best matches.
package ranker

import (
	"cmp"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/accumulator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
)

const (
	// MaxResults caps every ranked result list.
	MaxResults = 5
	// RelevanceEpsilon is the largest relevance difference treated as a tie.
	RelevanceEpsilon = 1e-6
)

// Index is the read side of the inverted index used for scoring.
type Index interface {
	Postings(term string) index.Postings
	DocumentFrequency(term string) int
}

// Store resolves document metadata for predicate evaluation.
type Store interface {
	Meta(id int) (document.Meta, bool)
	Len() int
}

type Ranker struct {
	index  Index
	store  Store
	shards int
}

// New returns a Ranker over idx and store. shards sets the bucket count of the
// accumulator used under a parallel policy.
func New(idx Index, store Store, shards int) *Ranker {
	return &Ranker{index: idx, store: store, shards: shards}
}

// IDF returns ln(N / df) for term, or 0 when no document contains it.
func (r *Ranker) IDF(term string) float64 {
	df := r.index.DocumentFrequency(term)
	if df == 0 {
		return 0
	}
	return math.Log(float64(r.store.Len()) / float64(df))
}

// Rank scores every document holding a plus word and accepted by pred, drops
// documents holding any minus word, and returns at most MaxResults documents.
func (r *Ranker) Rank(policy executor.Policy, q *parser.Query, pred document.Predicate) []document.Document {
	if q.Empty() {
		return []document.Document{}
	}

	var acc accumulator.Accumulator
	if policy.Parallel() && len(q.Plus) > 1 {
		acc = accumulator.NewSharded(r.shards)
	} else {
		acc = accumulator.NewMap()
	}

	policy.Run(len(q.Plus), func(i int) {
		term := q.Plus[i]
		postings := r.index.Postings(term)
		if len(postings) == 0 {
			return
		}
		idf := r.IDF(term)
		for id, tf := range postings {
			meta, ok := r.store.Meta(id)
			if !ok || !pred(id, meta.Status, meta.Rating) {
				continue
			}
			acc.Add(id, tf*idf)
		}
	})

	vetoed := r.vetoSet(q.Minus)
	for it := vetoed.Iterator(); it.HasNext(); {
		acc.Erase(int(it.Next()))
	}

	entries := acc.Drain()
	results := make([]document.Document, 0, len(entries))
	for _, e := range entries {
		meta, _ := r.store.Meta(e.ID)
		results = append(results, document.Document{
			ID:        e.ID,
			Relevance: e.Score,
			Rating:    meta.Rating,
		})
	}

	Sort(results)
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results
}

// vetoSet collects every document holding a minus word.
func (r *Ranker) vetoSet(minus []string) *roaring64.Bitmap {
	vetoed := roaring64.New()
	for _, term := range minus {
		for id := range r.index.Postings(term) {
			vetoed.Add(uint64(id))
		}
	}
	return vetoed
}

// Sort orders docs by relevance descending, breaking near-ties by rating
// descending. Remaining ties keep their input order.
func Sort(docs []document.Document) {
	slices.SortStableFunc(docs, Compare)
}

// Compare is the ordering used by Sort.
func Compare(a, b document.Document) int {
	if math.Abs(a.Relevance-b.Relevance) < RelevanceEpsilon {
		return cmp.Compare(b.Rating, a.Rating)
	}
	return cmp.Compare(b.Relevance, a.Relevance)
}
