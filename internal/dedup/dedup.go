// Package dedup removes documents whose set of distinct words matches a
// document with a lower id.
package dedup

import (
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
)

// Engine is the subset of *indexer.Engine the detector uses.
type Engine interface {
	IDs() iter.Seq[int]
	GetWordFrequencies(id int) map[string]float64
	RemoveDocument(id int, opts ...indexer.CallOption) error
}

// Find returns the ids of documents that duplicate an earlier one, in
// ascending order, without modifying the engine. Word counts and order do not
// matter, only which words occur.
func Find(e Engine) []int {
	seen := make(map[string]struct{})
	var dups []int
	for id := range e.IDs() {
		key := termSetKey(e.GetWordFrequencies(id))
		if _, ok := seen[key]; ok {
			dups = append(dups, id)
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// RemoveDuplicates removes every duplicate reported by Find, keeping the
// lowest id of each group, and returns the removed ids.
func RemoveDuplicates(e Engine, opts ...indexer.CallOption) ([]int, error) {
	logger := slog.Default().With("component", "dedup")
	dups := Find(e)
	for _, id := range dups {
		logger.Info("found duplicate document", "doc_id", id)
		if err := e.RemoveDocument(id, opts...); err != nil {
			return nil, fmt.Errorf("removing duplicate %d: %w", id, err)
		}
	}
	return dups, nil
}

func termSetKey(freqs map[string]float64) string {
	// Words never contain spaces, so a space is a safe separator.
	return strings.Join(slices.Sorted(maps.Keys(freqs)), " ")
}
