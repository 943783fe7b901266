// Package accumulator sums per-document relevance during ranking. Sharded
// spreads documents over independently locked buckets so that per-term
// workers rarely contend.
package accumulator

import (
	"cmp"
	"slices"
	"sync"
)

// Entry is one accumulated document score.
type Entry struct {
	ID    int
	Score float64
}

// Accumulator is the contract shared by the plain and sharded variants.
type Accumulator interface {
	Add(id int, delta float64)
	Erase(id int)
	Drain() []Entry
}

// Map is the single-goroutine variant.
type Map map[int]float64

func NewMap() Map {
	return make(Map)
}

func (m Map) Add(id int, delta float64) {
	m[id] += delta
}

func (m Map) Erase(id int) {
	delete(m, id)
}

// Drain returns every entry sorted by id and empties the map.
func (m Map) Drain() []Entry {
	entries := make([]Entry, 0, len(m))
	for id, score := range m {
		entries = append(entries, Entry{ID: id, Score: score})
	}
	clear(m)
	sortByID(entries)
	return entries
}

type shard struct {
	mu     sync.Mutex
	scores map[int]float64
}

// Sharded buckets documents by id modulo the shard count. Each bucket has its
// own mutex; Add and Erase lock only the bucket of their id.
type Sharded struct {
	shards []shard
}

// DefaultShards is used when a non-positive shard count is requested.
const DefaultShards = 64

func NewSharded(n int) *Sharded {
	if n <= 0 {
		n = DefaultShards
	}
	s := &Sharded{shards: make([]shard, n)}
	for i := range s.shards {
		s.shards[i].scores = make(map[int]float64)
	}
	return s
}

func (s *Sharded) bucket(id int) *shard {
	return &s.shards[uint64(id)%uint64(len(s.shards))]
}

func (s *Sharded) Add(id int, delta float64) {
	b := s.bucket(id)
	b.mu.Lock()
	b.scores[id] += delta
	b.mu.Unlock()
}

func (s *Sharded) Erase(id int) {
	b := s.bucket(id)
	b.mu.Lock()
	delete(b.scores, id)
	b.mu.Unlock()
}

// Shards returns the number of buckets.
func (s *Sharded) Shards() int {
	return len(s.shards)
}

// Drain merges all buckets into one id-ordered slice, locking each bucket only
// while it is being emptied.
func (s *Sharded) Drain() []Entry {
	var entries []Entry
	for i := range s.shards {
		b := &s.shards[i]
		b.mu.Lock()
		for id, score := range b.scores {
			entries = append(entries, Entry{ID: id, Score: score})
		}
		clear(b.scores)
		b.mu.Unlock()
	}
	sortByID(entries)
	return entries
}

func sortByID(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.ID, b.ID)
	})
}
