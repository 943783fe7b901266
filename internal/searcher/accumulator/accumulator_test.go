package accumulator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	m := NewMap()
	m.Add(5, 0.5)
	m.Add(1, 0.25)
	m.Add(5, 0.5)
	m.Add(3, 1)
	m.Erase(3)

	entries := m.Drain()
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{ID: 1, Score: 0.25}, entries[0])
	assert.Equal(t, Entry{ID: 5, Score: 1}, entries[1])
	assert.Empty(t, m)
}

func TestShardedConcurrentAdds(t *testing.T) {
	s := NewSharded(7)
	const workers, docs = 8, 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := 0; id < docs; id++ {
				s.Add(id, 1)
			}
		}()
	}
	wg.Wait()

	entries := s.Drain()
	require.Len(t, entries, docs)
	for i, e := range entries {
		assert.Equal(t, i, e.ID)
		assert.InDelta(t, workers, e.Score, 1e-9)
	}
	assert.Empty(t, s.Drain())
}

func TestShardedErase(t *testing.T) {
	s := NewSharded(3)
	for id := 0; id < 9; id++ {
		s.Add(id, float64(id))
	}
	s.Erase(4)
	s.Erase(100)

	entries := s.Drain()
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 5, 6, 7, 8}, ids)
}

func TestShardedMatchesMap(t *testing.T) {
	m := NewMap()
	for _, n := range []int{1, 2, 16, 100} {
		s := NewSharded(n)
		for id := 0; id < 50; id++ {
			s.Add(id*7, float64(id)/3)
			m.Add(id*7, float64(id)/3)
		}
		assert.Equal(t, m.Drain(), s.Drain(), "shards=%d", n)
	}
}

func TestNewShardedDefault(t *testing.T) {
	assert.Equal(t, DefaultShards, NewSharded(0).Shards())
}

func BenchmarkShardedAdd(b *testing.B) {
	s := NewSharded(DefaultShards)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		id := 0
		for pb.Next() {
			s.Add(id%1024, 0.1)
			id++
		}
	})
}
