package docstore

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
)

func TestPutAndLookup(t *testing.T) {
	s := New()
	s.Put(7, document.Meta{Rating: 3, Status: document.StatusBanned}, map[string]float64{"cat": 1})

	require.True(t, s.Has(7))
	meta, ok := s.Meta(7)
	require.True(t, ok)
	assert.Equal(t, 3, meta.Rating)
	assert.Equal(t, document.StatusBanned, meta.Status)
	assert.Equal(t, map[string]float64{"cat": 1}, s.WordFrequencies(7))
	assert.Equal(t, []string{"cat"}, s.Terms(7))

	assert.False(t, s.Has(8))
	assert.Nil(t, s.WordFrequencies(8))
}

func TestIDsAscending(t *testing.T) {
	s := New()
	for _, id := range []int{42, 3, 17, 0, 8} {
		s.Put(id, document.Meta{}, map[string]float64{})
	}
	assert.Equal(t, []int{0, 3, 8, 17, 42}, s.IDs())
	assert.Equal(t, []int{0, 3, 8, 17, 42}, slices.Collect(s.All()))
	assert.Equal(t, 5, s.Len())
}

func TestDelete(t *testing.T) {
	s := New()
	s.Put(1, document.Meta{}, map[string]float64{"a": 1})
	s.Put(2, document.Meta{}, map[string]float64{"b": 1})

	assert.True(t, s.Delete(1))
	assert.False(t, s.Delete(1))
	assert.Equal(t, []int{2}, s.IDs())
	assert.False(t, s.Has(1))
	assert.Nil(t, s.WordFrequencies(1))
	assert.Equal(t, 1, s.Len())
}

func TestAllStopsEarly(t *testing.T) {
	s := New()
	for id := range 10 {
		s.Put(id, document.Meta{}, nil)
	}
	var got []int
	for id := range s.All() {
		if id == 3 {
			break
		}
		got = append(got, id)
	}
	assert.Equal(t, []int{0, 1, 2}, got)
}
