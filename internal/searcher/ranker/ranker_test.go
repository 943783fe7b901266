package ranker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
)

type fixtureDoc struct {
	id     int
	text   string
	status document.Status
	rating int
}

func buildFixture(t testing.TB, docs []fixtureDoc) (*index.InvertedIndex, *docstore.Store) {
	t.Helper()
	idx := index.New()
	store := docstore.New()
	for _, d := range docs {
		words := strings.Fields(d.text)
		freqs := make(map[string]float64)
		for _, w := range words {
			tf := 1 / float64(len(words))
			freqs[w] += tf
			idx.Add(w, d.id, tf)
		}
		store.Put(d.id, document.Meta{Rating: d.rating, Status: d.status}, freqs)
	}
	return idx, store
}

func parse(t testing.TB, raw string) *parser.Query {
	t.Helper()
	p, err := parser.New(nil)
	require.NoError(t, err)
	q, err := p.Parse(raw)
	require.NoError(t, err)
	return q
}

func policies(t *testing.T) map[string]executor.Policy {
	pool, err := executor.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return map[string]executor.Policy{
		"sequential": executor.Sequential,
		"parallel":   pool,
	}
}

var cityDocs = []fixtureDoc{
	{1, "cat in the city", document.StatusActual, 1},
	{2, "fat of the city", document.StatusActual, 2},
	{3, "fat of the country", document.StatusActual, 3},
}

func TestRankTFIDF(t *testing.T) {
	idx, store := buildFixture(t, cityDocs)
	r := New(idx, store, 4)

	for name, policy := range policies(t) {
		t.Run(name, func(t *testing.T) {
			got := r.Rank(policy, parse(t, "the fat country"), document.WithStatus(document.StatusActual))
			require.Len(t, got, 3)
			assert.Equal(t, 3, got[0].ID)
			assert.InDelta(t, 0.376019, got[0].Relevance, 1e-6)
			assert.Equal(t, 2, got[1].ID)
			assert.InDelta(t, 0.101366, got[1].Relevance, 1e-6)
			assert.Equal(t, 1, got[2].ID)
			assert.InDelta(t, 0, got[2].Relevance, 1e-12)
		})
	}
}

func TestRankMinusWordsVeto(t *testing.T) {
	idx, store := buildFixture(t, cityDocs)
	r := New(idx, store, 4)

	got := r.Rank(executor.Sequential, parse(t, "fat -city"), document.WithStatus(document.StatusActual))
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ID)

	got = r.Rank(executor.Sequential, parse(t, "fat -the"), document.WithStatus(document.StatusActual))
	assert.Empty(t, got)
}

func TestRankMinusWordsVetoAcrossPolicies(t *testing.T) {
	idx, store := buildFixture(t, cityDocs)
	r := New(idx, store, 2)

	for name, policy := range policies(t) {
		t.Run(name, func(t *testing.T) {
			got := r.Rank(policy, parse(t, "fat city cat -country -cat -dog"), document.WithStatus(document.StatusActual))
			require.Len(t, got, 1)
			assert.Equal(t, 2, got[0].ID)
			assert.Greater(t, got[0].Relevance, 0.0)
		})
	}
}

func TestRankEmptyQuery(t *testing.T) {
	idx, store := buildFixture(t, cityDocs)
	r := New(idx, store, 4)
	got := r.Rank(executor.Sequential, parse(t, "-cat"), document.WithStatus(document.StatusActual))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRankPredicate(t *testing.T) {
	docs := []fixtureDoc{
		{0, "white cat", document.StatusActual, 8},
		{1, "fluffy cat", document.StatusBanned, 5},
		{2, "groomed dog", document.StatusActual, -1},
		{3, "groomed starling", document.StatusIrrelevant, 9},
	}
	idx, store := buildFixture(t, docs)
	r := New(idx, store, 2)

	got := r.Rank(executor.Sequential, parse(t, "cat"), document.WithStatus(document.StatusBanned))
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)

	even := func(id int, _ document.Status, _ int) bool { return id%2 == 0 }
	got = r.Rank(executor.Sequential, parse(t, "cat groomed"), even)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []int{0, 2}, []int{got[0].ID, got[1].ID})
}

func TestRankTruncatesAndBreaksTiesByRating(t *testing.T) {
	var docs []fixtureDoc
	for id := 0; id < 8; id++ {
		docs = append(docs, fixtureDoc{id, "cat", document.StatusActual, id})
	}
	docs = append(docs, fixtureDoc{100, "dog", document.StatusActual, 0})
	idx, store := buildFixture(t, docs)
	r := New(idx, store, 3)

	for name, policy := range policies(t) {
		t.Run(name, func(t *testing.T) {
			got := r.Rank(policy, parse(t, "cat"), document.WithStatus(document.StatusActual))
			require.Len(t, got, MaxResults)
			for i, d := range got {
				assert.Equal(t, 7-i, d.ID)
				assert.Equal(t, 7-i, d.Rating)
			}
		})
	}
}

func TestRankDeterministicAcrossPolicies(t *testing.T) {
	var docs []fixtureDoc
	words := []string{"alpha", "beta", "gamma", "delta", "eps"}
	for id := 0; id < 60; id++ {
		text := fmt.Sprintf("%s %s %s", words[id%5], words[(id*3)%5], words[(id/5)%5])
		docs = append(docs, fixtureDoc{id, text, document.StatusActual, id % 3})
	}
	idx, store := buildFixture(t, docs)
	r := New(idx, store, 5)
	pool, err := executor.NewPool(8)
	require.NoError(t, err)
	defer pool.Release()

	q := parse(t, "alpha gamma eps -delta")
	pred := document.WithStatus(document.StatusActual)
	want := r.Rank(executor.Sequential, q, pred)
	require.NotEmpty(t, want)
	for range 20 {
		got := r.Rank(pool, q, pred)
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].ID, got[i].ID)
			assert.InDelta(t, want[i].Relevance, got[i].Relevance, 1e-12)
		}
	}
}

func TestCompare(t *testing.T) {
	a := document.Document{ID: 1, Relevance: 0.5, Rating: 1}
	b := document.Document{ID: 2, Relevance: 0.5 + RelevanceEpsilon/2, Rating: 9}
	c := document.Document{ID: 3, Relevance: 0.9, Rating: 0}

	assert.Positive(t, Compare(a, b))
	assert.Negative(t, Compare(c, b))
	assert.Zero(t, Compare(a, a))

	docs := []document.Document{a, b, c}
	Sort(docs)
	assert.Equal(t, []int{3, 2, 1}, []int{docs[0].ID, docs[1].ID, docs[2].ID})
}

func TestIDF(t *testing.T) {
	idx, store := buildFixture(t, cityDocs)
	r := New(idx, store, 1)
	assert.InDelta(t, 0, r.IDF("the"), 1e-12)
	assert.InDelta(t, 1.0986122886681098, r.IDF("cat"), 1e-12)
	assert.Zero(t, r.IDF("unicorn"))
}

func BenchmarkRank(b *testing.B) {
	var docs []fixtureDoc
	vocab := []string{"search", "index", "query", "shard", "term", "score", "rank", "doc"}
	for id := 0; id < 5000; id++ {
		text := fmt.Sprintf("%s %s %s %s", vocab[id%8], vocab[(id/8)%8], vocab[(id*7)%8], vocab[(id/3)%8])
		docs = append(docs, fixtureDoc{id, text, document.StatusActual, id % 10})
	}
	idx, store := buildFixture(b, docs)
	r := New(idx, store, 64)
	q := parse(b, "search query rank -doc")
	pred := document.WithStatus(document.StatusActual)
	pool, _ := executor.NewPool(8)
	defer pool.Release()

	b.Run("sequential", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			r.Rank(executor.Sequential, q, pred)
		}
	})
	b.Run("parallel", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			r.Rank(pool, q, pred)
		}
	})
}
