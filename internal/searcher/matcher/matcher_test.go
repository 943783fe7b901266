package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
)

func TestMatch(t *testing.T) {
	p, err := parser.NewFromText("and with")
	require.NoError(t, err)
	pool, err := executor.NewPool(3)
	require.NoError(t, err)
	defer pool.Release()

	freqs := map[string]float64{"fluffy": 0.25, "cat": 0.25, "fancy": 0.25, "collar": 0.25}

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"some plus words", "fluffy dog collar", []string{"collar", "fluffy"}},
		{"no plus words present", "dog rat", []string{}},
		{"minus veto", "fluffy cat -collar", []string{}},
		{"absent minus ignored", "cat -dog", []string{"cat"}},
		{"stop words ignored", "cat and with", []string{"cat"}},
	}
	for _, policy := range []executor.Policy{executor.Sequential, pool} {
		for _, tt := range tests {
			t.Run(policy.Name()+"/"+tt.name, func(t *testing.T) {
				q, err := p.Parse(tt.raw)
				require.NoError(t, err)
				assert.Equal(t, tt.want, Match(policy, q, freqs))
			})
		}
	}
}

func TestMatchEmptyDocument(t *testing.T) {
	q := &parser.Query{Plus: []string{"cat"}}
	assert.Equal(t, []string{}, Match(executor.Sequential, q, nil))
}
