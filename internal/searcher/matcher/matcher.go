// Package matcher reports which query words occur in a single document.
package matcher

import (
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
)

// Match returns the plus words of q present in freqs, in the query's sorted
// order. If any minus word is present the result is empty.
func Match(policy executor.Policy, q *parser.Query, freqs map[string]float64) []string {
	var vetoed atomic.Bool
	policy.Run(len(q.Minus), func(i int) {
		if vetoed.Load() {
			return
		}
		if _, ok := freqs[q.Minus[i]]; ok {
			vetoed.Store(true)
		}
	})
	if vetoed.Load() {
		return []string{}
	}

	hits := make([]bool, len(q.Plus))
	policy.Run(len(q.Plus), func(i int) {
		_, hits[i] = freqs[q.Plus[i]]
	})
	matched := make([]string, 0, len(q.Plus))
	for i, hit := range hits {
		if hit {
			matched = append(matched, q.Plus[i])
		}
	}
	return matched
}
