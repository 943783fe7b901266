package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"
)

var defaultLoadQueries = []string{
	"fluffy cat",
	"groomed dog -collar",
	"white cat fashionable collar",
	"expressive eyes",
	"funny pet nasty rat",
	"curly hair -rat",
	"starling eugene",
}

type loadConfig struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Queries     []string
	Policy      string
}

type loadStats struct {
	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
	codes     map[int]int64
}

func newLoadStats() *loadStats {
	return &loadStats{
		latencies: make([]time.Duration, 0, 1024),
		codes:     make(map[int]int64),
	}
}

func (s *loadStats) record(d time.Duration, code int, err error) {
	s.total.Add(1)
	if err != nil {
		s.failed.Add(1)
		return
	}
	if code >= 200 && code < 300 {
		s.succeeded.Add(1)
	} else {
		s.failed.Add(1)
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.codes[code]++
	s.mu.Unlock()
}

func loadtestCommand(c *cli.Context) error {
	cfg := loadConfig{
		BaseURL:     c.String("url"),
		Concurrency: c.Int("concurrency"),
		Duration:    c.Duration("duration"),
		Queries:     c.StringSlice("query"),
		Policy:      c.String("policy"),
	}
	if len(cfg.Queries) == 0 {
		cfg.Queries = defaultLoadQueries
	}
	if cfg.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}

	out := c.App.Writer
	fmt.Fprintln(out, "=== Search Server Load Test ===")
	fmt.Fprintf(out, "Target:      %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "Concurrency: %d\n", cfg.Concurrency)
	fmt.Fprintf(out, "Duration:    %s\n", cfg.Duration)
	fmt.Fprintf(out, "Queries:     %d unique\n\n", len(cfg.Queries))

	stats := runLoad(c.Context, cfg)
	return printLoadReport(out, stats, cfg.Duration)
}

func runLoad(ctx context.Context, cfg loadConfig) *loadStats {
	stats := newLoadStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	defer client.CloseIdleConnections()

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(next int) {
			defer wg.Done()
			for ctx.Err() == nil {
				target := searchURL(cfg.BaseURL, cfg.Queries[next%len(cfg.Queries)], cfg.Policy)
				next++

				req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
				if err != nil {
					stats.record(0, 0, err)
					return
				}
				start := time.Now()
				resp, err := client.Do(req)
				elapsed := time.Since(start)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					stats.record(elapsed, 0, err)
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.record(elapsed, resp.StatusCode, nil)
			}
		}(w)
	}
	wg.Wait()
	return stats
}

func searchURL(base, query, policy string) string {
	v := url.Values{"q": {query}}
	if policy != "" {
		v.Set("policy", policy)
	}
	return base + "/api/v1/search?" + v.Encode()
}

func printLoadReport(w io.Writer, stats *loadStats, duration time.Duration) error {
	total := stats.total.Load()
	failed := stats.failed.Load()

	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", total)
	fmt.Fprintf(w, "Successful:      %d\n", stats.succeeded.Load())
	fmt.Fprintf(w, "Errors:          %d\n", failed)
	if total == 0 {
		return errors.New("no requests completed, is the server running?")
	}
	fmt.Fprintf(w, "Error Rate:      %.2f%%\n", float64(failed)/float64(total)*100)
	fmt.Fprintf(w, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())

	stats.mu.Lock()
	latencies := slices.Clone(stats.latencies)
	codes := maps.Clone(stats.codes)
	stats.mu.Unlock()

	if len(latencies) > 0 {
		slices.Sort(latencies)
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))
		var squares float64
		for _, l := range latencies {
			diff := float64(l - avg)
			squares += diff * diff
		}

		fmt.Fprintln(w, "\n=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", latencies[0])
		fmt.Fprintf(w, "Avg:    %s\n", avg)
		for _, p := range []float64{50, 90, 95, 99} {
			fmt.Fprintf(w, "P%-2.0f:    %s\n", p, percentile(latencies, p))
		}
		fmt.Fprintf(w, "Max:    %s\n", latencies[len(latencies)-1])
		fmt.Fprintf(w, "StdDev: %s\n", time.Duration(math.Sqrt(squares/float64(len(latencies)))))
	}

	fmt.Fprintln(w, "\n=== Status Codes ===")
	for _, code := range slices.Sorted(maps.Keys(codes)) {
		fmt.Fprintf(w, "  %d: %d\n", code, codes[code])
	}
	if stats.succeeded.Load() == 0 {
		return errors.New("no request succeeded, is the server running?")
	}
	return nil
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
