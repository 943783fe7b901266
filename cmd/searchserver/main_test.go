package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const petDocs = `{"id":0,"text":"white cat and fashionable collar","status":"ACTUAL","ratings":[8,-3]}
{"id":1,"text":"fluffy cat fluffy tail","status":"ACTUAL","ratings":[7,2,7]}
{"id":2,"text":"groomed dog expressive eyes","status":"ACTUAL","ratings":[5,-12,2,1]}
{"id":3,"text":"groomed starling eugene","status":"BANNED","ratings":[9]}
`

func writeDocs(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"searchserver", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	docs := writeDocs(t, petDocs)

	out, err := run(t, "", "search", "--docs", docs, "-q", "fluffy groomed cat", "-q", "parrot", "--page-size", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Results for request: fluffy groomed cat")
	assert.Equal(t, 2, strings.Count(out, "Page break"))
	first := strings.Index(out, "document_id = 1,")
	second := strings.Index(out, "document_id = 0,")
	third := strings.Index(out, "document_id = 2,")
	require.True(t, first >= 0 && second >= 0 && third >= 0, out)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
	assert.NotContains(t, out, "document_id = 3,")
	assert.Contains(t, out, "Total empty requests: 1")
}

func TestSearchCommandReadsStdin(t *testing.T) {
	docs := writeDocs(t, petDocs)

	out, err := run(t, "groomed\n\nstarling\n", "search", "--docs", docs, "--status", "banned")
	require.NoError(t, err)
	assert.Contains(t, out, "Results for request: groomed")
	assert.Contains(t, out, "Results for request: starling")
	assert.Equal(t, 2, strings.Count(out, "document_id = 3,"))
	assert.Contains(t, out, "Total empty requests: 0")
}

func TestSearchCommandMatch(t *testing.T) {
	docs := writeDocs(t, petDocs)

	out, err := run(t, "", "search", "--docs", docs, "-q", "cat", "--match")
	require.NoError(t, err)
	assert.Contains(t, out, "{ document_id = 0, status = ACTUAL, words = cat }")
	assert.Contains(t, out, "{ document_id = 1, status = ACTUAL, words = cat }")
	assert.Contains(t, out, "{ document_id = 3, status = BANNED, words =  }")
}

func TestSearchCommandInvalidQuery(t *testing.T) {
	docs := writeDocs(t, petDocs)

	out, err := run(t, "", "search", "--docs", docs, "-q", "cat --dog")
	require.NoError(t, err)
	assert.Contains(t, out, `Error in request "cat --dog"`)
	assert.Contains(t, out, "Total empty requests: 0")
}

func TestSearchCommandBatch(t *testing.T) {
	docs := writeDocs(t, petDocs)

	out, err := run(t, "", "search", "--docs", docs, "-q", "groomed", "-q", "cat", "--batch", "--page-size", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Page break"))
	assert.Less(t, strings.Index(out, "document_id = 2,"), strings.Index(out, "document_id = 1,"))
	assert.Less(t, strings.Index(out, "document_id = 1,"), strings.Index(out, "document_id = 0,"))
}

func TestDedupCommand(t *testing.T) {
	docs := writeDocs(t, `{"id":1,"text":"funny pet and nasty rat"}
{"id":2,"text":"funny pet with curly hair"}
{"id":3,"text":"nasty rat funny pet"}
`)

	out, err := run(t, "", "dedup", "--docs", docs)
	require.NoError(t, err)
	assert.Contains(t, out, "Before duplicates removed: 3")
	assert.Contains(t, out, "Found duplicate document id 3")
	assert.NotContains(t, out, "Found duplicate document id 1")
	assert.Contains(t, out, "After duplicates removed: 2")
}

func TestCommandFlags(t *testing.T) {
	app := newApp()

	t.Run("docs is required", func(t *testing.T) {
		_, err := run(t, "", "dedup")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "docs")
	})

	t.Run("missing docs file", func(t *testing.T) {
		_, err := run(t, "", "search", "--docs", filepath.Join(t.TempDir(), "absent.jsonl"), "-q", "cat")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening documents file")
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := run(t, "", "search", "--docs", writeDocs(t, petDocs), "-q", "cat", "--status", "archived")
		require.Error(t, err)
	})

	t.Run("all commands registered", func(t *testing.T) {
		var names []string
		for _, cmd := range app.Commands {
			names = append(names, cmd.Name)
		}
		assert.Equal(t, []string{"serve", "search", "dedup", "publish", "loadtest"}, names)
	})

	t.Run("serve docs flag is optional", func(t *testing.T) {
		for _, flag := range app.Commands[0].Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "docs" {
				assert.False(t, f.Required)
				return
			}
		}
		t.Fatal("serve has no docs flag")
	})
}

func TestLoadtestCommand(t *testing.T) {
	var hits, parallel int64
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		if r.URL.Query().Get("policy") == "parallel" {
			parallel++
		}
		mu.Unlock()
		if r.URL.Query().Get("q") == "broken" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	out, err := run(t, "", "loadtest", "--url", srv.URL, "--concurrency", "2", "--duration", "200ms",
		"-q", "cat", "-q", "broken", "--policy", "parallel")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Positive(t, hits)
	assert.Equal(t, hits, parallel)
	assert.Contains(t, out, "=== Results ===")
	assert.Contains(t, out, "  200: ")
	assert.Contains(t, out, "  400: ")
	assert.Contains(t, out, "P99:")
}

func TestLoadtestNoServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := run(t, "", "loadtest", "--url", url, "--concurrency", "1", "--duration", "100ms")
	require.Error(t, err)
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(5), percentile(sorted, 50))
	assert.Equal(t, time.Duration(10), percentile(sorted, 99))
	assert.Equal(t, time.Duration(1), percentile(sorted, 0))
	assert.Zero(t, percentile(nil, 50))
}
