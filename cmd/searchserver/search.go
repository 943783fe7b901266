package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/requestqueue"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/batch"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/paginator"
)

func searchCommand(c *cli.Context) error {
	cfg := configFrom(c)
	engine, pool, err := buildEngine(cfg.Engine, nil)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Release()
	}
	if _, err := indexFile(engine, c.String("docs")); err != nil {
		return err
	}

	queries := c.StringSlice("query")
	if len(queries) == 0 {
		if queries, err = readLines(c.App.Reader); err != nil {
			return err
		}
	}

	var callOpts []indexer.CallOption
	status := document.StatusActual
	if name := c.String("status"); name != "" {
		if status, err = document.ParseStatus(name); err != nil {
			return err
		}
		callOpts = append(callOpts, indexer.WithStatus(status))
	}

	pageSize := c.Int("page-size")
	if pageSize <= 0 {
		pageSize = cfg.Search.PageSize
	}
	out := c.App.Writer

	if c.Bool("batch") {
		docs, err := batch.ProcessQueriesJoined(c.Context, engine, queries, batch.Options{
			MaxConcurrent: cfg.Search.MaxConcurrentQueries,
			Timeout:       cfg.Search.BatchTimeout,
			CallOptions:   callOpts,
		})
		if err != nil {
			return err
		}
		printPages(out, docs, pageSize)
		return nil
	}

	queue := requestqueue.New(engine, requestqueue.WithWindow(cfg.RequestQueue.Window))
	for _, raw := range queries {
		fmt.Fprintf(out, "Results for request: %s\n", raw)
		var docs []document.Document
		if len(callOpts) > 0 {
			docs, err = queue.AddStatusRequest(raw, status)
		} else {
			docs, err = queue.AddFindRequest(raw)
		}
		if err != nil {
			fmt.Fprintf(out, "Error in request %q: %v\n", raw, err)
			continue
		}
		printPages(out, docs, pageSize)

		if c.Bool("match") {
			if err := printMatches(out, engine, raw); err != nil {
				return err
			}
		}
	}
	fmt.Fprintf(out, "Total empty requests: %d\n", queue.NoResultRequests())
	return nil
}

func printPages(w io.Writer, docs []document.Document, size int) {
	for _, page := range paginator.Paginate(docs, size) {
		for _, d := range page {
			fmt.Fprintln(w, d)
		}
		fmt.Fprintln(w, "Page break")
	}
}

func printMatches(w io.Writer, e *indexer.Engine, raw string) error {
	for id := range e.IDs() {
		words, status, err := e.MatchDocument(raw, id)
		if err != nil {
			return fmt.Errorf("matching document %d: %w", id, err)
		}
		fmt.Fprintf(w, "{ document_id = %d, status = %s, words = %s }\n", id, status, strings.Join(words, " "))
	}
	return nil
}

// indexFile adds every event of a JSON-lines file to e. Events the engine
// rejects are logged and skipped.
func indexFile(e *indexer.Engine, path string) (int, error) {
	events, err := readEvents(path)
	if err != nil {
		return 0, err
	}
	n, _ := consumer.ApplyAll(e, events)
	return n, nil
}

func readEvents(path string) ([]ingestion.DocumentEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening documents file: %w", err)
	}
	defer f.Close()
	return loader.CollectJSONL(f)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading queries: %w", err)
	}
	return lines, nil
}
