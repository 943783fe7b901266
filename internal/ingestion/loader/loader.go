// Package loader reads document events from JSON-lines streams and from a
// Postgres source table.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
)

const maxLineBytes = 4 << 20

// ReadJSONL yields one event per non-blank line of r. A malformed line is
// yielded as an error wrapping ErrInvalidInput with its line number, and
// reading continues with the next line. A read failure ends the sequence.
func ReadJSONL(r io.Reader) iter.Seq2[ingestion.DocumentEvent, error] {
	return func(yield func(ingestion.DocumentEvent, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), maxLineBytes)
		line := 0
		for sc.Scan() {
			line++
			raw := bytes.TrimSpace(sc.Bytes())
			if len(raw) == 0 {
				continue
			}
			var ev ingestion.DocumentEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				if !yield(ev, fmt.Errorf("%w: line %d: %v", apperrors.ErrInvalidInput, line, err)) {
					return
				}
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(ingestion.DocumentEvent{}, fmt.Errorf("reading events: %w", err))
		}
	}
}

// CollectJSONL reads every event of r, skipping malformed lines with a
// warning. Only read failures are returned.
func CollectJSONL(r io.Reader) ([]ingestion.DocumentEvent, error) {
	logger := slog.Default().With("component", "loader")
	var events []ingestion.DocumentEvent
	for ev, err := range ReadJSONL(r) {
		if err != nil {
			if apperrors.IsClientError(err) {
				logger.Warn("skipping malformed event", "error", err)
				continue
			}
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// WriteJSONL writes events to w, one JSON object per line.
func WriteJSONL(w io.Writer, events []ingestion.DocumentEvent) error {
	enc := json.NewEncoder(w)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("encoding event %d: %w", ev.ID, err)
		}
	}
	return nil
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// TableIdentifier validates a possibly schema-qualified table name and
// returns it quoted for use in SQL text, where it cannot be a bind parameter.
func TableIdentifier(table string) (string, error) {
	if !tableName.MatchString(table) {
		return "", fmt.Errorf("%w: table name %q", apperrors.ErrInvalidConfiguration, table)
	}
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(name), nil
	}
	return pq.QuoteIdentifier(table), nil
}

func selectQuery(table string) (string, error) {
	ident, err := TableIdentifier(table)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT id, body, status, ratings FROM %s ORDER BY id", ident), nil
}

// row mirrors one record of the source table.
type row struct {
	id      int64
	body    string
	status  string
	ratings pq.Int64Array
}

func (r row) event() (ingestion.DocumentEvent, error) {
	status, err := document.ParseStatus(r.status)
	if err != nil {
		return ingestion.DocumentEvent{}, fmt.Errorf("%w: document %d: %v", apperrors.ErrInvalidInput, r.id, err)
	}
	ratings := make([]int, len(r.ratings))
	for i, v := range r.ratings {
		ratings[i] = int(v)
	}
	return ingestion.DocumentEvent{
		Op:      ingestion.OpAdd,
		ID:      int(r.id),
		Text:    r.body,
		Status:  status,
		Ratings: ratings,
	}, nil
}

// LoadPostgres reads every row of table in ascending id order inside a
// read-only transaction and passes it to fn as an add event. Rows with an
// unknown status are skipped with a warning. An error from fn stops the load.
func LoadPostgres(ctx context.Context, db *postgres.Client, table string, fn func(ingestion.DocumentEvent) error) (int, error) {
	query, err := selectQuery(table)
	if err != nil {
		return 0, err
	}
	logger := slog.Default().With("component", "loader", "table", table)
	loaded := 0
	err = db.InTx(ctx, &sql.TxOptions{ReadOnly: true}, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("querying %s: %w", table, err)
		}
		defer rows.Close()
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.id, &r.body, &r.status, &r.ratings); err != nil {
				return fmt.Errorf("scanning %s: %w", table, err)
			}
			ev, err := r.event()
			if err != nil {
				logger.Warn("skipping row", "error", err)
				continue
			}
			if err := fn(ev); err != nil {
				return err
			}
			loaded++
		}
		return rows.Err()
	})
	if err != nil {
		return loaded, err
	}
	logger.Info("documents loaded", "count", loaded)
	return loaded, nil
}
