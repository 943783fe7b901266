// Package consumer applies document events to the engine, either one at a
// time or as the message handler of the Kafka document topic.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

// Engine is the mutation surface of *indexer.Engine.
type Engine interface {
	AddDocument(id int, text string, status document.Status, ratings []int) error
	RemoveDocument(id int, opts ...indexer.CallOption) error
}

// Apply validates ev and performs it on e.
func Apply(e Engine, ev ingestion.DocumentEvent, opts ...indexer.CallOption) error {
	if err := validator.ValidateEvent(&ev); err != nil {
		return fmt.Errorf("document %d: %w", ev.ID, err)
	}
	switch ev.Operation() {
	case ingestion.OpRemove:
		return e.RemoveDocument(ev.ID, opts...)
	default:
		return e.AddDocument(ev.ID, ev.Text, ev.Status, ev.Ratings)
	}
}

// HandleMessage returns a Kafka MessageHandler that applies every document
// event to e. Undecodable messages and events the engine rejects are logged
// and committed, since replaying them would fail the same way; only
// unexpected engine failures leave the message uncommitted.
func HandleMessage(e Engine, opts ...indexer.CallOption) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		ev, err := kafka.DecodeJSON[ingestion.DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		logger.Debug("processing document event",
			"doc_id", ev.ID,
			"op", ev.Operation(),
		)
		if err := Apply(e, ev, opts...); err != nil {
			if apperrors.IsClientError(err) {
				logger.Warn("document event rejected",
					"doc_id", ev.ID,
					"op", ev.Operation(),
					"error", err,
				)
				return nil
			}
			return fmt.Errorf("applying %s for document %d: %w", ev.Operation(), ev.ID, err)
		}
		logger.Info("document event applied",
			"doc_id", ev.ID,
			"op", ev.Operation(),
		)
		return nil
	}
}

// ApplyAll applies events in order and returns how many succeeded. Rejected
// events are logged and skipped; the returned error joins their errors.
func ApplyAll(e Engine, events []ingestion.DocumentEvent, opts ...indexer.CallOption) (int, error) {
	logger := slog.Default().With("component", "index-consumer")
	applied := 0
	var errs []error
	for _, ev := range events {
		if err := Apply(e, ev, opts...); err != nil {
			logger.Warn("document event rejected", "doc_id", ev.ID, "op", ev.Operation(), "error", err)
			errs = append(errs, err)
			continue
		}
		applied++
	}
	return applied, errors.Join(errs...)
}
