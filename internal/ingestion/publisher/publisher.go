// Package publisher writes document events to the Postgres source table and
// publishes them on the Kafka document topic for the serving engines.
package publisher

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
)

// EventProducer is satisfied by *kafka.Producer.
type EventProducer interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Publisher validates events, optionally mirrors them into Postgres and
// publishes them to Kafka.
type Publisher struct {
	db       *postgres.Client
	table    string
	producer EventProducer
	logger   *slog.Logger
}

// New creates a Publisher. db may be nil, in which case events are only
// published.
func New(db *postgres.Client, table string, producer EventProducer) *Publisher {
	return &Publisher{
		db:       db,
		table:    table,
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Publish validates every event, stores them in one transaction when a
// database is configured, then publishes them as one batch keyed by document
// id. Nothing is written when any event is invalid.
func (p *Publisher) Publish(ctx context.Context, events []ingestion.DocumentEvent) error {
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		if err := validator.ValidateEvent(&events[i]); err != nil {
			return fmt.Errorf("event %d (document %d): %w", i, events[i].ID, err)
		}
	}
	if p.db != nil {
		if err := p.persist(ctx, events); err != nil {
			return err
		}
	}
	batch := make([]kafka.Event, len(events))
	for i, ev := range events {
		ev.Op = ev.Operation()
		batch[i] = kafka.Event{Key: ev.Key(), Value: ev}
	}
	if err := p.producer.PublishBatch(ctx, batch); err != nil {
		p.logger.Error("failed to publish document events", "count", len(batch), "error", err)
		return fmt.Errorf("publishing document events: %w", err)
	}
	p.logger.Info("document events published", "count", len(batch))
	return nil
}

func (p *Publisher) persist(ctx context.Context, events []ingestion.DocumentEvent) error {
	table, err := loader.TableIdentifier(p.table)
	if err != nil {
		return err
	}
	upsert := fmt.Sprintf(`INSERT INTO %s (id, body, status, ratings) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, status = EXCLUDED.status, ratings = EXCLUDED.ratings`, table)
	remove := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)

	err = p.db.InTx(ctx, nil, func(tx *sql.Tx) error {
		for _, ev := range events {
			var err error
			if ev.Operation() == ingestion.OpRemove {
				_, err = tx.ExecContext(ctx, remove, ev.ID)
			} else {
				_, err = tx.ExecContext(ctx, upsert, ev.ID, ev.Text, ev.Status.String(), pq.Array(toInt64(ev.Ratings)))
			}
			if err != nil {
				return fmt.Errorf("writing document %d: %w", ev.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persisting document events: %w", err)
	}
	return nil
}

func toInt64(ratings []int) []int64 {
	out := make([]int64, len(ratings))
	for i, r := range ratings {
		out[i] = int64(r)
	}
	return out
}
