package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
)

func publishCommand(c *cli.Context) error {
	cfg := configFrom(c)
	events, err := readEvents(c.String("docs"))
	if err != nil {
		return err
	}

	var db *postgres.Client
	if cfg.Postgres.Enabled {
		if db, err = postgres.New(c.Context, cfg.Postgres); err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
	}

	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	if err := publisher.New(db, cfg.Postgres.DocumentsTable, producer).Publish(c.Context, events); err != nil {
		return err
	}
	slog.Info("published document events", "count", len(events), "topic", cfg.Kafka.DocumentTopic)
	fmt.Fprintf(c.App.Writer, "Published %d document events\n", len(events))
	return nil
}
