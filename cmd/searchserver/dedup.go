package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/dedup"
)

func dedupCommand(c *cli.Context) error {
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

	out := c.App.Writer
	fmt.Fprintf(out, "Before duplicates removed: %d\n", engine.DocumentCount())
	removed, err := dedup.RemoveDuplicates(engine, policyOptions(pool)...)
	if err != nil {
		return err
	}
	for _, id := range removed {
		fmt.Fprintf(out, "Found duplicate document id %d\n", id)
	}
	fmt.Fprintf(out, "After duplicates removed: %d\n", engine.DocumentCount())
	return nil
}
