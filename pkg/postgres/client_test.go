package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
)

func unreachable(t *testing.T) *Client {
	t.Helper()
	cfg := config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     1,
		Database: "searchserver",
		User:     "searchserver",
		SSLMode:  "disable",
	}
	db, err := sql.Open("postgres", cfg.DSN())
	require.NoError(t, err)
	c := Wrap(db)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestUnreachableDatabase(t *testing.T) {
	c := unreachable(t)
	ctx := context.Background()

	require.Error(t, c.Ping(ctx))

	called := false
	err := c.InTx(ctx, nil, func(*sql.Tx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, err.Error(), "beginning transaction")
}

func TestNewGivesUpWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(ctx, config.PostgresConfig{Host: "127.0.0.1", Port: 1, SSLMode: "disable", MaxOpenConns: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
