package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

type recordingProducer struct {
	batches [][]kafka.Event
	err     error
}

func (r *recordingProducer) PublishBatch(_ context.Context, events []kafka.Event) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, events)
	return nil
}

func TestPublish(t *testing.T) {
	prod := &recordingProducer{}
	p := New(nil, "documents", prod)

	err := p.Publish(context.Background(), []ingestion.DocumentEvent{
		{ID: 3, Text: "big cat", Status: document.StatusIrrelevant, Ratings: []int{1}},
		{Op: ingestion.OpRemove, ID: 1},
	})
	require.NoError(t, err)
	require.Len(t, prod.batches, 1)
	batch := prod.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "3", batch[0].Key)
	assert.Equal(t, "1", batch[1].Key)

	data, err := json.Marshal(batch[0].Value)
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"add","id":3,"text":"big cat","status":"IRRELEVANT","ratings":[1]}`, string(data))
}

func TestPublishRejectsInvalidBatch(t *testing.T) {
	prod := &recordingProducer{}
	p := New(nil, "documents", prod)

	err := p.Publish(context.Background(), []ingestion.DocumentEvent{
		{ID: 1, Text: "ok"},
		{ID: -5, Text: "bad"},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Empty(t, prod.batches)
}

func TestPublishProducerFailure(t *testing.T) {
	p := New(nil, "documents", &recordingProducer{err: errors.New("broker down")})
	err := p.Publish(context.Background(), []ingestion.DocumentEvent{{ID: 1, Text: "cat"}})
	assert.ErrorContains(t, err, "broker down")
}

func TestPublishEmpty(t *testing.T) {
	prod := &recordingProducer{}
	require.NoError(t, New(nil, "documents", prod).Publish(context.Background(), nil))
	assert.Empty(t, prod.batches)
}

func TestToInt64(t *testing.T) {
	assert.Equal(t, []int64{5, -12}, toInt64([]int{5, -12}))
	assert.Equal(t, []int64{}, toInt64(nil))
}
