package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	"github.com/yokitheyo/bgremover/internal/domain"
)

type fakeSender struct {
	key, value []byte
	strategy   retry.Strategy
	err        error
	closed     bool
}

func (f *fakeSender) SendWithRetry(_ context.Context, strategy retry.Strategy, key, value []byte) error {
	f.key, f.value, f.strategy = key, value, strategy
	return f.err
}

func (f *fakeSender) Close() error {
	f.closed = true
	return nil
}

func TestProducer_PublishRemoval(t *testing.T) {
	fs := &fakeSender{}
	p := newProducer(fs, "removals")

	event := domain.RemovalEvent{
		RequestID:      "req-1",
		Filename:       "cat.png",
		Success:        true,
		ProcessingTime: 1.5,
		Width:          100,
		Height:         100,
		CreatedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.PublishRemoval(context.Background(), event))

	assert.Equal(t, []byte("req-1"), fs.key)
	assert.Equal(t, 3, fs.strategy.Attempts)

	var got domain.RemovalEvent
	require.NoError(t, json.Unmarshal(fs.value, &got))
	assert.Equal(t, event, got)

	require.NoError(t, p.Close())
	assert.True(t, fs.closed)
}

func TestProducer_PublishRemovalError(t *testing.T) {
	p := newProducer(&fakeSender{err: errors.New("broker down")}, "removals")

	err := p.PublishRemoval(context.Background(), domain.RemovalEvent{RequestID: "r"})
	assert.ErrorIs(t, err, domain.ErrQueueFailed)
}
