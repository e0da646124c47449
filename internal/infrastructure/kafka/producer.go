package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/config"
	"github.com/yokitheyo/bgremover/internal/domain"
)

// sender is the subset of the wbf producer used here.
type sender interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key, value []byte) error
	Close() error
}

// Producer отправляет события об удалении фона в Kafka.
type Producer struct {
	client   sender
	topic    string
	strategy retry.Strategy
}

// NewProducer создаёт Kafka producer через wbf.
func NewProducer(cfg *config.KafkaConfig) *Producer {
	client := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)
	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka producer initialized (wbf)")
	return newProducer(client, cfg.Topic)
}

func newProducer(client sender, topic string) *Producer {
	return &Producer{
		client: client,
		topic:  topic,
		strategy: retry.Strategy{
			Attempts: 3,
			Delay:    500 * time.Millisecond,
			Backoff:  2.0, // экспоненциальная задержка между попытками
		},
	}
}

// PublishRemoval отправляет событие с ключом request_id, с повторными попытками.
func (p *Producer) PublishRemoval(ctx context.Context, event domain.RemovalEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal removal event: %w", err)
	}

	if err := p.client.SendWithRetry(ctx, p.strategy, []byte(event.RequestID), data); err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("request_id", event.RequestID).
			Str("topic", p.topic).
			Msg("Failed to send removal event")
		return fmt.Errorf("%w: %v", domain.ErrQueueFailed, err)
	}

	zlog.Logger.Debug().
		Str("request_id", event.RequestID).
		Bool("success", event.Success).
		Msg("Removal event sent to Kafka")
	return nil
}

// Close закрывает продюсер.
func (p *Producer) Close() error {
	if err := p.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka producer closed successfully")
	return nil
}
