package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"upload-converter/internal/broker"
	"upload-converter/internal/config"
	"upload-converter/internal/domain"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

var _ broker.Publisher = (*ProducerClient)(nil)

type sender interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key, value []byte) error
	Close() error
}

type ProducerClient struct {
	producer sender
	strategy retry.Strategy
}

func NewProducerClient(cfg *config.Config) *ProducerClient {
	return &ProducerClient{
		producer: wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.UploadTopic),
		strategy: cfg.DefaultRetryStrategy(),
	}
}

// Publish sends the event keyed by attachment ID, so events of one
// attachment land in the same partition.
func (p *ProducerClient) Publish(ctx context.Context, event *domain.UploadEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal upload event: %w", err)
	}

	if err := p.producer.SendWithRetry(ctx, p.strategy, []byte(event.AttachmentID), value); err != nil {
		return fmt.Errorf("failed to send upload event: %w", err)
	}
	return nil
}

func (p *ProducerClient) Close() error {
	return p.producer.Close()
}
