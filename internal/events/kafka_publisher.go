package events

import (
	"context"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/Fosho-App/fosho-v1/pkg/logger"
)

// KafkaPublisher emits lifecycle notifications to a single Kafka topic,
// keyed so all transitions of one aggregate land on one partition.
// Produce is asynchronous; delivery failures are logged, never surfaced.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	log    *logger.Logger
}

// NewKafkaPublisher connects to the given brokers.
func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{client: client, topic: topic, log: log}, nil
}

// Publish emits one notification. Errors are logged and swallowed so a
// broker outage never fails a committed transition.
func (p *KafkaPublisher) Publish(ctx context.Context, name, key string, data any) {
	value, ok := marshalEnvelope(name, data, p.log)
	if !ok {
		return
	}
	rec := &kgo.Record{Topic: p.topic, Key: []byte(key), Value: value}
	p.client.Produce(ctx, rec, func(_ *kgo.Record, err error) {
		if err != nil {
			p.log.Warn("failed to publish lifecycle event",
				zap.String("event", name),
				zap.String("key", key),
				zap.Error(err))
		}
	})
}

// Close flushes buffered records and closes the client.
func (p *KafkaPublisher) Close() {
	if err := p.client.Flush(context.Background()); err != nil {
		p.log.Warn("failed to flush lifecycle events", zap.Error(err))
	}
	p.client.Close()
}
