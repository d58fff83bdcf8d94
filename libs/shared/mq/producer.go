package mq

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer wraps a Kafka writer.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer constructs a Kafka producer using the provided configuration.
func NewProducer(cfg ProducerConfig, log *zap.Logger) (*Producer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := cfg.normalize()

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(n.Brokers...),
		Topic:                  n.Topic,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           n.Timeout,
		BatchSize:              1,
	}
	if n.ClientID != "" {
		writer.Transport = &kafka.Transport{ClientID: n.ClientID}
	}

	log.Info("mq: producer ready", zap.Stringer("config", n))
	return &Producer{writer: writer}, nil
}

// Publish sends a keyed message. Messages sharing a key land on one partition.
func (p *Producer) Publish(ctx context.Context, key string, value []byte, headers map[string]string) error {
	if p == nil || p.writer == nil {
		return nil
	}

	msg := kafka.Message{Key: []byte(key), Value: value}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
