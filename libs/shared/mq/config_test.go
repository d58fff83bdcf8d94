package mq

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerConfigValidate(t *testing.T) {
	assert.ErrorIs(t, ProducerConfig{Topic: "events"}.Validate(), errNoBrokers)
	assert.ErrorIs(t, ProducerConfig{Brokers: []string{" "}, Topic: "events"}.Validate(), errNoBrokers)
	assert.ErrorIs(t, ProducerConfig{Brokers: []string{"k:9092"}}.Validate(), errNoTopic)
	assert.NoError(t, ProducerConfig{Brokers: []string{"k:9092"}, Topic: "events"}.Validate())
}

func TestConsumerConfigValidate(t *testing.T) {
	cfg := ConsumerConfig{Brokers: []string{"k:9092"}, Topic: "events"}
	assert.ErrorIs(t, cfg.Validate(), errNoGroup)

	cfg.GroupID = "indexer"
	require.NoError(t, cfg.Validate())

	n := cfg.normalize()
	assert.Equal(t, int(10e6), n.MaxBytes)
	assert.Equal(t, 5, n.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, n.RetryBackoff)
}

func TestProducerNormalizeDefaults(t *testing.T) {
	n := ProducerConfig{Brokers: []string{" a:1 ", "", "b:2"}, Topic: " events "}.normalize()
	assert.Equal(t, []string{"a:1", "b:2"}, n.Brokers)
	assert.Equal(t, "events", n.Topic)
	assert.Equal(t, 5*time.Second, n.Timeout)
	assert.Equal(t, "ProducerConfig{brokers=a:1,b:2, topic=events, client=}", n.String())
}

func TestToMessageCopiesHeaders(t *testing.T) {
	msg := toMessage(kafka.Message{
		Key:     []byte("k"),
		Value:   []byte("v"),
		Headers: []kafka.Header{{Key: "type", Value: []byte("listing.saved")}},
	})
	assert.Equal(t, "listing.saved", msg.Headers["type"])
	assert.Equal(t, []byte("v"), msg.Value)
}

func TestNilProducerPublishIsNoop(t *testing.T) {
	var p *Producer
	assert.NoError(t, p.Publish(context.Background(), "k", nil, nil))
	assert.NoError(t, p.Close())
}
