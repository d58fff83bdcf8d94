package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Message represents a Kafka message delivered to consumers.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
	Time    time.Time
}

// Handler processes messages from a consumer.
type Handler func(context.Context, Message) error

// ErrRetriesExhausted is returned by Run when a message kept failing.
var ErrRetriesExhausted = errors.New("mq: handler retries exhausted")

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks a handler error that retrying cannot fix, such as a
// message that does not decode. The consumer logs it and moves past the
// message.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer wraps a Kafka reader and invokes a handler for each message.
// An offset is committed only once its message was handled or failed
// permanently. Other failures are retried with backoff; when the attempts run
// out Run returns without committing, so the message is redelivered to the
// group after a restart.
type Consumer struct {
	reader   messageReader
	handler  Handler
	attempts int
	backoff  time.Duration
	log      *zap.Logger
}

// NewConsumer constructs a Kafka consumer.
func NewConsumer(cfg ConsumerConfig, handler Handler, log *zap.Logger) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := cfg.normalize()

	readerCfg := kafka.ReaderConfig{
		Brokers:  n.Brokers,
		Topic:    n.Topic,
		GroupID:  n.GroupID,
		MinBytes: 1,
		MaxBytes: n.MaxBytes,
	}
	if n.ClientID != "" {
		readerCfg.Dialer = &kafka.Dialer{ClientID: n.ClientID, Timeout: 10 * time.Second}
	}

	log.Info("mq: consumer ready", zap.Stringer("config", n))
	return newConsumer(kafka.NewReader(readerCfg), handler, n, log), nil
}

func newConsumer(reader messageReader, handler Handler, n ConsumerConfig, log *zap.Logger) *Consumer {
	return &Consumer{
		reader:   reader,
		handler:  handler,
		attempts: n.MaxAttempts,
		backoff:  n.RetryBackoff,
		log:      log,
	}
}

// Run consumes messages until the context is cancelled, the reader fails or
// a message exhausts its retries.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil || c.reader == nil {
		return nil
	}

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return err
		}

		if err := c.handle(ctx, msg); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	if c.handler == nil {
		return nil
	}

	delay := c.backoff
	for attempt := 1; ; attempt++ {
		err := c.handler(ctx, toMessage(msg))
		switch {
		case err == nil:
			return nil
		case IsPermanent(err):
			c.log.Warn("mq: message skipped",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			return nil
		case attempt >= c.attempts:
			c.log.Error("mq: handler failed, offset left uncommitted",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempts", attempt),
				zap.Error(err))
			return fmt.Errorf("%w: offset %d: %v", ErrRetriesExhausted, msg.Offset, err)
		}

		c.log.Warn("mq: handler failed, retrying",
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// Close shuts down the reader.
func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

func toMessage(msg kafka.Message) Message {
	out := Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: make(map[string]string, len(msg.Headers)),
		Time:    msg.Time,
	}
	for _, h := range msg.Headers {
		out.Headers[h.Key] = string(h.Value)
	}
	return out
}
