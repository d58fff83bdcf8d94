package mq

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ProducerConfig describes how to publish listing and deck events.
type ProducerConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
	Timeout  time.Duration
}

// ConsumerConfig describes a consumer-group subscription.
type ConsumerConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	ClientID string
	MaxBytes int

	// MaxAttempts bounds how often a failing message is handed to the
	// handler before the consumer stops without committing it.
	MaxAttempts  int
	RetryBackoff time.Duration
}

var (
	errNoBrokers = errors.New("mq: at least one broker must be configured")
	errNoTopic   = errors.New("mq: topic must be provided")
	errNoGroup   = errors.New("mq: group id must be provided")
)

// Validate ensures the producer configuration is usable.
func (cfg ProducerConfig) Validate() error {
	if len(cleanBrokers(cfg.Brokers)) == 0 {
		return errNoBrokers
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return errNoTopic
	}
	return nil
}

// Validate ensures the consumer configuration is usable.
func (cfg ConsumerConfig) Validate() error {
	if len(cleanBrokers(cfg.Brokers)) == 0 {
		return errNoBrokers
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return errNoTopic
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return errNoGroup
	}
	return nil
}

func (cfg ProducerConfig) normalize() ProducerConfig {
	out := cfg
	out.Brokers = cleanBrokers(cfg.Brokers)
	out.Topic = strings.TrimSpace(cfg.Topic)
	out.ClientID = strings.TrimSpace(cfg.ClientID)
	if out.Timeout <= 0 {
		out.Timeout = 5 * time.Second
	}
	return out
}

func (cfg ConsumerConfig) normalize() ConsumerConfig {
	out := cfg
	out.Brokers = cleanBrokers(cfg.Brokers)
	out.Topic = strings.TrimSpace(cfg.Topic)
	out.GroupID = strings.TrimSpace(cfg.GroupID)
	out.ClientID = strings.TrimSpace(cfg.ClientID)
	if out.MaxBytes <= 0 {
		out.MaxBytes = 10e6
	}
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 5
	}
	if out.RetryBackoff <= 0 {
		out.RetryBackoff = 500 * time.Millisecond
	}
	return out
}

func cleanBrokers(brokers []string) []string {
	out := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			out = append(out, broker)
		}
	}
	return out
}

// String implements fmt.Stringer.
func (cfg ProducerConfig) String() string {
	n := cfg.normalize()
	return fmt.Sprintf("ProducerConfig{brokers=%s, topic=%s, client=%s}", strings.Join(n.Brokers, ","), n.Topic, n.ClientID)
}

// String implements fmt.Stringer.
func (cfg ConsumerConfig) String() string {
	n := cfg.normalize()
	return fmt.Sprintf("ConsumerConfig{brokers=%s, topic=%s, group=%s, client=%s}", strings.Join(n.Brokers, ","), n.Topic, n.GroupID, n.ClientID)
}
