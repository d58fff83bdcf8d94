package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/getlisted/platform/libs/shared/mq"
)

// Event types on the events topic. The web service publishes ListingSaved,
// DeckSaved and DeckDeleted. Listings are deleted through the backend, which
// publishes ListingDeleted to the same topic.
const (
	ListingSaved   = "listing.saved"
	ListingDeleted = "listing.deleted"
	DeckSaved      = "deck.saved"
	DeckDeleted    = "deck.deleted"
)

// Event is the envelope written to the events topic.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	EntityID   string          `json:"entityId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event with a fresh id and the payload encoded as JSON.
func NewEvent(eventType, entityID string, payload any) (Event, error) {
	evt := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
		}
		evt.Payload = raw
	}
	return evt, nil
}

// Decode parses an event envelope from a consumed message.
func Decode(msg mq.Message) (Event, error) {
	var evt Event
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if evt.Type == "" {
		evt.Type = msg.Headers["type"]
	}
	return evt, nil
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// KafkaPublisher publishes events keyed by entity id.
type KafkaPublisher struct {
	producer *mq.Producer
}

// NewKafkaPublisher wraps a producer.
func NewKafkaPublisher(producer *mq.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.producer.Publish(ctx, evt.EntityID, value, map[string]string{
		"type":        evt.Type,
		"occurred_at": evt.OccurredAt.Format(time.RFC3339Nano),
	})
}

// Discard is a Publisher that drops every event.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, Event) error { return nil }
