package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/getlisted/platform/libs/components/listing"
	"github.com/getlisted/platform/libs/shared/messaging"
	"github.com/getlisted/platform/libs/shared/mq"
	"github.com/getlisted/platform/libs/shared/observability"
)

// Indexer applies listing events to the directory.
type Indexer struct {
	repo Repository
	log  *zap.Logger
}

// NewIndexer constructs an Indexer.
func NewIndexer(repo Repository, log *zap.Logger) *Indexer {
	return &Indexer{repo: repo, log: log}
}

// HandleMessage is an mq.Handler. Saved listings are upserted and deleted
// ones removed; other event types are ignored. Messages that cannot be decoded
// fail permanently; repository failures are returned for the consumer to
// retry.
func (i *Indexer) HandleMessage(ctx context.Context, msg mq.Message) error {
	evt, err := messaging.Decode(msg)
	if err != nil {
		return mq.Permanent(err)
	}

	switch evt.Type {
	case messaging.ListingSaved:
		var saved listing.Startup
		if err := json.Unmarshal(evt.Payload, &saved); err != nil {
			return mq.Permanent(fmt.Errorf("decode %s payload: %w", evt.Type, err))
		}
		if saved.ID == "" {
			saved.ID = evt.EntityID
		}
		entity, err := FromStartup(saved)
		if err != nil {
			return mq.Permanent(err)
		}
		if err := i.repo.Upsert(ctx, entity); err != nil {
			return fmt.Errorf("index listing %s: %w", entity.ID, err)
		}
		observability.IndexedListings.Inc()
		i.log.Debug("listing indexed", zap.String("id", entity.ID))
	case messaging.ListingDeleted:
		if err := i.repo.Delete(ctx, evt.EntityID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		i.log.Debug("listing removed from directory", zap.String("id", evt.EntityID))
	default:
		i.log.Debug("event ignored", zap.String("type", evt.Type))
	}
	return nil
}
