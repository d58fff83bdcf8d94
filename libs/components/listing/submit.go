package listing

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/getlisted/platform/libs/shared/messaging"
	"github.com/getlisted/platform/libs/shared/observability"
)

// Store persists listings on the backend.
type Store interface {
	CreateStartup(ctx context.Context, payload Payload) (Startup, error)
	UpdateStartup(ctx context.Context, id string, payload Payload) (Startup, error)
}

// Submitter validates and persists forms.
type Submitter struct {
	store  Store
	events messaging.Publisher
	log    *zap.Logger
}

// NewSubmitter builds a Submitter. A nil publisher discards events.
func NewSubmitter(store Store, events messaging.Publisher, log *zap.Logger) *Submitter {
	if events == nil {
		events = messaging.Discard{}
	}
	return &Submitter{store: store, events: events, log: log}
}

// Submit sweeps every section of f and, if all pass, creates or updates the
// listing in a single attempt. Validation failures never reach the store.
// Backend errors are returned unchanged and leave the form editable.
func (s *Submitter) Submit(ctx context.Context, f *Form, logo *LogoFile) (Startup, error) {
	rec, err := f.beginSubmit()
	if err != nil {
		var failure *ValidationFailure
		if errors.As(err, &failure) {
			observability.Submissions.WithLabelValues("invalid").Inc()
		}
		if errors.Is(err, ErrSubmitInFlight) {
			observability.Submissions.WithLabelValues("rejected").Inc()
		}
		return Startup{}, err
	}

	payload, err := BuildPayload(rec, logo)
	if err != nil {
		f.finishSubmit(Startup{}, err)
		return Startup{}, err
	}

	outcome := "updated"
	var saved Startup
	if rec.ID == "" {
		outcome = "created"
		saved, err = s.store.CreateStartup(ctx, payload)
	} else {
		saved, err = s.store.UpdateStartup(ctx, rec.ID, payload)
	}
	if err == nil {
		saved = mergeSaved(rec, saved)
	}

	f.finishSubmit(saved, err)
	if err != nil {
		observability.Submissions.WithLabelValues("failed").Inc()
		s.log.Warn("listing submission failed", zap.String("id", rec.ID), zap.Error(err))
		return Startup{}, err
	}

	observability.Submissions.WithLabelValues(outcome).Inc()
	s.log.Info("listing saved", zap.String("id", saved.ID), zap.String("outcome", outcome))
	s.publish(ctx, saved)
	return saved, nil
}

func (s *Submitter) publish(ctx context.Context, saved Startup) {
	evt, err := messaging.NewEvent(messaging.ListingSaved, saved.ID, saved)
	if err == nil {
		err = s.events.Publish(ctx, evt)
	}
	if err != nil {
		s.log.Warn("listing event not published", zap.String("id", saved.ID), zap.Error(err))
	}
}

// mergeSaved fills gaps in a terse backend echo from the record that was sent.
func mergeSaved(sent, saved Startup) Startup {
	if saved.ID == "" {
		saved.ID = sent.ID
	}
	if saved.Name == "" {
		sent.ID = saved.ID
		return sent
	}
	return saved
}
