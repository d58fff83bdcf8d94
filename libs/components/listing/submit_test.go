package listing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/getlisted/platform/libs/shared/messaging"
)

type fakeStore struct {
	mu      sync.Mutex
	created []Payload
	updated map[string]Payload
	saved   Startup
	err     error

	entered chan struct{}
	release chan struct{}
}

func (s *fakeStore) wait() {
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
}

func (s *fakeStore) CreateStartup(_ context.Context, p Payload) (Startup, error) {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, p)
	return s.saved, s.err
}

func (s *fakeStore) UpdateStartup(_ context.Context, id string, p Payload) (Startup, error) {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updated == nil {
		s.updated = map[string]Payload{}
	}
	s.updated[id] = p
	return s.saved, s.err
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created) + len(s.updated)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func filledCreateForm(t *testing.T) *Form {
	t.Helper()
	f := NewCreateForm()
	edits := map[string]string{
		"name":             "Acme Robotics",
		"category":         "Robotics",
		"stage":            "seed",
		"country":          "Germany",
		"founders[0].name": "Ada",
	}
	for path, value := range edits {
		require.NoError(t, f.Edit(path, value), path)
	}
	f.Settle()
	return f
}

func TestSubmitWithoutNamedFounderNeverReachesStore(t *testing.T) {
	store := &fakeStore{}
	sub := NewSubmitter(store, nil, zap.NewNop())

	f := filledCreateForm(t)
	f.Edit("founders[0].name", "   ")

	_, err := sub.Submit(context.Background(), f, nil)

	var failure *ValidationFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, []Section{SectionFounders}, failure.Sections)
	assert.Contains(t, err.Error(), "Founders")
	assert.Equal(t, "At least one founder with a name is required", failure.Errors["founders"])
	assert.Zero(t, store.calls())
	assert.False(t, f.Snapshot().Submitting)
}

func TestSubmitListsEveryFailingSection(t *testing.T) {
	store := &fakeStore{}
	sub := NewSubmitter(store, nil, zap.NewNop())

	_, err := sub.Submit(context.Background(), NewCreateForm(), nil)

	assert.EqualError(t, err, "Please fix errors in: Basic Information, Location, Founders")
	assert.Zero(t, store.calls())
}

func TestSubmitCreatesAndPublishes(t *testing.T) {
	store := &fakeStore{saved: Startup{ID: "new-id"}}
	events := &recordingPublisher{}
	sub := NewSubmitter(store, events, zap.NewNop())
	f := filledCreateForm(t)

	saved, err := sub.Submit(context.Background(), f, nil)

	require.NoError(t, err)
	assert.Equal(t, "new-id", saved.ID)
	assert.Equal(t, "Acme Robotics", saved.Name)
	require.Len(t, store.created, 1)
	assert.Equal(t, "Acme Robotics", store.created[0].Values()["name"])
	assert.True(t, f.Snapshot().Closed)

	require.Len(t, events.events, 1)
	assert.Equal(t, messaging.ListingSaved, events.events[0].Type)
	assert.Equal(t, "new-id", events.events[0].EntityID)
}

func TestEditModeSubmitWithoutChanges(t *testing.T) {
	rec := validStartup()
	rec.ID = "s-42"
	store := &fakeStore{saved: rec}
	sub := NewSubmitter(store, nil, zap.NewNop())

	saved, err := sub.Submit(context.Background(), NewEditForm(rec), nil)

	require.NoError(t, err)
	assert.Equal(t, "s-42", saved.ID)
	assert.Empty(t, store.created)
	assert.Contains(t, store.updated, "s-42")
}

func TestEditModeSubmitKeepsBackendRevenue(t *testing.T) {
	rec := validStartup()
	rec.ID = "s-43"
	rec.Metrics.Revenue = "$1M - $5M"
	store := &fakeStore{saved: rec}
	sub := NewSubmitter(store, nil, zap.NewNop())

	saved, err := sub.Submit(context.Background(), NewEditForm(rec), nil)

	require.NoError(t, err)
	assert.Equal(t, "$1M - $5M", saved.Metrics.Revenue)
	assert.Equal(t, 1, store.calls())
}

func TestBackendFailureLeavesFormEditable(t *testing.T) {
	store := &fakeStore{err: errors.New("Startup name already taken")}
	sub := NewSubmitter(store, nil, zap.NewNop())
	f := filledCreateForm(t)

	_, err := sub.Submit(context.Background(), f, nil)
	require.EqualError(t, err, "Startup name already taken")

	snap := f.Snapshot()
	assert.False(t, snap.Closed)
	assert.False(t, snap.Submitting)
	assert.Equal(t, "Startup name already taken", snap.Error)

	f.DismissError()
	assert.Empty(t, f.Snapshot().Error)

	store.err = nil
	store.saved = Startup{ID: "retry"}
	_, err = sub.Submit(context.Background(), f, nil)
	require.NoError(t, err)
	assert.Len(t, store.created, 2)
}

func TestConcurrentSubmitIsRejected(t *testing.T) {
	store := &fakeStore{
		saved:   Startup{ID: "once"},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	sub := NewSubmitter(store, nil, zap.NewNop())
	f := filledCreateForm(t)

	done := make(chan error, 1)
	go func() {
		_, err := sub.Submit(context.Background(), f, nil)
		done <- err
	}()
	<-store.entered

	assert.True(t, f.Snapshot().Submitting)
	_, err := sub.Submit(context.Background(), f, nil)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(store.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, store.calls())
}

func TestLateResultAfterCloseIsDiscarded(t *testing.T) {
	store := &fakeStore{
		err:     errors.New("boom"),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	sub := NewSubmitter(store, nil, zap.NewNop())
	f := filledCreateForm(t)

	done := make(chan error, 1)
	go func() {
		_, err := sub.Submit(context.Background(), f, nil)
		done <- err
	}()
	<-store.entered
	f.Close()
	close(store.release)

	assert.Error(t, <-done)
	snap := f.Snapshot()
	assert.True(t, snap.Closed)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.Submitting)
}

func TestMergeSavedPrefersFullEcho(t *testing.T) {
	sent := validStartup()
	echo := validStartup()
	echo.ID = "abc"
	echo.Name = "Acme Robotics GmbH"

	assert.Equal(t, echo, mergeSaved(sent, echo))

	terse := mergeSaved(sent, Startup{ID: "abc"})
	assert.Equal(t, "abc", terse.ID)
	assert.Equal(t, sent.Name, terse.Name)
}
