package deck

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/getlisted/platform/libs/shared/messaging"
	"github.com/getlisted/platform/libs/shared/observability"
)

var (
	ErrSaveInFlight    = errors.New("a save is already in progress")
	ErrNotPersisted    = errors.New("deck has not been saved yet")
	ErrClosed          = errors.New("deck editor is closed")
	ErrNoIdentity      = errors.New("backend returned a deck without an id")
	ErrSlideIndex      = errors.New("slide index out of range")
	ErrLastSlide       = errors.New("a deck needs at least one slide")
	ErrUnknownFormat   = errors.New("unknown export format")
	ErrEmptyTemplate   = errors.New("template has no slides")
	ErrIncompleteInput = errors.New("sector and company name are required")
)

// API is the subset of the backend the reconciler talks to.
type API interface {
	GetDeck(ctx context.Context, id string) (Deck, error)
	CreateDeck(ctx context.Context, d Deck) (Deck, error)
	UpdateDeck(ctx context.Context, id string, d Deck) (Deck, error)
	DeleteDeck(ctx context.Context, id string) error
	ListTemplates(ctx context.Context, sector string) ([]Template, error)
	GetTemplate(ctx context.Context, id string) (Template, error)
	Suggest(ctx context.Context, req SuggestionRequest) ([]string, error)
	GenerateDeck(ctx context.Context, req GenerateRequest) ([]Slide, error)
	Export(ctx context.Context, deckID string, format ExportFormat) ([]byte, error)
}

// Option customises a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

// WithEvents publishes deck.saved and deck.deleted events to p.
func WithEvents(p messaging.Publisher) Option {
	return func(r *Reconciler) {
		if p != nil {
			r.events = p
		}
	}
}

// WithSuggester shares a suggestion fetcher between reconcilers.
func WithSuggester(s *Suggester) Option {
	return func(r *Reconciler) {
		if s != nil {
			r.suggester = s
		}
	}
}

// Reconciler keeps the editor's view of one pitch deck in step with the
// backend. A deck opened with NewDeckID is edited as a local Draft; any other
// id is edited as the Loaded copy fetched by Load. One active slide index
// points into whichever is current.
type Reconciler struct {
	api       API
	suggester *Suggester
	events    messaging.Publisher
	log       *zap.Logger

	mu          sync.Mutex
	id          string
	draft       Deck
	loaded      *Deck
	templates   []Template
	suggestions []string
	active      int
	saving      bool
	closed      bool
	err         string
}

// NewReconciler opens a deck editor for id. An empty id opens a new draft.
func NewReconciler(api API, id string, opts ...Option) *Reconciler {
	id = strings.TrimSpace(id)
	if id == "" {
		id = NewDeckID
	}
	r := &Reconciler{
		api:    api,
		events: messaging.Discard{},
		log:    zap.NewNop(),
		id:     id,
		draft:  NewDraft(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.suggester == nil {
		r.suggester = NewSuggester(api)
	}
	return r
}

func persistedID(id string) bool {
	return id != NewDeckID && !IsPlaceholderID(id)
}

// Load fetches the deck and the template catalogue concurrently. Placeholder
// ids make it a no-op; a new draft only fetches templates. A catalogue
// failure is logged and does not fail the load.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	id, closed := r.id, r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if IsPlaceholderID(id) {
		return nil
	}

	var (
		fetched   Deck
		templates []Template
	)
	g, gctx := errgroup.WithContext(ctx)
	if persistedID(id) {
		g.Go(func() error {
			d, err := r.api.GetDeck(gctx, id)
			if err != nil {
				return err
			}
			fetched = d
			return nil
		})
	}
	g.Go(func() error {
		t, err := r.api.ListTemplates(gctx, "")
		if err != nil {
			r.log.Warn("template catalogue unavailable", zap.Error(err))
			return nil
		}
		templates = t
		return nil
	})
	err := g.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.id != id {
		return nil
	}
	if err != nil {
		r.err = err.Error()
		return err
	}

	r.templates = templates
	if persistedID(id) {
		fetched = fetched.Clone()
		if fetched.ID == "" {
			fetched.ID = id
		}
		r.loaded = &fetched
		r.active = 0
	}
	return nil
}

// Current returns a copy of the deck being edited.
func (r *Reconciler) Current() Deck {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentLocked().Clone()
}

// ID returns the deck's current identity, NewDeckID until the first save.
func (r *Reconciler) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// ActiveIndex returns the selected slide.
func (r *Reconciler) ActiveIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// SetActiveSlide selects a slide and refreshes suggestions for it.
func (r *Reconciler) SetActiveSlide(ctx context.Context, index int) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if index < 0 || index >= len(r.currentLocked().Slides) {
		r.mu.Unlock()
		return ErrSlideIndex
	}
	r.active = index
	r.mu.Unlock()
	return r.RefreshSuggestions(ctx)
}

// SetSector changes the deck's sector and refreshes suggestions.
func (r *Reconciler) SetSector(ctx context.Context, sector string) error {
	err := r.mutate(func(d *Deck) error {
		d.Sector = strings.TrimSpace(sector)
		return nil
	})
	if err != nil {
		return err
	}
	return r.RefreshSuggestions(ctx)
}

// SetDetails changes the deck title and company name.
func (r *Reconciler) SetDetails(title, companyName string) error {
	return r.mutate(func(d *Deck) error {
		d.Title = title
		d.CompanyName = companyName
		return nil
	})
}

// EditSlide replaces the content of the active slide.
func (r *Reconciler) EditSlide(content string) error {
	return r.mutateActive(func(s *Slide) { s.Content = content })
}

// RenameSlide replaces the title of the active slide.
func (r *Reconciler) RenameSlide(title string) error {
	return r.mutateActive(func(s *Slide) { s.Title = title })
}

// AddSlide inserts an empty slide after the active one and selects it.
func (r *Reconciler) AddSlide(slideType, title string) (int, error) {
	var index int
	err := r.mutate(func(d *Deck) error {
		index = 0
		if len(d.Slides) > 0 {
			index = r.active + 1
		}
		d.Slides = append(d.Slides, Slide{})
		copy(d.Slides[index+1:], d.Slides[index:])
		d.Slides[index] = NewSlide(slideType, title)
		r.active = index
		return nil
	})
	return index, err
}

// RemoveSlide deletes the slide at index, keeping the selection on a valid slide.
func (r *Reconciler) RemoveSlide(index int) error {
	return r.mutate(func(d *Deck) error {
		if index < 0 || index >= len(d.Slides) {
			return ErrSlideIndex
		}
		if len(d.Slides) == 1 {
			return ErrLastSlide
		}
		d.Slides = append(d.Slides[:index:index], d.Slides[index+1:]...)
		if index < r.active || r.active >= len(d.Slides) {
			r.active--
		}
		return nil
	})
}

// MoveSlide moves the slide at from to position to. The selection follows
// the moved slide when it was active.
func (r *Reconciler) MoveSlide(from, to int) error {
	return r.mutate(func(d *Deck) error {
		n := len(d.Slides)
		if from < 0 || from >= n || to < 0 || to >= n {
			return ErrSlideIndex
		}
		activeID := d.Slides[r.active].ID
		moved := d.Slides[from]
		d.Slides = append(d.Slides[:from:from], d.Slides[from+1:]...)
		d.Slides = append(d.Slides[:to], append([]Slide{moved}, d.Slides[to:]...)...)
		for i, s := range d.Slides {
			if s.ID == activeID {
				r.active = i
				break
			}
		}
		return nil
	})
}

// ApplyTemplate replaces the deck's slides with a copy of a template's.
// Placeholder template ids are ignored.
func (r *Reconciler) ApplyTemplate(ctx context.Context, templateID string) error {
	if IsPlaceholderID(templateID) {
		return nil
	}
	if r.isClosed() {
		return ErrClosed
	}

	t, err := r.api.GetTemplate(ctx, templateID)
	if err == nil && len(t.Slides) == 0 {
		err = ErrEmptyTemplate
	}
	return r.settle(err, func(d *Deck) {
		d.Slides = withFreshIDs(t.Slides)
		if d.Sector == "" {
			d.Sector = t.Sector
		}
		r.active = 0
		r.suggestions = nil
	})
}

// Generate asks the AI backend for a full deck and replaces the slides with
// the result. Missing sector and company name default to the deck's own.
func (r *Reconciler) Generate(ctx context.Context, req GenerateRequest) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	current := r.currentLocked()
	if strings.TrimSpace(req.Sector) == "" {
		req.Sector = current.Sector
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		req.CompanyName = current.CompanyName
	}
	r.mu.Unlock()
	if req.Sector == "" || req.CompanyName == "" {
		return ErrIncompleteInput
	}

	slides, err := r.api.GenerateDeck(ctx, req)
	if err == nil && len(slides) == 0 {
		err = ErrEmptyTemplate
	}
	return r.settle(err, func(d *Deck) {
		for i := range slides {
			if slides[i].ID == "" {
				slides[i].ID = NewSlide("", "").ID
			}
		}
		d.Slides = append([]Slide{}, slides...)
		d.Sector = req.Sector
		d.CompanyName = req.CompanyName
		r.active = 0
		r.suggestions = nil
	})
}

// Save persists the deck. A draft is created and the editor then adopts the
// backend-assigned id, so every later save is an update of that id. Edits
// made while the save was in flight are kept.
func (r *Reconciler) Save(ctx context.Context) (Deck, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Deck{}, ErrClosed
	}
	if r.saving {
		r.mu.Unlock()
		return Deck{}, ErrSaveInFlight
	}
	r.saving = true
	r.err = ""
	id := r.id
	body := r.currentLocked().Clone()
	r.mu.Unlock()

	operation := "update"
	var (
		saved Deck
		err   error
	)
	if persistedID(id) {
		body.ID = id
		saved, err = r.api.UpdateDeck(ctx, id, body)
	} else {
		operation = "create"
		body.ID = ""
		saved, err = r.api.CreateDeck(ctx, body)
		if err == nil && !persistedID(saved.ID) {
			err = ErrNoIdentity
		}
	}

	r.mu.Lock()
	r.saving = false
	if err != nil {
		if !r.closed {
			r.err = err.Error()
		}
		r.mu.Unlock()
		observability.DeckSaves.WithLabelValues(operation, "error").Inc()
		r.log.Warn("deck save failed", zap.String("id", id), zap.String("operation", operation), zap.Error(err))
		return Deck{}, err
	}
	if r.closed {
		r.mu.Unlock()
		return saved, nil
	}

	current := r.currentLocked().Clone()
	current.ID = id
	if saved.ID != "" {
		current.ID = saved.ID
	}
	current.UpdatedAt = saved.UpdatedAt
	r.id = current.ID
	r.loaded = &current
	out := current.Clone()
	r.mu.Unlock()

	observability.DeckSaves.WithLabelValues(operation, "ok").Inc()
	r.log.Info("deck saved", zap.String("id", out.ID), zap.String("operation", operation))
	r.publish(ctx, messaging.DeckSaved, out.ID, out)
	return out, nil
}

// Delete removes the persisted deck. The editor then starts over on a fresh draft.
func (r *Reconciler) Delete(ctx context.Context) error {
	id, err := r.persisted()
	if err != nil {
		return err
	}

	err = r.api.DeleteDeck(ctx, id)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return err
	}
	if err != nil {
		r.err = err.Error()
		r.mu.Unlock()
		return err
	}
	r.id = NewDeckID
	r.loaded = nil
	r.draft = NewDraft()
	r.active = 0
	r.suggestions = nil
	r.mu.Unlock()

	r.publish(ctx, messaging.DeckDeleted, id, nil)
	return nil
}

// Export renders the persisted deck through the export service.
func (r *Reconciler) Export(ctx context.Context, format ExportFormat) ([]byte, error) {
	if _, ok := ParseExportFormat(string(format)); !ok {
		return nil, ErrUnknownFormat
	}
	id, err := r.persisted()
	if err != nil {
		return nil, err
	}

	data, err := r.api.Export(ctx, id, format)
	if err != nil {
		r.mu.Lock()
		if !r.closed {
			r.err = err.Error()
		}
		r.mu.Unlock()
		return nil, err
	}
	return data, nil
}

// Err returns the last backend error message, if any.
func (r *Reconciler) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// ClearErr dismisses the last error.
func (r *Reconciler) ClearErr() {
	r.mu.Lock()
	r.err = ""
	r.mu.Unlock()
}

// Close tears the editor down; results of calls still in flight are dropped.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Snapshot is a consistent copy of the editor state.
type Snapshot struct {
	ID          string     `json:"id"`
	Persisted   bool       `json:"persisted"`
	Deck        Deck       `json:"deck"`
	ActiveIndex int        `json:"activeIndex"`
	Templates   []Template `json:"templates"`
	Suggestions []string   `json:"suggestions"`
	Saving      bool       `json:"saving"`
	Error       string     `json:"error,omitempty"`
}

// Snapshot copies the editor state.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		ID:          r.id,
		Persisted:   persistedID(r.id),
		Deck:        r.currentLocked().Clone(),
		ActiveIndex: r.active,
		Templates:   append([]Template{}, r.templates...),
		Suggestions: append([]string{}, r.suggestions...),
		Saving:      r.saving,
		Error:       r.err,
	}
}

func (r *Reconciler) currentLocked() *Deck {
	if r.loaded != nil {
		return r.loaded
	}
	return &r.draft
}

func (r *Reconciler) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Reconciler) persisted() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", ErrClosed
	}
	if !persistedID(r.id) {
		return "", ErrNotPersisted
	}
	return r.id, nil
}

func (r *Reconciler) mutate(apply func(d *Deck) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return apply(r.currentLocked())
}

func (r *Reconciler) mutateActive(apply func(s *Slide)) error {
	return r.mutate(func(d *Deck) error {
		if r.active < 0 || r.active >= len(d.Slides) {
			return ErrSlideIndex
		}
		apply(&d.Slides[r.active])
		return nil
	})
}

// settle applies the outcome of a backend call unless the editor was closed
// while it was in flight.
func (r *Reconciler) settle(err error, apply func(d *Deck)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if err != nil {
		r.err = err.Error()
		return err
	}
	apply(r.currentLocked())
	return nil
}

func (r *Reconciler) publish(ctx context.Context, eventType, id string, payload any) {
	evt, err := messaging.NewEvent(eventType, id, payload)
	if err == nil {
		err = r.events.Publish(ctx, evt)
	}
	if err != nil {
		r.log.Warn("deck event not published", zap.String("id", id), zap.String("type", eventType), zap.Error(err))
	}
}
