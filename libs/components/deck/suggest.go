package deck

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Suggester fetches AI content suggestions, collapsing identical concurrent
// requests into one backend call.
type Suggester struct {
	api   API
	group singleflight.Group
}

// NewSuggester wraps api.
func NewSuggester(api API) *Suggester {
	return &Suggester{api: api}
}

// Suggest returns suggestions for the slide identified by slideID. Calls with
// the same sector, slide and content share one request. The shared request
// is not bound to any single caller's cancellation; each caller still stops
// waiting when its own ctx is done.
func (s *Suggester) Suggest(ctx context.Context, slideID string, req SuggestionRequest) ([]string, error) {
	key := req.Sector + "\x00" + slideID + "\x00" + req.CurrentContent
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.api.Suggest(shared, req)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return append([]string{}, res.Val.([]string)...), nil
	}
}

type suggestionKey struct {
	sector, slideID, content string
}

// RefreshSuggestions fetches suggestions for the active slide. Nothing is
// fetched until the deck has a sector. A response is dropped when the sector,
// slide or content changed while it was in flight.
func (r *Reconciler) RefreshSuggestions(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	key, req, ok := r.suggestionLocked()
	r.mu.Unlock()
	if !ok {
		return nil
	}

	out, err := r.suggester.Suggest(ctx, key.slideID, req)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if current, _, ok := r.suggestionLocked(); !ok || current != key {
		return nil
	}
	if err != nil {
		r.err = err.Error()
		return err
	}
	r.suggestions = out
	return nil
}

// Suggestions returns the suggestions for the active slide.
func (r *Reconciler) Suggestions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.suggestions...)
}

func (r *Reconciler) suggestionLocked() (suggestionKey, SuggestionRequest, bool) {
	d := r.currentLocked()
	if d.Sector == "" || r.active < 0 || r.active >= len(d.Slides) {
		return suggestionKey{}, SuggestionRequest{}, false
	}
	slide := d.Slides[r.active]
	key := suggestionKey{sector: d.Sector, slideID: slide.ID, content: slide.Content}
	req := SuggestionRequest{Sector: d.Sector, SlideType: slide.Type, CurrentContent: slide.Content}
	return key, req, true
}
