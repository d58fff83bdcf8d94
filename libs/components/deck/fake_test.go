package deck

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

type fakeAPI struct {
	mu sync.Mutex

	decks     map[string]Deck
	templates map[string]Template
	nextID    int

	creates   int
	updates   []string
	deletes   []string
	suggests  int
	exports   []string
	saveErr   error
	getErr    error
	blockSave chan struct{}
	enterSave chan struct{}
	blockTip  chan struct{}
	enterTip  chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		decks: map[string]Deck{},
		templates: map[string]Template{
			"fintech": {ID: "fintech", Name: "Fintech", Sector: "fintech", Slides: []Slide{
				{ID: "t1", Type: "problem", Title: "Payments are slow"},
				{ID: "t2", Type: "solution", Title: "Instant rails"},
			}},
		},
	}
}

func (f *fakeAPI) GetDeck(_ context.Context, id string) (Deck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return Deck{}, f.getErr
	}
	d, ok := f.decks[id]
	if !ok {
		return Deck{}, errors.New("Deck not found")
	}
	return d.Clone(), nil
}

func (f *fakeAPI) waitSave() {
	if f.enterSave != nil {
		f.enterSave <- struct{}{}
		<-f.blockSave
	}
}

func (f *fakeAPI) CreateDeck(_ context.Context, d Deck) (Deck, error) {
	f.waitSave()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.saveErr != nil {
		return Deck{}, f.saveErr
	}
	f.nextID++
	d.ID = "deck-" + strconv.Itoa(f.nextID)
	f.decks[d.ID] = d.Clone()
	return d, nil
}

func (f *fakeAPI) UpdateDeck(_ context.Context, id string, d Deck) (Deck, error) {
	f.waitSave()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, id)
	if f.saveErr != nil {
		return Deck{}, f.saveErr
	}
	f.decks[id] = d.Clone()
	return d, nil
}

func (f *fakeAPI) DeleteDeck(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	delete(f.decks, id)
	return nil
}

func (f *fakeAPI) ListTemplates(_ context.Context, _ string) ([]Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Template, 0, len(f.templates))
	for _, t := range f.templates {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeAPI) GetTemplate(_ context.Context, id string) (Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.templates[id]
	if !ok {
		return Template{}, errors.New("Template not found")
	}
	return t, nil
}

func (f *fakeAPI) Suggest(ctx context.Context, req SuggestionRequest) ([]string, error) {
	if f.enterTip != nil {
		f.enterTip <- struct{}{}
		<-f.blockTip
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggests++
	return []string{"Quantify the " + req.SlideType + " for " + req.Sector}, nil
}

func (f *fakeAPI) GenerateDeck(_ context.Context, req GenerateRequest) ([]Slide, error) {
	return []Slide{
		{Type: "title", Title: req.CompanyName},
		{Type: "problem", Title: "Problem", Content: req.ProblemStatement},
	}, nil
}

func (f *fakeAPI) Export(_ context.Context, id string, format ExportFormat) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exports = append(f.exports, id+"."+string(format))
	return []byte("%PDF-1.7"), nil
}

func (f *fakeAPI) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

func (f *fakeAPI) suggestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.suggests
}
