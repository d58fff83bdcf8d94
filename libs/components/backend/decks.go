package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/getlisted/platform/libs/components/deck"
)

type wireSlide struct {
	ident
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Notes   string `json:"notes"`
}

func (w wireSlide) slide() deck.Slide {
	return deck.Slide{ID: w.value(), Type: w.Type, Title: w.Title, Content: w.Content, Notes: w.Notes}
}

func slides(in []wireSlide) []deck.Slide {
	out := make([]deck.Slide, 0, len(in))
	for _, s := range in {
		out = append(out, s.slide())
	}
	return out
}

type wireDeck struct {
	ident
	Title       string      `json:"title"`
	CompanyName string      `json:"companyName"`
	Sector      string      `json:"sector"`
	Slides      []wireSlide `json:"slides"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (w wireDeck) deck() deck.Deck {
	return deck.Deck{
		ID:          w.value(),
		Title:       w.Title,
		CompanyName: w.CompanyName,
		Sector:      w.Sector,
		Slides:      slides(w.Slides),
		UpdatedAt:   w.UpdatedAt,
	}
}

type deckBody struct {
	Title       string       `json:"title"`
	CompanyName string       `json:"companyName"`
	Sector      string       `json:"sector"`
	Slides      []deck.Slide `json:"slides"`
}

func bodyOf(d deck.Deck) deckBody {
	s := d.Slides
	if s == nil {
		s = []deck.Slide{}
	}
	return deckBody{Title: d.Title, CompanyName: d.CompanyName, Sector: d.Sector, Slides: s}
}

// ListDecks returns every deck of the caller.
func (c *Client) ListDecks(ctx context.Context) ([]deck.Deck, error) {
	var wire []wireDeck
	if err := c.call(c.request(ctx), http.MethodGet, "/decks/getall", &wire, "data", "decks", "results"); err != nil {
		return nil, err
	}
	out := make([]deck.Deck, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.deck())
	}
	return out, nil
}

// GetDeck fetches one deck.
func (c *Client) GetDeck(ctx context.Context, id string) (deck.Deck, error) {
	if err := guard(id); err != nil {
		return deck.Deck{}, err
	}
	var wire wireDeck
	req := c.request(ctx).SetPathParam("id", id)
	if err := c.call(req, http.MethodGet, "/decks/getOne/{id}", &wire, "data", "deck"); err != nil {
		return deck.Deck{}, err
	}
	return wire.deck(), nil
}

// CreateDeck persists a new deck and returns it with its assigned id.
func (c *Client) CreateDeck(ctx context.Context, d deck.Deck) (deck.Deck, error) {
	var wire wireDeck
	req := c.request(ctx).SetBody(bodyOf(d))
	if err := c.call(req, http.MethodPost, "/decks/create", &wire, "data", "deck"); err != nil {
		return deck.Deck{}, err
	}
	return wire.deck(), nil
}

// UpdateDeck replaces a stored deck.
func (c *Client) UpdateDeck(ctx context.Context, id string, d deck.Deck) (deck.Deck, error) {
	if err := guard(id); err != nil {
		return deck.Deck{}, err
	}
	var wire wireDeck
	req := c.request(ctx).SetPathParam("id", id).SetBody(bodyOf(d))
	if err := c.call(req, http.MethodPut, "/decks/update/{id}", &wire, "data", "deck"); err != nil {
		return deck.Deck{}, err
	}
	out := wire.deck()
	if out.ID == "" {
		out.ID = id
	}
	return out, nil
}

// DeleteDeck removes a deck.
func (c *Client) DeleteDeck(ctx context.Context, id string) error {
	if err := guard(id); err != nil {
		return err
	}
	return c.call(c.request(ctx).SetPathParam("id", id), http.MethodDelete, "/decks/delete/{id}", nil)
}

// Export renders a deck and returns the file contents.
func (c *Client) Export(ctx context.Context, deckID string, format deck.ExportFormat) ([]byte, error) {
	if err := guard(deckID); err != nil {
		return nil, err
	}
	req := c.request(ctx).
		SetHeader("Accept", format.ContentType()).
		SetBody(map[string]string{"deckId": deckID, "format": string(format)})
	return c.send(req, http.MethodPost, "/export/")
}
