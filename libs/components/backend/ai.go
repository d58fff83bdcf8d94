package backend

import (
	"context"
	"net/http"

	"github.com/getlisted/platform/libs/components/deck"
)

// Suggest asks the AI service for content ideas for one slide.
func (c *Client) Suggest(ctx context.Context, req deck.SuggestionRequest) ([]string, error) {
	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := c.call(c.request(ctx).SetBody(req), http.MethodPost, "/ai/suggest", &out, "data"); err != nil {
		return nil, err
	}
	if out.Suggestions == nil {
		return []string{}, nil
	}
	return out.Suggestions, nil
}

// GenerateDeck asks the AI service for a complete slide set.
func (c *Client) GenerateDeck(ctx context.Context, req deck.GenerateRequest) ([]deck.Slide, error) {
	var out struct {
		Slides []wireSlide `json:"slides"`
	}
	if err := c.call(c.request(ctx).SetBody(req), http.MethodPost, "/ai/generate-deck", &out, "data"); err != nil {
		return nil, err
	}
	return slides(out.Slides), nil
}
