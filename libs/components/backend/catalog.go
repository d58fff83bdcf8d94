package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/getlisted/platform/libs/components/deck"
)

type wireTemplate struct {
	ident
	Name        string      `json:"name"`
	Sector      string      `json:"sector"`
	Description string      `json:"description"`
	Slides      []wireSlide `json:"slides"`
}

func (w wireTemplate) template() deck.Template {
	return deck.Template{ID: w.value(), Name: w.Name, Sector: w.Sector, Description: w.Description, Slides: slides(w.Slides)}
}

type wireExample struct {
	ident
	SlideType string `json:"slideType"`
	Sector    string `json:"sector"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

func (w wireExample) example() deck.Example {
	return deck.Example{ID: w.value(), SlideType: w.SlideType, Sector: w.Sector, Title: w.Title, Content: w.Content}
}

// ListTemplates returns the template catalogue, narrowed to sector when set.
func (c *Client) ListTemplates(ctx context.Context, sector string) ([]deck.Template, error) {
	req := c.request(ctx)
	if sector = strings.TrimSpace(sector); sector != "" {
		req.SetQueryParam("sector", sector)
	}
	var wire []wireTemplate
	if err := c.call(req, http.MethodGet, "/templates", &wire, "data", "templates", "results"); err != nil {
		return nil, err
	}
	out := make([]deck.Template, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.template())
	}
	return out, nil
}

// GetTemplate fetches one template.
func (c *Client) GetTemplate(ctx context.Context, id string) (deck.Template, error) {
	if err := guard(id); err != nil {
		return deck.Template{}, err
	}
	var wire wireTemplate
	req := c.request(ctx).SetPathParam("id", id)
	if err := c.call(req, http.MethodGet, "/templates/{id}", &wire, "data", "template"); err != nil {
		return deck.Template{}, err
	}
	return wire.template(), nil
}

// CreateTemplate adds a template to the catalogue.
func (c *Client) CreateTemplate(ctx context.Context, t deck.Template) (deck.Template, error) {
	t.ID = ""
	var wire wireTemplate
	if err := c.call(c.request(ctx).SetBody(t), http.MethodPost, "/templates/", &wire, "data", "template"); err != nil {
		return deck.Template{}, err
	}
	return wire.template(), nil
}

// ListExamples returns reference slides for a slide type and sector.
func (c *Client) ListExamples(ctx context.Context, slideType, sector string) ([]deck.Example, error) {
	req := c.request(ctx).SetQueryParams(map[string]string{
		"slideType": slideType,
		"sector":    sector,
	})
	var wire []wireExample
	if err := c.call(req, http.MethodGet, "/examples", &wire, "data", "examples", "results"); err != nil {
		return nil, err
	}
	out := make([]deck.Example, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.example())
	}
	return out, nil
}

// CreateExample adds a reference slide.
func (c *Client) CreateExample(ctx context.Context, e deck.Example) (deck.Example, error) {
	e.ID = ""
	var wire wireExample
	if err := c.call(c.request(ctx).SetBody(e), http.MethodPost, "/examples/", &wire, "data", "example"); err != nil {
		return deck.Example{}, err
	}
	return wire.example(), nil
}
