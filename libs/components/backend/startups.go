package backend

import (
	"bytes"
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/getlisted/platform/libs/components/listing"
)

type wireStartup struct {
	listing.Startup
	MongoID string `json:"_id"`
}

func (w wireStartup) startup() listing.Startup {
	out := w.Startup
	if out.ID == "" {
		out.ID = w.MongoID
	}
	return out
}

// GetStartup fetches a listing for editing.
func (c *Client) GetStartup(ctx context.Context, id string) (listing.Startup, error) {
	if err := guard(id); err != nil {
		return listing.Startup{}, err
	}
	var wire wireStartup
	req := c.request(ctx).SetPathParam("id", id)
	if err := c.call(req, http.MethodGet, "/startups/{id}", &wire, "data", "startup"); err != nil {
		return listing.Startup{}, err
	}
	return wire.startup(), nil
}

// CreateStartup submits a new listing as a multipart form.
func (c *Client) CreateStartup(ctx context.Context, payload listing.Payload) (listing.Startup, error) {
	var wire wireStartup
	if err := c.call(c.multipart(ctx, payload), http.MethodPost, "/startups", &wire, "data", "startup"); err != nil {
		return listing.Startup{}, err
	}
	return wire.startup(), nil
}

// UpdateStartup replaces a listing with a multipart form.
func (c *Client) UpdateStartup(ctx context.Context, id string, payload listing.Payload) (listing.Startup, error) {
	if err := guard(id); err != nil {
		return listing.Startup{}, err
	}
	var wire wireStartup
	req := c.multipart(ctx, payload).SetPathParam("id", id)
	if err := c.call(req, http.MethodPut, "/startups/{id}", &wire, "data", "startup"); err != nil {
		return listing.Startup{}, err
	}
	out := wire.startup()
	if out.ID == "" {
		out.ID = id
	}
	return out, nil
}

// multipart encodes the scalar fields and JSON blobs as form fields and the
// logo, when present, as a file part.
func (c *Client) multipart(ctx context.Context, payload listing.Payload) *resty.Request {
	req := c.request(ctx).SetMultipartFormData(payload.Values())
	if payload.Logo != nil {
		contentType := payload.Logo.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		req.SetMultipartField("logo", payload.Logo.Filename, contentType, bytes.NewReader(payload.Logo.Data))
	}
	return req
}
