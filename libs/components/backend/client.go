// Package backend is the REST client for the GetListed API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/getlisted/platform/libs/components/deck"
	"github.com/getlisted/platform/libs/shared/observability"
)

// FallbackMessage is shown when the backend gives no usable error message.
const FallbackMessage = "Something went wrong. Please try again."

// ErrPlaceholderID is returned, without any network call, for ids that are
// empty or still an unsubstituted route parameter.
var ErrPlaceholderID = errors.New("placeholder id")

// APIError is a failed backend call. Message is the server's own message
// when it sent one.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

type tokenKey struct{}

// WithToken attaches the caller's bearer token to ctx; requests made with the
// context forward it.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token set by WithToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client calls the backend. Requests are single attempts; nothing is retried.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		observability.BackendLatency.
			WithLabelValues(resp.Request.Method, strconv.Itoa(resp.StatusCode())).
			Observe(resp.Time().Seconds())
		return nil
	})

	return &Client{http: rc, log: log}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if token := TokenFromContext(ctx); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// send executes req and returns the raw body of a 2xx response.
func (c *Client) send(req *resty.Request, method, path string) ([]byte, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Warn("backend unreachable", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, &APIError{Message: FallbackMessage, Err: err}
	}
	if resp.IsError() {
		apiErr := errorFromBody(resp.StatusCode(), resp.Body())
		c.log.Debug("backend error", zap.String("method", method), zap.String("path", path),
			zap.Int("status", apiErr.Status), zap.String("message", apiErr.Message))
		return nil, apiErr
	}
	return resp.Body(), nil
}

// call executes req and decodes the response, unwrapping the first envelope
// key present in the body.
func (c *Client) call(req *resty.Request, method, path string, out any, envelope ...string) error {
	body, err := c.send(req, method, path)
	if err != nil || out == nil {
		return err
	}
	if err := json.Unmarshal(unwrap(body, envelope...), out); err != nil {
		return &APIError{Status: 200, Message: FallbackMessage, Err: err}
	}
	return nil
}

func errorFromBody(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: FallbackMessage}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case strings.TrimSpace(payload.Message) != "":
			apiErr.Message = payload.Message
		case strings.TrimSpace(payload.Error) != "":
			apiErr.Message = payload.Error
		}
	}
	apiErr.Err = errors.New(strconv.Itoa(status) + " " + apiErr.Message)
	return apiErr
}

// unwrap returns the value under the first of keys found in a JSON object
// body, or the body itself.
func unwrap(body []byte, keys ...string) []byte {
	if len(keys) == 0 {
		return body
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return body
	}
	for _, key := range keys {
		if raw, ok := obj[key]; ok && len(raw) > 0 && string(raw) != "null" {
			return raw
		}
	}
	return body
}

func guard(id string) error {
	if deck.IsPlaceholderID(id) {
		return ErrPlaceholderID
	}
	return nil
}

// ident accepts either "id" or the document store's "_id".
type ident struct {
	ID      string `json:"id"`
	MongoID string `json:"_id"`
}

func (i ident) value() string {
	if i.ID != "" {
		return i.ID
	}
	return i.MongoID
}
