package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrBadGateway is returned when the upstream response cannot be consumed.
var ErrBadGateway = errors.New("bad gateway")

// Forward relays an incoming request to the upstream base URL and writes the
// upstream response back to the client. The suffix is appended to the base
// URL and should begin with a slash when targeting nested resources.
func Forward(w http.ResponseWriter, r *http.Request, client *http.Client, base string, suffix string) {
	target, err := buildTargetURL(base, suffix, r.URL.RawQuery)
	if err != nil {
		http.Error(w, "invalid upstream url", http.StatusBadGateway)
		return
	}

	body, err := readRequestBody(r)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		http.Error(w, "failed to create upstream request", http.StatusBadGateway)
		return
	}
	copyRequestHeaders(req.Header, r.Header)

	resp, err := client.Do(req)
	if err != nil {
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	copyResponseHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if resp.StatusCode != http.StatusNoContent {
		io.Copy(w, resp.Body)
	}
}

// FetchData issues a GET against target and decodes the "data" member of the
// JSON envelope into out.
func FetchData(ctx context.Context, client *http.Client, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer DrainAndClose(resp)

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s responded with %d: %s", ErrBadGateway, target, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrBadGateway, err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

// DrainAndClose discards any remaining bytes to allow connection reuse.
func DrainAndClose(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func buildTargetURL(base string, suffix string, rawQuery string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return "", fmt.Errorf("upstream %q is not absolute", base)
	}

	if suffix != "" && suffix != "/" {
		baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/" + strings.TrimLeft(suffix, "/")
	}
	if rawQuery != "" {
		baseURL.RawQuery = rawQuery
	}
	return baseURL.String(), nil
}

func readRequestBody(r *http.Request) (io.ReadCloser, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return http.NoBody, nil
	}
	defer r.Body.Close()

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, r.Body); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

func copyRequestHeaders(dst http.Header, src http.Header) {
	for key, values := range src {
		lower := strings.ToLower(key)
		if lower == "content-type" || lower == "authorization" || strings.HasPrefix(lower, "x-") {
			for _, value := range values {
				dst.Add(key, value)
			}
		}
	}
}

func copyResponseHeaders(dst http.Header, src http.Header) {
	for key, values := range src {
		lower := strings.ToLower(key)
		if lower == "content-type" || lower == "content-length" || strings.HasPrefix(lower, "x-") {
			dst[key] = append([]string(nil), values...)
		}
	}
}
