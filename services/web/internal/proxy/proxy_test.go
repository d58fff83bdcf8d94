package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardCopiesJSON(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/directory/abc", r.URL.Path)
		assert.Equal(t, "stage=seed", r.URL.RawQuery)
		assert.Equal(t, "Bearer t0k", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("Cookie"))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Set-Cookie", "x=1")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"data":{"id":"abc"}}`)
	}))
	defer upstream.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://localhost/api/directory/abc?stage=seed", nil)
	req.Header.Set("Authorization", "Bearer t0k")
	req.Header.Set("Cookie", "session=1")

	Forward(rec, req, upstream.Client(), upstream.URL+"/directory/", "/abc")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"id":"abc"}}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestForwardUnreachableUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	base := upstream.URL
	upstream.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://localhost/api/directory", nil)
	Forward(rec, req, http.DefaultClient, base, "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestBuildTargetURL(t *testing.T) {
	got, err := buildTargetURL("http://indexer:8082/directory", "/summary", "")
	require.NoError(t, err)
	assert.Equal(t, "http://indexer:8082/directory/summary", got)

	got, err = buildTargetURL("http://indexer:8082/directory/", "", "limit=5")
	require.NoError(t, err)
	assert.Equal(t, "http://indexer:8082/directory/?limit=5", got)

	_, err = buildTargetURL("indexer:8082", "/x", "")
	assert.Error(t, err)
}

func TestFetchData(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, "boom")
			return
		}
		io.WriteString(w, `{"data":{"total":3}}`)
	}))
	defer upstream.Close()

	var out struct {
		Total int `json:"total"`
	}
	require.NoError(t, FetchData(context.Background(), upstream.Client(), upstream.URL+"/summary", &out))
	assert.Equal(t, 3, out.Total)

	err := FetchData(context.Background(), upstream.Client(), upstream.URL+"/broken", &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadGateway))
	assert.Contains(t, err.Error(), "boom")
}
