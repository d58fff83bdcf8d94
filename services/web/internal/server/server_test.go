package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/getlisted/platform/libs/components/backend"
	"github.com/getlisted/platform/libs/components/deck"
	"github.com/getlisted/platform/libs/components/listing"
	"github.com/getlisted/platform/libs/shared/session"
	"github.com/getlisted/platform/services/web/internal/config"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	router := chi.NewRouter()
	router.Get("/api/startups/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-9" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"_id": chi.URLParam(r, "id"), "name": "Acme"})
	})
	router.Get("/api/templates", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"_id": "t1", "name": "Fintech", "sector": "fintech"}})
	})
	router.Get("/api/decks/getall", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"decks": []map[string]any{{"_id": "d1"}, {"_id": "d2"}}})
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func fakeIndexer(t *testing.T) *httptest.Server {
	t.Helper()
	router := chi.NewRouter()
	router.Get("/directory", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": "s1", "stage": r.URL.Query().Get("stage")}}})
	})
	router.Get("/directory/summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"total": 4, "byStage": map[string]int{"seed": 4}}})
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(t *testing.T, directoryURL string) http.Handler {
	t.Helper()
	api := fakeBackend(t)

	forms := session.NewStore[*listing.Form](time.Hour, 0)
	decks := session.NewStore[*deck.Reconciler](time.Hour, 0)
	t.Cleanup(forms.Close)
	t.Cleanup(decks.Close)

	cfg := config.Config{
		BackendURL:     api.URL + "/api",
		DirectoryURL:   directoryURL,
		RequestTimeout: 5 * time.Second,
	}
	srv := New(cfg, Deps{
		Backend: backend.New(cfg.BackendURL, cfg.RequestTimeout, zap.NewNop()),
		Forms:   forms,
		Decks:   decks,
		Log:     zap.NewNop(),
	})
	return srv.Router
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestHandler(t, "")

	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerTokenReachesBackend(t *testing.T) {
	h := newTestHandler(t, "")

	rec := do(t, h, http.MethodPost, "/api/listings/sessions", `{"startupId":"s1"}`, map[string]string{"Authorization": "Bearer tok-9"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			SessionID string `json:"sessionId"`
			Form      struct {
				Mode   string `json:"mode"`
				Record struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"record"`
			} `json:"form"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.SessionID)
	assert.Equal(t, "edit", body.Data.Form.Mode)
	assert.Equal(t, "s1", body.Data.Form.Record.ID)
	assert.Equal(t, "Acme", body.Data.Form.Record.Name)

	rec = do(t, h, http.MethodPost, "/api/listings/sessions", `{"startupId":"s1"}`, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not authorized")
}

func TestCatalogRoutes(t *testing.T) {
	h := newTestHandler(t, "")

	rec := do(t, h, http.MethodGet, "/api/templates", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"t1"`)

	rec = do(t, h, http.MethodGet, "/api/templates/:id", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/decks/sessions", "", nil)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestDirectoryProxyAndOverview(t *testing.T) {
	indexer := fakeIndexer(t)
	h := newTestHandler(t, indexer.URL)

	rec := do(t, h, http.MethodGet, "/api/directory?stage=seed", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stage":"seed"`)

	rec = do(t, h, http.MethodGet, "/api/directory/summary", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":4`)

	rec = do(t, h, http.MethodGet, "/api/overview", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Data struct {
			Decks struct {
				Total int `json:"total"`
			} `json:"decks"`
			Directory struct {
				Total   int64            `json:"total"`
				ByStage map[string]int64 `json:"byStage"`
			} `json:"directory"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Data.Decks.Total)
	assert.Equal(t, int64(4), body.Data.Directory.Total)
	assert.Equal(t, int64(4), body.Data.Directory.ByStage["seed"])
}

func TestDirectoryRoutesAbsentWithoutUpstream(t *testing.T) {
	h := newTestHandler(t, "")

	rec := do(t, h, http.MethodGet, "/api/directory", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/overview", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "directory")
}
