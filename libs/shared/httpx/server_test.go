package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownBeforeStart(t *testing.T) {
	srv := New()
	require.NoError(t, srv.Shutdown(context.Background(), time.Second))
	assert.ErrorIs(t, srv.Start("127.0.0.1:0", time.Second), http.ErrServerClosed)
}

func TestRouterStripsTrailingSlash(t *testing.T) {
	srv := New()
	srv.Router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		Data(w, http.StatusOK, "pong")
	})

	rec := httptest.NewRecorder()
	srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":"pong"}`, rec.Body.String())
}

func TestInvalidAlwaysCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	Invalid(rec, "Please fix errors in: Location", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"Please fix errors in: Location","fields":{}}`, rec.Body.String())
}
