package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/getlisted/platform/libs/components/listing"
	"github.com/getlisted/platform/libs/shared/messaging"
	"github.com/getlisted/platform/libs/shared/mq"
)

func eventMessage(t *testing.T, eventType, id string, payload any) mq.Message {
	t.Helper()
	evt, err := messaging.NewEvent(eventType, id, payload)
	require.NoError(t, err)
	raw, err := json.Marshal(evt)
	require.NoError(t, err)
	return mq.Message{Key: []byte(id), Value: raw, Headers: map[string]string{"type": eventType}}
}

func TestIndexerAppliesListingEvents(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	idx := NewIndexer(repo, zap.NewNop())
	ctx := context.Background()

	saved := listing.Startup{Name: "Acme", Category: "Robotics", Stage: "seed"}
	require.NoError(t, idx.HandleMessage(ctx, eventMessage(t, messaging.ListingSaved, "s-1", saved)))

	got, err := repo.Find(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	require.NoError(t, idx.HandleMessage(ctx, eventMessage(t, messaging.DeckSaved, "d-1", nil)))

	require.NoError(t, idx.HandleMessage(ctx, eventMessage(t, messaging.ListingDeleted, "s-1", nil)))
	_, err = repo.Find(ctx, "s-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, idx.HandleMessage(ctx, eventMessage(t, messaging.ListingDeleted, "s-1", nil)))
}

func TestIndexerRejectsMalformedMessages(t *testing.T) {
	idx := NewIndexer(NewGormRepository(newTestDB(t)), zap.NewNop())

	err := idx.HandleMessage(context.Background(), mq.Message{Value: []byte("not json")})
	require.Error(t, err)
	assert.True(t, mq.IsPermanent(err))
}

type failingRepository struct {
	Repository
}

func (failingRepository) Upsert(context.Context, *Listing) error {
	return errors.New("connection refused")
}

func TestIndexerStoreFailureIsRetryable(t *testing.T) {
	idx := NewIndexer(failingRepository{}, zap.NewNop())

	err := idx.HandleMessage(context.Background(), eventMessage(t, messaging.ListingSaved, "s-9", listing.Startup{ID: "s-9", Name: "Acme"}))
	require.Error(t, err)
	assert.False(t, mq.IsPermanent(err))
}

func TestDirectoryHTTP(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	seed(t, repo)
	router := chi.NewRouter()
	NewHandler(repo).Mount(router, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/directory/?category=Robotics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Data, 2)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/directory/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Data Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, int64(3), summary.Data.Total)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/directory/b", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/directory/zzz", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
