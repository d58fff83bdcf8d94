package deck

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/getlisted/platform/libs/shared/httpx"
)

// Catalog lists saved decks and manages the shared templates and examples.
type Catalog interface {
	ListDecks(ctx context.Context) ([]Deck, error)
	ListTemplates(ctx context.Context, sector string) ([]Template, error)
	GetTemplate(ctx context.Context, id string) (Template, error)
	CreateTemplate(ctx context.Context, t Template) (Template, error)
	ListExamples(ctx context.Context, slideType, sector string) ([]Example, error)
	CreateExample(ctx context.Context, e Example) (Example, error)
}

// CatalogHandler serves read and create access to the catalogue.
type CatalogHandler struct {
	catalog Catalog
	log     *zap.Logger
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(catalog Catalog, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

// Mount registers /decks, /templates and /examples on router.
func (h *CatalogHandler) Mount(router chi.Router) {
	router.Get("/decks", h.listDecks)
	router.Route("/templates", func(r chi.Router) {
		r.Get("/", h.listTemplates)
		r.Post("/", h.createTemplate)
		r.Get("/{id}", h.getTemplate)
	})
	router.Route("/examples", func(r chi.Router) {
		r.Get("/", h.listExamples)
		r.Post("/", h.createExample)
	})
}

func (h *CatalogHandler) listDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.catalog.ListDecks(r.Context())
	if err != nil {
		h.fail(w, "list decks", err)
		return
	}
	httpx.Data(w, http.StatusOK, decks)
}

func (h *CatalogHandler) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.catalog.ListTemplates(r.Context(), strings.TrimSpace(r.URL.Query().Get("sector")))
	if err != nil {
		h.fail(w, "list templates", err)
		return
	}
	httpx.Data(w, http.StatusOK, templates)
}

func (h *CatalogHandler) getTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if IsPlaceholderID(id) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	t, err := h.catalog.GetTemplate(r.Context(), id)
	if err != nil {
		h.fail(w, "get template", err)
		return
	}
	httpx.Data(w, http.StatusOK, t)
}

func (h *CatalogHandler) createTemplate(w http.ResponseWriter, r *http.Request) {
	var payload Template
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}
	created, err := h.catalog.CreateTemplate(r.Context(), payload)
	if err != nil {
		h.fail(w, "create template", err)
		return
	}
	httpx.Data(w, http.StatusCreated, created)
}

func (h *CatalogHandler) listExamples(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	examples, err := h.catalog.ListExamples(r.Context(), q.Get("slideType"), q.Get("sector"))
	if err != nil {
		h.fail(w, "list examples", err)
		return
	}
	httpx.Data(w, http.StatusOK, examples)
}

func (h *CatalogHandler) createExample(w http.ResponseWriter, r *http.Request) {
	var payload Example
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}
	created, err := h.catalog.CreateExample(r.Context(), payload)
	if err != nil {
		h.fail(w, "create example", err)
		return
	}
	httpx.Data(w, http.StatusCreated, created)
}

func (h *CatalogHandler) fail(w http.ResponseWriter, op string, err error) {
	h.log.Warn(op+" failed", zap.Error(err))
	httpx.Error(w, http.StatusBadGateway, err.Error())
}
