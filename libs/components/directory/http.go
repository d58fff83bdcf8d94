package directory

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/getlisted/platform/libs/shared/httpx"
)

const maxPageSize = 100

// Handler exposes the directory over HTTP.
type Handler struct {
	repo Repository
}

// NewHandler builds a directory handler.
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Mount registers the directory routes under basePath.
func (h *Handler) Mount(router chi.Router, basePath string) {
	path := strings.TrimSpace(basePath)
	if path == "" {
		path = "/directory"
	}

	router.Route(path, func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/summary", h.summary)
		r.Get("/{id}", h.get)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Search:   q.Get("search"),
		Category: strings.TrimSpace(q.Get("category")),
		Stage:    strings.TrimSpace(q.Get("stage")),
		Country:  strings.TrimSpace(q.Get("country")),
		Limit:    queryInt(q.Get("limit"), 20),
		Offset:   queryInt(q.Get("offset"), 0),
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	listings, err := h.repo.List(r.Context(), filter)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]map[string]any, 0, len(listings))
	for _, entity := range listings {
		items = append(items, entity.ToDTO())
	}
	httpx.Data(w, http.StatusOK, items)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.repo.Summary(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.Data(w, http.StatusOK, summary)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	entity, err := h.repo.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, err.Error())
			return
		}
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.Data(w, http.StatusOK, entity.ToDTO())
}

func queryInt(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
