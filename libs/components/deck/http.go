package deck

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/getlisted/platform/libs/shared/httpx"
	"github.com/getlisted/platform/libs/shared/messaging"
	"github.com/getlisted/platform/libs/shared/session"
)

// Handler exposes deck editor sessions over HTTP.
type Handler struct {
	sessions  *session.Store[*Reconciler]
	api       API
	suggester *Suggester
	events    messaging.Publisher
	log       *zap.Logger
}

// NewHandler constructs a Handler. Every session shares one Suggester.
func NewHandler(sessions *session.Store[*Reconciler], api API, events messaging.Publisher, log *zap.Logger) *Handler {
	return &Handler{
		sessions:  sessions,
		api:       api,
		suggester: NewSuggester(api),
		events:    events,
		log:       log,
	}
}

// Mount registers the deck session routes under basePath.
func (h *Handler) Mount(router chi.Router, basePath string) {
	path := strings.TrimSpace(basePath)
	if path == "" {
		path = "/decks/sessions"
	}

	router.Route(path, func(r chi.Router) {
		r.Post("/", h.openSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Delete("/", h.closeSession)
			r.Put("/details", h.setDetails)
			r.Put("/sector", h.setSector)
			r.Put("/active", h.setActive)
			r.Patch("/slide", h.editSlide)
			r.Post("/slides", h.addSlide)
			r.Delete("/slides/{index}", h.removeSlide)
			r.Post("/slides/move", h.moveSlide)
			r.Post("/suggestions", h.refreshSuggestions)
			r.Post("/template", h.applyTemplate)
			r.Post("/generate", h.generate)
			r.Post("/save", h.save)
			r.Delete("/deck", h.deleteDeck)
			r.Get("/export", h.export)
			r.Delete("/error", h.clearError)
		})
	})
}

type openDeckRequest struct {
	DeckID string `json:"deckId"`
}

type detailsRequest struct {
	Title       string `json:"title"`
	CompanyName string `json:"companyName"`
}

type sectorRequest struct {
	Sector string `json:"sector" validate:"required"`
}

type activeRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

type slidePatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type addSlideRequest struct {
	Type  string `json:"type" validate:"required"`
	Title string `json:"title"`
}

type moveRequest struct {
	From *int `json:"from" validate:"required,min=0"`
	To   *int `json:"to" validate:"required,min=0"`
}

type templateRequest struct {
	TemplateID string `json:"templateId"`
}

type generateRequest struct {
	Sector           string `json:"sector"`
	CompanyName      string `json:"companyName"`
	Description      string `json:"description"`
	ProblemStatement string `json:"problemStatement"`
}

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	var payload openDeckRequest
	if r.ContentLength != 0 {
		if err := httpx.Decode(r, &payload); err != nil {
			httpx.WriteDecodeError(w, err)
			return
		}
	}

	rec := NewReconciler(h.api, payload.DeckID,
		WithLogger(h.log),
		WithEvents(h.events),
		WithSuggester(h.suggester),
	)
	if err := rec.Load(r.Context()); err != nil {
		h.log.Warn("deck load failed", zap.String("deckId", payload.DeckID), zap.Error(err))
		httpx.Error(w, http.StatusBadGateway, err.Error())
		return
	}

	id := h.sessions.Put(rec)
	httpx.Data(w, http.StatusCreated, deckView(id, rec.Snapshot()))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	id, rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpx.Data(w, http.StatusOK, deckView(id, rec.Snapshot()))
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(chi.URLParam(r, "id")) {
		httpx.Error(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setDetails(w http.ResponseWriter, r *http.Request) {
	var payload detailsRequest
	h.apply(w, r, &payload, func(rec *Reconciler) error {
		return rec.SetDetails(payload.Title, payload.CompanyName)
	})
}

func (h *Handler) setSector(w http.ResponseWriter, r *http.Request) {
	var payload sectorRequest
	h.apply(w, r, &payload, func(rec *Reconciler) error {
		return rec.SetSector(r.Context(), payload.Sector)
	})
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	var payload activeRequest
	h.apply(w, r, &payload, func(rec *Reconciler) error {
		return rec.SetActiveSlide(r.Context(), *payload.Index)
	})
}

func (h *Handler) editSlide(w http.ResponseWriter, r *http.Request) {
	var payload slidePatch
	h.apply(w, r, &payload, func(rec *Reconciler) error {
		if payload.Title != nil {
			if err := rec.RenameSlide(*payload.Title); err != nil {
				return err
			}
		}
		if payload.Content != nil {
			return rec.EditSlide(*payload.Content)
		}
		return nil
	})
}

func (h *Handler) addSlide(w http.ResponseWriter, r *http.Request) {
	var payload addSlideRequest
	h.apply(w, r, &payload, func(rec *Reconciler) error {
		_, err := rec.AddSlide(payload.Type, payload.Title)
		return err
	})
}

func (h *Handler) removeSlide(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "index must be a number")
		return
	}
	h.apply(w, r, nil, func(rec *Reconciler) error {
		return rec.RemoveSlide(index)
	})
}

func (h *Handler) moveSlide(w http.ResponseWriter, r *http.Request) {
	var payload moveRequest
	h.apply(w, r, &payload, func(rec *Reconciler) error {
		return rec.MoveSlide(*payload.From, *payload.To)
	})
}

func (h *Handler) refreshSuggestions(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, nil, func(rec *Reconciler) error {
		return rec.RefreshSuggestions(r.Context())
	})
}

func (h *Handler) applyTemplate(w http.ResponseWriter, r *http.Request) {
	var payload templateRequest
	h.apply(w, r, &payload, func(rec *Reconciler) error {
		return rec.ApplyTemplate(r.Context(), payload.TemplateID)
	})
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var payload generateRequest
	h.apply(w, r, &payload, func(rec *Reconciler) error {
		return rec.Generate(r.Context(), GenerateRequest(payload))
	})
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	_, rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	saved, err := rec.Save(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, saved)
}

func (h *Handler) deleteDeck(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, nil, func(rec *Reconciler) error {
		return rec.Delete(r.Context())
	})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	_, rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	format, valid := ParseExportFormat(r.URL.Query().Get("format"))
	if !valid {
		httpx.Error(w, http.StatusBadRequest, "format must be one of pptx, pdf, html")
		return
	}

	data, err := rec.Export(r.Context(), format)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "pitch-deck."+string(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) clearError(w http.ResponseWriter, r *http.Request) {
	_, rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	rec.ClearErr()
	w.WriteHeader(http.StatusNoContent)
}

// apply decodes an optional body into payload, runs fn and answers with the
// session snapshot.
func (h *Handler) apply(w http.ResponseWriter, r *http.Request, payload any, fn func(*Reconciler) error) {
	id, rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if payload != nil {
		if err := httpx.Decode(r, payload); err != nil {
			httpx.WriteDecodeError(w, err)
			return
		}
	}
	if err := fn(rec); err != nil {
		writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, deckView(id, rec.Snapshot()))
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (string, *Reconciler, bool) {
	id := chi.URLParam(r, "id")
	rec, err := h.sessions.Get(id)
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "session not found")
		return "", nil, false
	}
	return id, rec, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSaveInFlight):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrClosed):
		httpx.Error(w, http.StatusGone, err.Error())
	case errors.Is(err, ErrNotPersisted), errors.Is(err, ErrSlideIndex), errors.Is(err, ErrLastSlide),
		errors.Is(err, ErrUnknownFormat), errors.Is(err, ErrIncompleteInput):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		httpx.Error(w, http.StatusBadGateway, err.Error())
	}
}

func deckView(id string, snap Snapshot) map[string]any {
	return map[string]any{
		"sessionId": id,
		"editor":    snap,
	}
}
