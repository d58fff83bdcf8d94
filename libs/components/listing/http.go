package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/getlisted/platform/libs/shared/httpx"
	"github.com/getlisted/platform/libs/shared/observability"
	"github.com/getlisted/platform/libs/shared/session"
)

const maxLogoBytes = 5 << 20

// Loader fetches a persisted listing to edit.
type Loader interface {
	GetStartup(ctx context.Context, id string) (Startup, error)
}

// Handler exposes listing form sessions over HTTP.
type Handler struct {
	sessions  *session.Store[*Form]
	loader    Loader
	submitter *Submitter
	log       *zap.Logger
}

// NewHandler constructs a Handler.
func NewHandler(sessions *session.Store[*Form], loader Loader, submitter *Submitter, log *zap.Logger) *Handler {
	return &Handler{sessions: sessions, loader: loader, submitter: submitter, log: log}
}

// Mount registers the listing session routes on the provided router under the supplied base path.
func (h *Handler) Mount(router chi.Router, basePath string) {
	path := strings.TrimSpace(basePath)
	if path == "" {
		path = "/listings/sessions"
	}

	router.Route(path, func(r chi.Router) {
		r.Post("/", h.openSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Delete("/", h.closeSession)
			r.Patch("/fields", h.editField)
			r.Post("/founders", h.addFounder)
			r.Delete("/founders/{index}", h.removeFounder)
			r.Post("/funding-rounds", h.addFundingRound)
			r.Delete("/funding-rounds/{index}", h.removeFundingRound)
			r.Post("/navigate", h.navigate)
			r.Post("/validate", h.validate)
			r.Post("/submit", h.submit)
			r.Delete("/error", h.dismissError)
		})
	})
}

type openSessionRequest struct {
	StartupID string `json:"startupId"`
}

type editFieldRequest struct {
	Field string          `json:"field" validate:"required"`
	Value json.RawMessage `json:"value"`
}

type navigateRequest struct {
	Section string `json:"section" validate:"required,oneof=basic location metrics social founders funding"`
}

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	var payload openSessionRequest
	if r.ContentLength != 0 {
		if err := httpx.Decode(r, &payload); err != nil {
			httpx.WriteDecodeError(w, err)
			return
		}
	}

	hook := WithValidationHook(countFailures)
	form := NewCreateForm(hook)
	if id := strings.TrimSpace(payload.StartupID); id != "" {
		existing, err := h.loader.GetStartup(r.Context(), id)
		if err != nil {
			h.log.Warn("listing load failed", zap.String("startupId", id), zap.Error(err))
			httpx.Error(w, http.StatusBadGateway, err.Error())
			return
		}
		if existing.ID == "" {
			existing.ID = id
		}
		form = NewEditForm(existing, hook)
	}

	sessionID := h.sessions.Put(form)
	httpx.Data(w, http.StatusCreated, sessionView(sessionID, form.Snapshot()))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpx.Data(w, http.StatusOK, sessionView(id, form.Snapshot()))
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(chi.URLParam(r, "id")) {
		httpx.Error(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) editField(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload editFieldRequest
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}

	if err := form.Edit(payload.Field, rawValue(payload.Value)); err != nil {
		if errors.Is(err, ErrFormClosed) {
			httpx.Error(w, http.StatusGone, err.Error())
			return
		}
		httpx.Error(w, http.StatusBadRequest, fmt.Sprintf("field %q cannot be edited", payload.Field))
		return
	}
	form.Settle()
	httpx.Data(w, http.StatusOK, sessionView(id, form.Snapshot()))
}

func (h *Handler) addFounder(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(f *Form) error { return f.AddFounder() })
}

func (h *Handler) removeFounder(w http.ResponseWriter, r *http.Request) {
	h.mutateIndexed(w, r, (*Form).RemoveFounder)
}

func (h *Handler) addFundingRound(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(f *Form) error { return f.AddFundingRound() })
}

func (h *Handler) removeFundingRound(w http.ResponseWriter, r *http.Request) {
	h.mutateIndexed(w, r, (*Form).RemoveFundingRound)
}

func (h *Handler) navigate(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload navigateRequest
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.WriteDecodeError(w, err)
		return
	}
	section, _ := ParseSection(payload.Section)

	moved, result := form.Navigate(section)
	if !moved {
		httpx.Invalid(w, fmt.Sprintf("Please complete %s before continuing", form.Snapshot().ActiveSection.Title()), result.Errors)
		return
	}
	httpx.Data(w, http.StatusOK, sessionView(id, form.Snapshot()))
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if failed := form.ValidateForm(); len(failed) > 0 {
		failure := &ValidationFailure{Sections: failed, Errors: form.Errors()}
		httpx.Invalid(w, failure.Error(), failure.Errors)
		return
	}
	httpx.Data(w, http.StatusOK, sessionView(id, form.Snapshot()))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.lookup(w, r)
	if !ok {
		return
	}

	logo, err := readLogo(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.submitter.Submit(r.Context(), form, logo)
	if err != nil {
		var failure *ValidationFailure
		switch {
		case errors.As(err, &failure):
			httpx.Invalid(w, failure.Error(), failure.Errors)
		case errors.Is(err, ErrSubmitInFlight):
			httpx.Error(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrFormClosed):
			httpx.Error(w, http.StatusGone, err.Error())
		default:
			httpx.Error(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	status := http.StatusOK
	if form.Snapshot().Mode == ModeCreate {
		status = http.StatusCreated
	}
	h.sessions.Delete(id)
	httpx.Data(w, status, saved)
}

func (h *Handler) dismissError(w http.ResponseWriter, r *http.Request) {
	_, form, ok := h.lookup(w, r)
	if !ok {
		return
	}
	form.DismissError()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, apply func(*Form) error) {
	id, form, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := apply(form); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrFormClosed) {
			status = http.StatusGone
		}
		httpx.Error(w, status, err.Error())
		return
	}
	form.Settle()
	httpx.Data(w, http.StatusOK, sessionView(id, form.Snapshot()))
}

func (h *Handler) mutateIndexed(w http.ResponseWriter, r *http.Request, apply func(*Form, int) error) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "index must be a number")
		return
	}
	h.mutate(w, r, func(f *Form) error { return apply(f, index) })
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (string, *Form, bool) {
	id := chi.URLParam(r, "id")
	form, err := h.sessions.Get(id)
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "session not found")
		return "", nil, false
	}
	return id, form, true
}

func sessionView(id string, snap Snapshot) map[string]any {
	return map[string]any{
		"sessionId": id,
		"form":      snap,
	}
}

func countFailures(section Section, result Result) {
	if !result.Valid {
		observability.ValidationFailures.WithLabelValues(string(section)).Inc()
	}
}

// rawValue flattens a JSON value to the string form the field mutator takes:
// strings are unquoted, arrays are joined with commas, null is empty.
func rawValue(value json.RawMessage) string {
	trimmed := strings.TrimSpace(string(value))
	if trimmed == "" || trimmed == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}

	var items []any
	if err := json.Unmarshal(value, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	}
	return trimmed
}

// readLogo extracts an optional "logo" file part from a multipart submit.
func readLogo(r *http.Request) (*LogoFile, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, nil
	}
	if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}

	file, header, err := r.FormFile("logo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxLogoBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxLogoBytes {
		return nil, errors.New("logo exceeds 5MB")
	}
	return &LogoFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
