package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/garanley/claims-intake/internal/sessions"
	"github.com/garanley/claims-intake/pkg/logging"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the wizards over HTTP. Routes carry {variant} and {id}.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	State *View  `json:"state,omitempty"`
}

// Routes mounts the wizard endpoints on r. submit wraps the endpoints that
// trigger external calls, typically with a rate limiter.
func (h *Handler) Routes(r chi.Router, submit func(http.Handler) http.Handler) {
	if submit == nil {
		submit = func(next http.Handler) http.Handler { return next }
	}
	r.Route("/{variant}", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}/answers", h.UpdateAnswers)
		r.Post("/{id}/advance", h.Advance)
		r.Post("/{id}/retreat", h.Retreat)
		r.Post("/{id}/reset", h.Reset)
		r.With(submit).Post("/{id}/contact", h.SubmitContact)
	})
}

// Create handles POST /api/wizard/{variant}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	variant, ok := h.variant(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Create(r.Context(), variant)
	if err != nil {
		h.fail(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Get handles GET /api/wizard/{variant}/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.svc.Get)
}

// UpdateAnswers handles PUT /api/wizard/{variant}/{id}/answers.
func (h *Handler) UpdateAnswers(w http.ResponseWriter, r *http.Request) {
	var patch AnswersPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	variant, ok := h.variant(w, r)
	if !ok {
		return
	}
	view, err := h.svc.UpdateAnswers(r.Context(), variant, chi.URLParam(r, "id"), patch)
	h.respond(w, view, err)
}

func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.svc.Advance)
}

func (h *Handler) Retreat(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.svc.Retreat)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.svc.Reset)
}

// SubmitContact handles POST /api/wizard/{variant}/{id}/contact. It answers
// once the lead and the result text are both done.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var contact Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	variant, ok := h.variant(w, r)
	if !ok {
		return
	}
	view, err := h.svc.SubmitContact(r.Context(), variant, chi.URLParam(r, "id"), contact)
	h.respond(w, view, err)
}

type operation func(ctx context.Context, variant Variant, id string) (View, error)

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, op operation) {
	variant, ok := h.variant(w, r)
	if !ok {
		return
	}
	view, err := op(r.Context(), variant, chi.URLParam(r, "id"))
	h.respond(w, view, err)
}

func (h *Handler) respond(w http.ResponseWriter, view View, err error) {
	if err != nil {
		var state *View
		if view.ID != "" {
			state = &view
		}
		h.fail(w, err, state)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) variant(w http.ResponseWriter, r *http.Request) (Variant, bool) {
	v, err := ParseVariant(chi.URLParam(r, "variant"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return "", false
	}
	return v, true
}

func (h *Handler) fail(w http.ResponseWriter, err error, state *View) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("wizard request failed", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	resp := errorResponse{Error: err.Error(), State: state}
	if errors.Is(err, ErrInvalidPhone) {
		resp.Field = "phone"
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sessions.ErrNotFound), errors.Is(err, ErrUnknownVariant):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidPhone):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrContactIncomplete), errors.Is(err, ErrInvalidAnswer):
		return http.StatusBadRequest
	case errors.Is(err, ErrStepIncomplete), errors.Is(err, ErrWrongStep), errors.Is(err, ErrSubmissionInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
