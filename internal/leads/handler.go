package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/garanley/claims-intake/pkg/logging"
)

// Submitter hands a record to the sinks without reporting failures.
type Submitter interface {
	Submit(ctx context.Context, rec Record)
}

// Lister reads archived leads back.
type Lister interface {
	List(ctx context.Context, filter ListFilter) ([]StoredLead, error)
}

// Handler serves the public lead-capture forms and the admin listing.
type Handler struct {
	leads   Submitter
	archive Lister
	logger  *logging.Logger
}

// NewHandler creates a new leads handler. archive may be nil.
func NewHandler(leads Submitter, archive Lister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		leads:   leads,
		archive: archive,
		logger:  logger,
	}
}

// ContactFormRequest is the body of POST /api/leads/contact.
type ContactFormRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// CallRequest is the body of POST /api/leads/call-request.
type CallRequest struct {
	Phone string `json:"phone"`
}

// TrafficFormRequest is the body of POST /api/leads/traffic.
type TrafficFormRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Privacy bool   `json:"privacy"`
}

type fieldError struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ContactForm handles POST /api/leads/contact.
func (h *Handler) ContactForm(w http.ResponseWriter, r *http.Request) {
	var req ContactFormRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeFieldError(w, http.StatusBadRequest, ErrMissingField, "name")
		return
	}
	if !ValidatePhone(req.Phone) {
		writeFieldError(w, http.StatusUnprocessableEntity, ErrInvalidPhone, "phone")
		return
	}
	if req.Email != "" && !ValidEmail(req.Email) {
		writeFieldError(w, http.StatusUnprocessableEntity, ErrInvalidEmail, "email")
		return
	}
	caseType := strings.TrimSpace(req.Type)
	if caseType == "" {
		caseType = "Tráfico"
	}

	h.accept(w, r, Record{
		Origin:  OriginContactForm,
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Message: req.Message,
		Extra:   "Tipo: " + caseType,
	})
}

// CallRequest handles POST /api/leads/call-request.
func (h *Handler) CallRequest(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		writeFieldError(w, http.StatusBadRequest, ErrMissingField, "phone")
		return
	}
	if !ValidatePhone(req.Phone) {
		writeFieldError(w, http.StatusUnprocessableEntity, ErrInvalidPhone, "phone")
		return
	}

	h.accept(w, r, Record{
		Origin:  OriginCallRequest,
		Phone:   req.Phone,
		Message: "Solicitud de llamada inmediata",
	})
}

// TrafficForm handles POST /api/leads/traffic.
func (h *Handler) TrafficForm(w http.ResponseWriter, r *http.Request) {
	var req TrafficFormRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeFieldError(w, http.StatusBadRequest, ErrMissingField, "name")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeFieldError(w, http.StatusBadRequest, ErrMissingField, "email")
		return
	}
	if !req.Privacy {
		writeFieldError(w, http.StatusBadRequest, ErrPrivacyNotAccepted, "privacy")
		return
	}
	if !ValidatePhone(req.Phone) {
		writeFieldError(w, http.StatusUnprocessableEntity, ErrInvalidPhone, "phone")
		return
	}
	if !ValidEmail(req.Email) {
		writeFieldError(w, http.StatusUnprocessableEntity, ErrInvalidEmail, "email")
		return
	}

	h.accept(w, r, Record{
		Origin:  OriginTrafficModal,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: "Interés en Accidentes de Tráfico (Modal Optimizado)",
	})
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []StoredLead `json:"leads"`
	Count  int          `json:"count"`
	Offset int          `json:"offset"`
	Limit  int          `json:"limit"`
}

// ListLeads handles GET /admin/leads requests
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		http.Error(w, ErrArchiveUnavailable.Error(), http.StatusServiceUnavailable)
		return
	}

	filter := ListFilter{
		Origin: r.URL.Query().Get("origin"),
		Limit:  50,
		Offset: 0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	leads, err := h.archive.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}
	if leads == nil {
		leads = []StoredLead{}
	}

	writeJSON(w, http.StatusOK, ListLeadsResponse{
		Leads:  leads,
		Count:  len(leads),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

// accept records the lead detached from the request so a client
// disconnect does not abort delivery, then answers 202.
func (h *Handler) accept(w http.ResponseWriter, r *http.Request, rec Record) {
	h.leads.Submit(context.WithoutCancel(r.Context()), rec)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Warn("failed to decode request", "error", err, "path", r.URL.Path)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeFieldError(w http.ResponseWriter, status int, err error, field string) {
	writeJSON(w, status, fieldError{Error: err.Error(), Field: field})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
