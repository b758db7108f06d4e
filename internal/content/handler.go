package content

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/garanley/claims-intake/pkg/logging"
	"github.com/go-chi/chi/v5"
)

// maxQuestionLen bounds what is forwarded to the model.
const maxQuestionLen = 1000

// Assistant answers single questions. Answers always carry text.
type Assistant interface {
	AskFAQ(ctx context.Context, question string) string
	AskProcess(ctx context.Context, question string) string
}

type Handler struct {
	catalogue *Catalogue
	assistant Assistant
	logger    *logging.Logger
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func NewHandler(catalogue *Catalogue, assistant Assistant, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{catalogue: catalogue, assistant: assistant, logger: logger}
}

// Routes mounts the read endpoints and the ask endpoints. ask wraps the
// latter, typically with a rate limiter.
func (h *Handler) Routes(r chi.Router, ask func(http.Handler) http.Handler) {
	if ask == nil {
		ask = func(next http.Handler) http.Handler { return next }
	}
	r.Get("/faq", h.FAQ)
	r.Get("/process", h.Process)
	r.With(ask).Post("/ask/faq", h.AskFAQ)
	r.With(ask).Post("/ask/process", h.AskProcess)
}

// FAQ handles GET /api/faq. ?category= narrows to one category and ?q=
// filters items by keyword.
func (h *Handler) FAQ(w http.ResponseWriter, r *http.Request) {
	cats := h.catalogue.SearchFAQ(r.URL.Query().Get("q"))
	if id := r.URL.Query().Get("category"); id != "" {
		var filtered []FAQCategory
		for _, c := range cats {
			if c.ID == id {
				filtered = append(filtered, c)
			}
		}
		if _, ok := h.catalogue.Category(id); !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown category"})
			return
		}
		cats = filtered
	}
	if cats == nil {
		cats = []FAQCategory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// Process handles GET /api/process.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"steps": h.catalogue.Process})
}

func (h *Handler) AskFAQ(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, "faq", h.assistant.AskFAQ)
}

func (h *Handler) AskProcess(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, "process", h.assistant.AskProcess)
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request, topic string, fn func(context.Context, string) string) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}
	if len([]rune(question)) > maxQuestionLen {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is too long"})
		return
	}
	answer := fn(r.Context(), question)
	h.logger.Debug("question answered", "topic", topic, "question_len", len(question))
	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
