package webchat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/garanley/claims-intake/internal/sessions"
	"github.com/garanley/claims-intake/pkg/logging"
	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"
)

// Handler exposes chat sessions over HTTP and WebSocket.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// InboundMessage is what the widget sends over the socket.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we push to the widget.
type OutboundMessage struct {
	Type      string    `json:"type"` // "session", "history", "message", "typing", "pong", "error"
	SessionID string    `json:"session_id,omitempty"`
	Message   *Message  `json:"message,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
	Active    *bool     `json:"active,omitempty"`
	Text      string    `json:"text,omitempty"`
	Schedule  string    `json:"schedule_url,omitempty"`
}

type sendRequest struct {
	Text string `json:"text"`
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the chat endpoints. send wraps the endpoints that reach the
// model, typically with a rate limiter.
func (h *Handler) Routes(r chi.Router, send func(http.Handler) http.Handler) {
	if send == nil {
		send = func(next http.Handler) http.Handler { return next }
	}
	r.Post("/sessions", h.Create)
	r.Get("/sessions/{id}", h.Get)
	r.With(send).Post("/sessions/{id}/messages", h.Send)
	r.With(send).Get("/ws", h.HandleWebSocket)
}

// Create handles POST /api/chat/sessions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Create(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Get handles GET /api/chat/sessions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Send handles POST /api/chat/sessions/{id}/messages and answers once the
// assistant replied or the attempt failed.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	view, err := h.svc.Send(r.Context(), chi.URLParam(r, "id"), req.Text, nil)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleWebSocket upgrades to WebSocket. ?session= resumes an existing
// session; otherwise a new one is opened.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()

	view, err := h.svc.Get(ctx, r.URL.Query().Get("session"))
	if errors.Is(err, sessions.ErrNotFound) {
		view, err = h.svc.Create(ctx)
	}
	if err != nil {
		h.logger.Error("webchat: failed to open session", "error", err)
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "No se pudo iniciar el chat."})
		return
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: view.ID})
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: view.Messages})

	h.logger.Info("webchat: connection opened", "session_id", view.ID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", view.ID, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
		case "message":
			h.relay(conn, r, view.ID, msg.Text)
		}
	}
}

// relay runs one exchange, pushing the echo, typing and reply events.
func (h *Handler) relay(conn *websocket.Conn, r *http.Request, sessionID, text string) {
	accepted := 0
	view, err := h.svc.Send(r.Context(), sessionID, text, func(v View) {
		accepted = len(v.Messages)
		if n := len(v.Messages); n > 0 {
			last := v.Messages[n-1]
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "message", Message: &last})
		}
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing", Active: boolPtr(true)})
	})
	switch {
	case errors.Is(err, ErrEmptyMessage):
		return
	case errors.Is(err, ErrAwaitingResponse):
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: err.Error()})
		return
	case err != nil:
		h.logger.Error("webchat: send failed", "error", err, "session_id", sessionID)
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing", Active: boolPtr(false)})
		return
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing", Active: boolPtr(false)})
	// A failed reply leaves the transcript as it was when accepted.
	if n := len(view.Messages); n > accepted {
		last := view.Messages[n-1]
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "message", Message: &last, Schedule: view.ScheduleURL})
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessions.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "chat session not found"})
	case errors.Is(err, ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrAwaitingResponse):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("chat request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func boolPtr(b bool) *bool { return &b }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
