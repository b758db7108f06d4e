package webchat

import (
	"strings"
	"time"

	"github.com/garanley/claims-intake/internal/conversation"
)

// Roles of a transcript message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Delivery statuses of user messages.
const (
	StatusSent = "sent"
	StatusRead = "read"
)

// ActionSchedule asks the widget to offer the scheduling link.
const ActionSchedule = "schedule"

// Message is one transcript entry. Only Status and Action ever change
// after the message is appended.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status,omitempty"`
	Action    string    `json:"action,omitempty"`
}

// Session is one chat widget conversation.
type Session struct {
	ID           string    `json:"id"`
	State        string    `json:"state"`
	Messages     []Message `json:"messages"`
	LeadCaptured bool      `json:"lead_captured"`
	CreatedAt    time.Time `json:"created_at"`
	// PendingID is the user message awaiting a reply.
	PendingID     string    `json:"pending_id,omitempty"`
	AwaitingSince time.Time `json:"awaiting_since,omitempty"`
}

// markRead flips user messages older than delay to read. It reports
// whether anything changed.
func (s *Session) markRead(now time.Time, delay time.Duration) bool {
	changed := false
	for i := range s.Messages {
		m := &s.Messages[i]
		if m.Role == RoleUser && m.Status == StatusSent && now.Sub(m.Timestamp) >= delay {
			m.Status = StatusRead
			changed = true
		}
	}
	return changed
}

func (s *Session) clearPending() {
	s.PendingID = ""
	s.AwaitingSince = time.Time{}
}

// history maps the transcript to provider-neutral turns.
func (s *Session) history() []conversation.ChatMessage {
	out := make([]conversation.ChatMessage, 0, len(s.Messages))
	for _, m := range s.Messages {
		role := conversation.ChatRoleUser
		if m.Role == RoleAssistant {
			role = conversation.ChatRoleAssistant
		}
		out = append(out, conversation.ChatMessage{Role: role, Content: m.Text})
	}
	return out
}

// transcriptText serialises the whole transcript for the lead record,
// one "[USUARIO]: ..." or "[EVA]: ..." line per message.
func (s *Session) transcriptText() string {
	lines := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		label := "EVA"
		if m.Role == RoleUser {
			label = "USUARIO"
		}
		lines = append(lines, "["+label+"]: "+m.Text)
	}
	return strings.Join(lines, "\n")
}
