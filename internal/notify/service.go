package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/garanley/claims-intake/pkg/logging"
)

// LeadAlert is the subset of a lead that goes into the intake inbox email.
type LeadAlert struct {
	Timestamp string
	Origin    string
	Name      string
	Phone     string
	Email     string
	Message   string
	Extra     string
}

// LeadNotifier emails every captured lead to the intake inbox.
type LeadNotifier struct {
	email  EmailSender
	to     string
	logger *logging.Logger
}

func NewLeadNotifier(email EmailSender, to string, logger *logging.Logger) *LeadNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadNotifier{email: email, to: strings.TrimSpace(to), logger: logger}
}

// NotifyLead sends one alert. A notifier without sender or recipient is a no-op.
func (n *LeadNotifier) NotifyLead(ctx context.Context, alert LeadAlert) error {
	if n == nil || n.email == nil || n.to == "" {
		return nil
	}
	msg := EmailMessage{
		To:      n.to,
		Subject: leadSubject(alert),
		Body:    leadBody(alert),
	}
	if strings.Contains(alert.Email, "@") {
		msg.ReplyTo = strings.TrimSpace(alert.Email)
	}
	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: lead alert: %w", err)
	}
	return nil
}

func leadSubject(alert LeadAlert) string {
	who := strings.TrimSpace(alert.Name)
	if who == "" {
		who = strings.TrimSpace(alert.Phone)
	}
	if who == "" {
		who = strings.TrimSpace(alert.Email)
	}
	if who == "" {
		return fmt.Sprintf("Nuevo lead (%s)", alert.Origin)
	}
	return fmt.Sprintf("Nuevo lead (%s): %s", alert.Origin, who)
}

func leadBody(alert LeadAlert) string {
	var b strings.Builder
	line := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}
	line("Fecha", alert.Timestamp)
	line("Origen", alert.Origin)
	line("Nombre", alert.Name)
	line("Teléfono", alert.Phone)
	line("Email", alert.Email)
	line("Datos extra", alert.Extra)
	b.WriteString("\nMensaje:\n")
	if strings.TrimSpace(alert.Message) == "" {
		b.WriteString("-\n")
	} else {
		b.WriteString(alert.Message)
		b.WriteString("\n")
	}
	return b.String()
}
