package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/garanley/claims-intake/pkg/logging"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const defaultFromName = "Obtenemos Tu Indemnización"

// EmailSender delivers one plain-text email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a plain-text alert. ReplyTo, when set, lets the intake
// team answer the lead straight from their inbox.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
	ReplyTo string
}

type sendgridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*sendgridResponse, error)
}

type sendgridResponse struct {
	StatusCode int
	Body       string
}

type sendgridClient struct {
	client *sendgrid.Client
}

func (c sendgridClient) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*sendgridResponse, error) {
	resp, err := c.client.SendWithContext(ctx, email)
	if err != nil {
		return nil, err
	}
	return &sendgridResponse{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	api    sendgridAPI
	from   *mail.Email
	logger *logging.Logger
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	return newSendGridSender(sendgridClient{client: sendgrid.NewSendClient(cfg.APIKey)}, cfg, logger)
}

func newSendGridSender(api sendgridAPI, cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &SendGridSender{
		api:    api,
		from:   mail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.api == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	resp, err := s.api.SendWithContext(ctx, sendgridMessage(s.from, msg))
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "subject", msg.Subject)
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Error("sendgrid rejected lead alert", "status", resp.StatusCode, "body", resp.Body)
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}

	s.logger.Info("lead alert sent", "provider", "sendgrid", "subject", msg.Subject)
	return nil
}

func sendgridMessage(from *mail.Email, msg EmailMessage) *mail.SGMailV3 {
	m := mail.NewSingleEmail(from, msg.Subject, mail.NewEmail("", msg.To), msg.Body, "")
	// Alerts are text only.
	m.Content = []*mail.Content{mail.NewContent("text/plain", msg.Body)}
	if msg.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}
	return m
}

// StubEmailSender only logs. It is the default when no provider is set.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("lead alert not sent, no email provider configured", "subject", msg.Subject)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
