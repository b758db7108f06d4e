package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/garanley/claims-intake/pkg/logging"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type fakeSendGrid struct {
	sent   *mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, email *mail.SGMailV3) (*sendgridResponse, error) {
	f.sent = email
	if f.err != nil {
		return nil, f.err
	}
	return &sendgridResponse{StatusCode: f.status}, nil
}

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	if NewSendGridSender(SendGridConfig{FromEmail: "leads@garanley.es"}, nil) != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestSendGridSender_Send(t *testing.T) {
	api := &fakeSendGrid{status: 202}
	sender := newSendGridSender(api, SendGridConfig{FromEmail: "leads@garanley.es"}, logging.Discard())

	err := sender.Send(context.Background(), EmailMessage{
		To:      "intake@garanley.es",
		Subject: "Nuevo lead (Formulario Principal): Juan",
		Body:    "texto",
		ReplyTo: "juan@correo.es",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.sent.From.Name != defaultFromName || api.sent.From.Address != "leads@garanley.es" {
		t.Errorf("unexpected from %+v", api.sent.From)
	}
	if api.sent.ReplyTo == nil || api.sent.ReplyTo.Address != "juan@correo.es" {
		t.Errorf("unexpected reply-to %+v", api.sent.ReplyTo)
	}
	if len(api.sent.Content) != 1 || api.sent.Content[0].Type != "text/plain" {
		t.Errorf("expected a single text/plain part, got %+v", api.sent.Content)
	}
	if got := api.sent.Personalizations[0].To[0].Address; got != "intake@garanley.es" {
		t.Errorf("unexpected recipient %q", got)
	}
}

func TestSendGridSender_SendFailures(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeSendGrid
	}{
		{name: "transport error", api: &fakeSendGrid{err: errors.New("dial tcp")}},
		{name: "rejected", api: &fakeSendGrid{status: 401}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := newSendGridSender(tt.api, SendGridConfig{FromEmail: "leads@garanley.es"}, logging.Discard())
			if err := sender.Send(context.Background(), EmailMessage{To: "a@b.es"}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}
	if err := sender.Send(context.Background(), EmailMessage{To: "a@b.es"}); err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(logging.Discard())

	if err := sender.Send(context.Background(), EmailMessage{To: "a@b.es", Subject: "s"}); err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	api := &fakeSES{}
	sender := newSESSender(api, SESConfig{FromEmail: "leads@garanley.es"}, logging.Discard())

	err := sender.Send(context.Background(), EmailMessage{
		To:      "intake@garanley.es",
		Subject: "Nuevo lead",
		Body:    "texto",
		ReplyTo: "ana@correo.es",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(api.input.FromEmailAddress); got != defaultFromName+" <leads@garanley.es>" {
		t.Errorf("unexpected from address %q", got)
	}
	if api.input.Destination.ToAddresses[0] != "intake@garanley.es" {
		t.Errorf("unexpected destination %v", api.input.Destination.ToAddresses)
	}
	if len(api.input.ReplyToAddresses) != 1 || api.input.ReplyToAddresses[0] != "ana@correo.es" {
		t.Errorf("unexpected reply-to %v", api.input.ReplyToAddresses)
	}
	if api.input.Content.Simple.Body.Html != nil {
		t.Error("expected no HTML body")
	}
	if aws.ToString(api.input.Content.Simple.Body.Text.Data) != "texto" {
		t.Error("expected text body to be set")
	}
}

func TestSESSender_SendError(t *testing.T) {
	api := &fakeSES{err: errors.New("throttled")}
	sender := newSESSender(api, SESConfig{FromEmail: "leads@garanley.es"}, logging.Discard())

	if err := sender.Send(context.Background(), EmailMessage{To: "x@y.es"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewSESSender_NilClient(t *testing.T) {
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Error("expected nil sender for nil client")
	}
}
