package leads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// WebhookSink posts each lead as a multipart form to a spreadsheet
// script endpoint. The endpoint's response is opaque: any status counts
// as delivered and only transport errors fail.
type WebhookSink struct {
	url    string
	client *http.Client
}

func NewWebhookSink(url string, client *http.Client) *WebhookSink {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookSink{url: url, client: client}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Record(ctx context.Context, rec Record) error {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for _, field := range rec.FormFields() {
		if err := form.WriteField(field[0], field[1]); err != nil {
			return fmt.Errorf("leads: webhook form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("leads: webhook form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, &body)
	if err != nil {
		return fmt.Errorf("leads: webhook request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("leads: webhook post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
