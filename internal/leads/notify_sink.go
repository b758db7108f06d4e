package leads

import (
	"context"

	"github.com/garanley/claims-intake/internal/notify"
)

type leadNotifier interface {
	NotifyLead(ctx context.Context, alert notify.LeadAlert) error
}

// NotifySink emails each lead to the intake inbox.
type NotifySink struct {
	notifier leadNotifier
}

func NewNotifySink(notifier leadNotifier) *NotifySink {
	if notifier == nil {
		return nil
	}
	return &NotifySink{notifier: notifier}
}

func (s *NotifySink) Name() string { return "email" }

func (s *NotifySink) Record(ctx context.Context, rec Record) error {
	return s.notifier.NotifyLead(ctx, notify.LeadAlert{
		Timestamp: rec.Timestamp,
		Origin:    rec.Origin,
		Name:      rec.Name,
		Phone:     rec.Phone,
		Email:     rec.Email,
		Message:   rec.Message,
		Extra:     rec.Extra,
	})
}
