package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/garanley/claims-intake/internal/config"
	"github.com/garanley/claims-intake/internal/leads"
	"github.com/garanley/claims-intake/internal/notify"
	"github.com/garanley/claims-intake/pkg/logging"
)

// Email providers accepted in EMAIL_PROVIDER.
const (
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "ses"
	EmailProviderStub     = "stub"
)

const webhookTimeout = 10 * time.Second

// BuildEmailSender returns the sender for lead notifications, or nil when
// email is off. An empty provider picks SendGrid when a key is present.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (notify.EmailSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	provider := cfg.EmailProvider
	if provider == "" && cfg.SendGridAPIKey != "" {
		provider = EmailProviderSendGrid
	}

	switch provider {
	case "":
		return nil, nil
	case EmailProviderSendGrid:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty; email disabled")
			return nil, nil
		}
		return sender, nil
	case EmailProviderSES:
		if loadAWS == nil {
			return nil, fmt.Errorf("bootstrap: ses needs an aws config loader")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger), nil
	case EmailProviderStub:
		return notify.NewStubEmailSender(logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", provider)
	}
}

// LeadSinks is the assembled fan-out plus the archive, kept separately for
// the admin listing.
type LeadSinks struct {
	Sink    *leads.MultiSink
	Archive *leads.PostgresArchive
}

// BuildLeadSinks assembles every configured destination. Each one is
// optional; with none configured leads are only logged.
func BuildLeadSinks(ctx context.Context, cfg *appconfig.Config, pool *pgxpool.Pool, email notify.EmailSender, logger *logging.Logger) (LeadSinks, error) {
	if cfg == nil {
		return LeadSinks{}, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var (
		sinks []leads.Sink
		out   LeadSinks
	)
	if url := strings.TrimSpace(cfg.LeadWebhookURL); url != "" {
		sinks = append(sinks, leads.NewWebhookSink(url, &http.Client{Timeout: webhookTimeout}))
	}
	if cfg.SheetsSpreadsheetID != "" {
		sheets, err := leads.NewSheetsSink(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsRange, cfg.SheetsCredentialsFile)
		if err != nil {
			return LeadSinks{}, fmt.Errorf("bootstrap: sheets sink: %w", err)
		}
		sinks = append(sinks, sheets)
	}
	if pool != nil {
		out.Archive = leads.NewPostgresArchive(pool)
		sinks = append(sinks, out.Archive)
	}
	if email != nil && cfg.LeadNotifyEmail != "" {
		sinks = append(sinks, leads.NewNotifySink(notify.NewLeadNotifier(email, cfg.LeadNotifyEmail, logger)))
	}

	out.Sink = leads.NewMultiSink(sinks...)
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	if len(names) == 0 {
		logger.Warn("no lead sinks configured; leads will only be logged")
	} else {
		logger.Info("lead sinks configured", "sinks", strings.Join(names, ","))
	}
	return out, nil
}

// LeadTimeZone resolves LEAD_TIMEZONE, falling back to UTC.
func LeadTimeZone(cfg *appconfig.Config, logger *logging.Logger) *time.Location {
	if cfg == nil || cfg.LeadTimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(cfg.LeadTimeZone)
	if err != nil {
		if logger != nil {
			logger.Warn("invalid LEAD_TIMEZONE, using UTC", "tz", cfg.LeadTimeZone, "error", err)
		}
		return time.UTC
	}
	return loc
}
