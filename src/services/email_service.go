// backend/src/services/email_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/clubledger/backend/src/config"
	"github.com/username/clubledger/backend/src/logger"
)

// EmailService notifies the treasurer that a batch ran. Summaries are
// only sent for LIVE runs; a dry run never leaves the machine.
type EmailService interface {
	SendImportSummary(source string, summary *ImportSummary) error
}

func NewEmailService() EmailService {
	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SummaryRecipient == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SummaryRecipient missing). Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		return &MailgunEmailService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
			recipient:   config.Cfg.SummaryRecipient,
		}
	default:
		return &MockEmailService{}
	}
}

type MailgunEmailService struct {
	mg          *mailgun.MailgunImpl
	senderEmail string
	senderName  string
	recipient   string
}

func (s *MailgunEmailService) SendImportSummary(source string, summary *ImportSummary) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := fmt.Sprintf("Ledger import finished: %s", source)

	body := fmt.Sprintf(`Ledger import of %q finished.

    Imported: %d
    Skipped:  %d
    Errors:   %d
    Elapsed:  %s
`, source, summary.Imported, summary.Skipped, len(summary.Errors), summary.Elapsed.Round(time.Millisecond))

	if len(summary.Errors) > 0 {
		body += "\nError detail:\n"
		for _, e := range summary.Errors {
			body += "  - " + e.Error() + "\n"
		}
	}

	message := s.mg.NewMessage(from, subject, body, s.recipient)
	message.AddTag("import-summary")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send import summary via Mailgun", "error", err, "to", s.recipient, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed for import summary: %w", err)
	}
	logger.L.Info("Import summary email sent", "to", s.recipient, "id", id)
	return nil
}

type MockEmailService struct{}

func (m *MockEmailService) SendImportSummary(source string, summary *ImportSummary) error {
	logger.L.Info("MockEmailService: Would send import summary.",
		"source", source, "imported", summary.Imported,
		"skipped", summary.Skipped, "errors", len(summary.Errors))
	return nil
}
