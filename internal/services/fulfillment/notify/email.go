// Package notify delivers fulfillment run notifications over email and the
// event bus.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/domain"
	"github.com/wneessen/go-mail"
)

// EmailConfig holds SMTP settings for the admin notification sender.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// EmailNotifier sends a plain-text summary to the configured admin address
// after each fulfillment run.
type EmailNotifier struct {
	client *mail.Client
	from   string
	to     string
}

// NewEmailNotifier builds an SMTP client from config. Returns an error when
// any required field is missing rather than failing on first send.
func NewEmailNotifier(config EmailConfig) (*EmailNotifier, error) {
	if strings.TrimSpace(config.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(config.From) == "" || strings.TrimSpace(config.To) == "" {
		return nil, fmt.Errorf("smtp from and to addresses are required")
	}

	opts := []mail.Option{mail.WithPort(config.Port)}
	if config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}
	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("build smtp client: %w", err)
	}
	return &EmailNotifier{client: client, from: config.From, to: config.To}, nil
}

// NotifyProcessed emails the run summary to the admin address.
func (n *EmailNotifier) NotifyProcessed(ctx context.Context, summary domain.RunSummary) error {
	if n == nil || n.client == nil {
		return fmt.Errorf("email notifier is not configured")
	}

	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(n.to); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(fmt.Sprintf("Order %s fulfilled", summary.OrderID))
	msg.SetBodyString(mail.TypeTextPlain, summaryBody(summary))

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send fulfillment email: %w", err)
	}
	return nil
}

func summaryBody(summary domain.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s was processed at %s.\n\n", summary.OrderID, summary.ProcessedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Tracking number: %s\n", summary.TrackingNumber)
	fmt.Fprintf(&b, "Cards processed: %d\n", summary.TotalCardsProcessed)
	if summary.TotalFailed > 0 {
		fmt.Fprintf(&b, "Copies failed: %d\n", summary.TotalFailed)
	}
	if summary.RemoteArchiveLink != "" {
		fmt.Fprintf(&b, "Archive: %s\n", summary.RemoteArchiveLink)
	}
	return b.String()
}
