package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/matcornic/hermes/v2"
	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends transactional email.
type Mailer interface {
	SendPremiumReceipt(ctx context.Context, r Receipt) error
}

type Receipt struct {
	ToEmail   string
	ToName    string
	ExpiresAt time.Time
}

// Config describes the sender and the product branding used in emails.
type Config struct {
	APIKey      string
	FromEmail   string
	FromName    string
	ProductName string
	ProductLink string
}

// New returns a SendGrid mailer, or a no-op one when no API key is configured.
func New(cfg Config) Mailer {
	if cfg.APIKey == "" {
		log.Warn().Msg("SENDGRID_API_KEY not set, outgoing email disabled")
		return Noop{}
	}
	return &SendGridMailer{
		cfg:    cfg,
		client: sendgrid.NewSendClient(cfg.APIKey),
		brand: hermes.Hermes{
			Product: hermes.Product{
				Name: cfg.ProductName,
				Link: cfg.ProductLink,
			},
		},
	}
}

type SendGridMailer struct {
	cfg    Config
	client *sendgrid.Client
	brand  hermes.Hermes
}

func (m *SendGridMailer) SendPremiumReceipt(ctx context.Context, r Receipt) error {
	htmlBody, textBody, err := PremiumReceiptBodies(m.brand, r)
	if err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}

	from := mail.NewEmail(m.cfg.FromName, m.cfg.FromEmail)
	to := mail.NewEmail(r.ToName, r.ToEmail)
	msg := mail.NewSingleEmail(from, "Your premium membership is active", to, textBody, htmlBody)

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("send receipt: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("send receipt: sendgrid returned %d", resp.StatusCode)
	}
	return nil
}

// PremiumReceiptBodies renders the HTML and plain text versions of the receipt.
func PremiumReceiptBodies(brand hermes.Hermes, r Receipt) (string, string, error) {
	email := hermes.Email{
		Body: hermes.Body{
			Name: r.ToName,
			Intros: []string{
				"Thanks for supporting us. Your premium membership is now active.",
			},
			Dictionary: []hermes.Entry{
				{Key: "Valid until", Value: r.ExpiresAt.UTC().Format("January 2, 2006")},
			},
			Outros: []string{
				"Premium articles and your premium badge are unlocked right away.",
			},
		},
	}

	htmlBody, err := brand.GenerateHTML(email)
	if err != nil {
		return "", "", err
	}
	textBody, err := brand.GeneratePlainText(email)
	if err != nil {
		return "", "", err
	}
	return htmlBody, textBody, nil
}

type Noop struct{}

func (Noop) SendPremiumReceipt(context.Context, Receipt) error { return nil }
