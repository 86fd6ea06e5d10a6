package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ravijp/portfolio-advisor/pkg/config"
	"github.com/ravijp/portfolio-advisor/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const gatewayEmail = "email"

// ErrEmailNotConfigured is returned when no SendGrid key is set
var ErrEmailNotConfigured = errors.New("SendGrid API key not configured")

// EmailMessage is a rendered message ready for delivery
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// EmailService delivers messages through SendGrid
type EmailService struct {
	apiKey    string
	fromEmail string
	fromName  string
	host      string // overrides the SendGrid API host when set
	metrics   *metrics.Recorder
	logger    zerolog.Logger
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.Config, rec *metrics.Recorder, logger zerolog.Logger) *EmailService {
	return &EmailService{
		apiKey:    cfg.SendGridAPIKey,
		fromEmail: cfg.SummaryEmailFrom,
		fromName:  cfg.SummaryFromName,
		metrics:   rec,
		logger:    logger,
	}
}

// Send delivers msg. A missing API key is reported as an error so callers
// never mistake a skipped send for a delivered one.
func (s *EmailService) Send(ctx context.Context, msg EmailMessage) error {
	if s.apiKey == "" {
		s.logger.Warn().Str("email", msg.To).Msg("SendGrid API key not configured, skipping email")
		return ErrEmailNotConfigured
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	client := sendgrid.NewSendClient(s.apiKey)
	if s.host != "" {
		client.BaseURL = s.host + "/v3/mail/send"
	}

	start := time.Now()
	response, err := client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 300 {
		err = fmt.Errorf("email service returned status %d", response.StatusCode)
	}
	s.metrics.ObserveGateway(gatewayEmail, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().Str("email", msg.To).Msg("Summary email sent successfully")
	return nil
}
