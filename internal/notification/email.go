// internal/notification/email.go
// Outbound email: account confirmation and password reset

package notification

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender delivers transactional mail
type EmailSender interface {
	SendConfirmation(ctx context.Context, to, confirmURL string) error
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

type sendGridSender struct {
	client *sendgrid.Client
	from   string
}

// NewSendGridSender creates the production email sender
func NewSendGridSender(apiKey, from string) EmailSender {
	return &sendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   from,
	}
}

func (s *sendGridSender) SendConfirmation(ctx context.Context, to, confirmURL string) error {
	subject := "Confirm your United House account"
	body := fmt.Sprintf(
		"Welcome to United House.\n\nPlease confirm your email address by visiting:\n%s\n\nIf you did not create this account, you can ignore this email.",
		confirmURL,
	)
	return s.send(ctx, to, subject, body)
}

func (s *sendGridSender) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	subject := "Reset your United House password"
	body := fmt.Sprintf(
		"You requested a password reset for your United House account.\n\nReset your password here:\n%s\n\nThis link expires in one hour.",
		resetURL,
	)
	return s.send(ctx, to, subject, body)
}

func (s *sendGridSender) send(ctx context.Context, to, subject, body string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail("United House", s.from),
		subject,
		mail.NewEmail("", to),
		body,
		body,
	)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected message: status %d", resp.StatusCode)
	}
	return nil
}

// mockSender logs instead of sending; used in development and tests
type mockSender struct{}

// NewMockSender creates an email sender that only logs
func NewMockSender() EmailSender {
	return &mockSender{}
}

func (m *mockSender) SendConfirmation(ctx context.Context, to, confirmURL string) error {
	log.Printf("[mock email] confirmation to %s: %s", to, confirmURL)
	return nil
}

func (m *mockSender) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	log.Printf("[mock email] password reset to %s: %s", to, resetURL)
	return nil
}
