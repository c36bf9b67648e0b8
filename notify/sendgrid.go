package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGrid sends transactional mail: operator notifications and verification codes.
type SendGrid struct {
	client   *sendgrid.Client
	from     *mail.Email
	operator *mail.Email
}

func NewSendGrid(apiKey, fromName, fromAddress, operatorAddress string) *SendGrid {
	return &SendGrid{
		client:   sendgrid.NewSendClient(apiKey),
		from:     mail.NewEmail(fromName, fromAddress),
		operator: mail.NewEmail("Operator", operatorAddress),
	}
}

func (s *SendGrid) Notify(ctx context.Context, n Notification) error {
	if s.operator.Address == "" {
		return fmt.Errorf("operator email is not configured")
	}
	return s.send(ctx, mail.NewSingleEmail(s.from, operatorSubject, s.operator, OperatorMessage(n), ""))
}

// SendEmail sends an email to a user
func (s *SendGrid) SendEmail(ctx context.Context, toName, toEmail, subject, textContent, htmlContent string) error {
	return s.send(ctx, mail.NewSingleEmail(s.from, subject, mail.NewEmail(toName, toEmail), textContent, htmlContent))
}

func (s *SendGrid) send(ctx context.Context, message *mail.SGMailV3) error {
	to := message.Personalizations[0].To[0].Address

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		slog.Error("error sending email", "to", to, "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		slog.Error("SendGrid API error", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	slog.Info("email sent", "to", to, "status", response.StatusCode)
	return nil
}
