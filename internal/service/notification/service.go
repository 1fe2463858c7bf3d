package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/pharmalink/marketplace-api/internal/config"
)

type Service interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendPasswordReset(ctx context.Context, email, token string) error
	SendOrderStatusUpdate(ctx context.Context, email, orderID, status string) error
	SendPharmacyDecision(ctx context.Context, email, pharmacyName, status string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(cfg config.SMTPConfig) Service {
	return &emailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *emailService) SendWelcome(ctx context.Context, email, name string) error {
	body := fmt.Sprintf("Hello %s,\n\nWelcome to PharmaLink. Your account is ready.", name)
	return s.send(email, "Welcome to PharmaLink", body)
}

func (s *emailService) SendPasswordReset(ctx context.Context, email, token string) error {
	body := fmt.Sprintf("Use this token to reset your password: %s\n\nIt expires shortly.", token)
	return s.send(email, "Password reset", body)
}

func (s *emailService) SendOrderStatusUpdate(ctx context.Context, email, orderID, status string) error {
	body := fmt.Sprintf("Your order %s is now %s.", orderID, status)
	return s.send(email, "Order update", body)
}

func (s *emailService) SendPharmacyDecision(ctx context.Context, email, pharmacyName, status string) error {
	body := fmt.Sprintf("Your pharmacy %q has been %s.", pharmacyName, status)
	return s.send(email, "Pharmacy application update", body)
}

func (s *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
