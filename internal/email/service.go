package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/unihealth/care-api/internal/config"
)

type Service interface {
	Send(ctx context.Context, to string, subject string, content string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPService returns a Service that dials the configured SMTP server per message.
func NewSMTPService(cfg config.EmailConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) Send(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// Noop discards messages; used when no SMTP host is configured.
type Noop struct{}

func (Noop) Send(context.Context, string, string, string) error { return nil }
