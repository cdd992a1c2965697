package mail

import (
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/dailydone/backend/internal/config"
)

// Mailer sends a single reminder message. Implementations must be safe
// for concurrent use.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTP builds a gomail-backed mailer from SMTP configuration.
func NewSMTP(cfg config.SMTPConfig) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

type logMailer struct {
	logger *zap.Logger
}

// NewLog returns a mailer that only logs, used when SMTP is disabled.
func NewLog(logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logMailer{logger: logger}
}

func (m *logMailer) Send(to, subject, body string) error {
	m.logger.Info("reminder (smtp disabled)",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}
