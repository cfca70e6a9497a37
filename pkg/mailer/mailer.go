package mailer

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/docsentry/docsentry/internal/types"
	"github.com/docsentry/docsentry/pkg/logx"
)

type MailerConfig struct {
	From       string
	To         string
	SMTPServer string
	SMTPPort   int
	Username   string
	Password   string
}

// Mailer delivers generated reports over SMTP.
type Mailer struct {
	config MailerConfig
}

var _ types.ReportSender = (*Mailer)(nil)

func New(config MailerConfig) *Mailer {
	if config.SMTPPort == 0 {
		config.SMTPPort = 587
	}
	return &Mailer{config: config}
}

// Send builds a plain-text message and delivers it in one dial. The context
// is accepted for interface symmetry; gomail does not support cancellation
// mid-dial.
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", m.config.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.config.SMTPServer, m.config.SMTPPort, m.config.Username, m.config.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail via %s:%d: %w", m.config.SMTPServer, m.config.SMTPPort, err)
	}

	logx.Info().Str("to", m.config.To).Str("subject", subject).Msg("report mail sent")
	return nil
}
