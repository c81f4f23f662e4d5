// Package mailer sends transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"communityhub/internal/config"
	"communityhub/internal/middleware"
	"communityhub/internal/observability"

	"gopkg.in/gomail.v2"
)

// Message is a single outbound email.
type Message struct {
	Template string
	To       string
	Subject  string
	Text     string
	HTML     string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends through a gomail dialer.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// New returns an SMTP mailer, or a LogMailer when SMTP credentials are not configured.
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" {
		middleware.Logger.Warn("SMTP not configured, emails will only be logged")
		return LogMailer{}
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		observability.EmailsSent.WithLabelValues(msg.Template, "error").Inc()
		return fmt.Errorf("send %s email: %w", msg.Template, err)
	}
	observability.EmailsSent.WithLabelValues(msg.Template, "sent").Inc()
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	middleware.Logger.InfoContext(ctx, "email not sent (SMTP disabled)",
		slog.String("template", msg.Template),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	middleware.Logger.DebugContext(ctx, "email body", slog.String("to", msg.To), slog.String("text", msg.Text))
	observability.EmailsSent.WithLabelValues(msg.Template, "logged").Inc()
	return nil
}
