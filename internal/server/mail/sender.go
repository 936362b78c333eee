// Package mail delivers transactional messages for the account flows:
// email confirmation and password reset. Delivery is asynchronous and
// best-effort; a failed message never fails the request that triggered it.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	gomail "github.com/wneessen/go-mail"

	"contactbook/internal/server/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// Sender delivers a single message synchronously. Implementations other
// than SMTP (console, test fakes) only need these two methods.
type Sender interface {
	SendConfirmation(ctx context.Context, to string, username string, link string) error
	SendPasswordReset(ctx context.Context, to string, username string, link string) error
}

type templateData struct {
	Username string
	Link     string
}

// SMTPSender delivers messages over SMTP with HTML bodies rendered from
// the embedded templates.
type SMTPSender struct {
	client    *gomail.Client
	from      string
	fromName  string
	templates *template.Template
}

func NewSMTPSender(cfg *config.Config) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.MailPort),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.MailUsername != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.MailUsername),
			gomail.WithPassword(cfg.MailPassword),
		)
	}

	client, err := gomail.NewClient(cfg.MailHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail client: %w", err)
	}

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mail templates: %w", err)
	}

	return &SMTPSender{
		client:    client,
		from:      cfg.MailFrom,
		fromName:  cfg.MailFromName,
		templates: templates,
	}, nil
}

func (s *SMTPSender) SendConfirmation(ctx context.Context, to string, username string, link string) error {
	return s.send(ctx, to, "Confirm your email", "verify_email.html", templateData{Username: username, Link: link})
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, to string, username string, link string) error {
	return s.send(ctx, to, "Reset your password", "reset_password.html", templateData{Username: username, Link: link})
}

func (s *SMTPSender) send(ctx context.Context, to string, subject string, templateName string, data templateData) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body.String())

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
