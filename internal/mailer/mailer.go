// Package mailer provides outbound email delivery over SMTP.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Sender delivers a rendered email. Implemented by smtp.SendMail in
// production and by fakes in tests.
type Sender interface {
	Send(to []string, msg []byte) error
}

// Mailer renders and sends verification and password-reset emails.
type Mailer struct {
	cfg       Config
	sender    Sender
	logger    *slog.Logger
	templates *template.Template
}

// New creates a Mailer using the real SMTP sender.
func New(cfg Config, logger *slog.Logger) (*Mailer, error) {
	return NewWithSender(cfg, logger, &smtpSender{cfg: cfg})
}

// NewWithSender creates a Mailer with a custom Sender. Used in tests.
func NewWithSender(cfg Config, logger *slog.Logger, sender Sender) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	return &Mailer{
		cfg:       cfg,
		sender:    sender,
		logger:    logger,
		templates: tmpl,
	}, nil
}

// templateData is what every email template receives.
type templateData struct {
	Username string
	Link     string
}

// SendVerificationEmail sends an email-confirmation link.
// confirmURL must already contain the token.
func (m *Mailer) SendVerificationEmail(to, username, confirmURL string) error {
	return m.send(to, "Confirm your email", "verify_email.html", templateData{
		Username: username,
		Link:     confirmURL,
	})
}

// SendPasswordResetEmail sends a password-reset link.
// resetURL must already contain the token.
func (m *Mailer) SendPasswordResetEmail(to, username, resetURL string) error {
	return m.send(to, "Password reset", "reset_password.html", templateData{
		Username: username,
		Link:     resetURL,
	})
}

func (m *Mailer) send(to, subject, templateName string, data templateData) error {
	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.Write(body.Bytes())
	msg.WriteString("\r\n")

	if err := m.sender.Send([]string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	m.logger.Info("email sent",
		slog.String("to", to),
		slog.String("template", templateName),
	)
	return nil
}

// smtpSender sends mail through net/smtp with PLAIN auth.
type smtpSender struct {
	cfg Config
}

func (s *smtpSender) Send(to []string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	return smtp.SendMail(addr, auth, s.cfg.From, to, msg)
}
