// Package contact delivers contact form submissions by email.
package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/crud"
)

// ErrNotConfigured is returned when SMTP credentials are missing.
var ErrNotConfigured = errors.New("SMTP credentials not configured")

const maxMessageLen = 5000

type Message struct {
	Name    string `json:"fullName"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate trims the fields and rejects incomplete submissions.
func (m *Message) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Message = strings.TrimSpace(m.Message)

	switch {
	case m.Name == "":
		return crud.Invalid("name is required")
	case m.Email == "":
		return crud.Invalid("email is required")
	case m.Message == "":
		return crud.Invalid("message is required")
	case len(m.Message) > maxMessageLen:
		return crud.Invalid("message must be at most %d characters", maxMessageLen)
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return crud.Invalid("email address is not valid")
	}
	// Header injection
	if strings.ContainsAny(m.Name+m.Email, "\r\n") {
		return crud.Invalid("name and email must be a single line")
	}
	return nil
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends through a plain-auth SMTP relay.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	log  *zap.Logger
	send sendFunc
}

func NewSMTPMailer(cfg config.SMTPConfig, log *zap.Logger) *SMTPMailer {
	if cfg.ToEmail == "" {
		cfg.ToEmail = cfg.User
	}
	return &SMTPMailer{cfg: cfg, log: log, send: smtp.SendMail}
}

// Configured reports whether credentials are present.
func (s *SMTPMailer) Configured() bool {
	return s.cfg.User != "" && s.cfg.Pass != "" && s.cfg.ToEmail != ""
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := s.send(addr, auth, s.cfg.User, []string{s.cfg.ToEmail}, s.compose(m)); err != nil {
		s.log.Error("sending contact email failed", zap.Error(err))
		return fmt.Errorf("send contact email: %w", err)
	}

	s.log.Info("contact email sent", zap.String("from", m.Email))
	return nil
}

func (s *SMTPMailer) compose(m Message) []byte {
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, m.Name, m.Email, m.Message)

	return []byte("To: " + s.cfg.ToEmail + "\r\n" +
		"Subject: Portfolio Contact: " + m.Name + "\r\n" +
		"From: " + s.cfg.User + "\r\n" +
		"Reply-To: " + m.Email + "\r\n" +
		"\r\n" +
		body + "\r\n")
}
