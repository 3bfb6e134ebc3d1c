// Package mailer delivers verification codes by e-mail.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"gopkg.in/gomail.v2"
)

const verificationSubject = "Verify your e-mail address"

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Validate checks the settings needed to dial a server.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("missing SMTP host")
	}
	if c.Port == 0 {
		return errors.New("missing SMTP port")
	}
	if c.From == "" {
		return errors.New("missing SMTP from address")
	}
	return nil
}

func newVerificationMessage(from, to, code string, expiresAt time.Time) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", verificationSubject)
	msg.SetBody("text/plain", fmt.Sprintf(
		"Your verification code is %s.\n\nThe code expires at %s.\n",
		code, expiresAt.UTC().Format(time.RFC1123)))
	msg.AddAlternative("text/html", fmt.Sprintf(
		"<p>Your verification code is <strong>%s</strong>.</p><p>The code expires at %s.</p>",
		code, expiresAt.UTC().Format(time.RFC1123)))
	return msg
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends each message over a fresh SMTP connection.
type SMTPSender struct {
	from   string
	dialer dialer
}

func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

func (s *SMTPSender) SendVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(newVerificationMessage(s.from, email, code, expiresAt)); err != nil {
		return fmt.Errorf("sending verification mail: %w", err)
	}
	return nil
}

// OutboxSender writes complete MIME messages to w instead of sending them.
// Meant for development setups without an SMTP server.
type OutboxSender struct {
	from string

	mu sync.Mutex
	w  io.Writer
}

func NewOutboxSender(from string, w io.Writer) *OutboxSender {
	if from == "" {
		from = "no-reply@localhost"
	}
	return &OutboxSender{from: from, w: w}
}

func (s *OutboxSender) SendVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := newVerificationMessage(s.from, email, code, expiresAt)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := msg.WriteTo(s.w); err != nil {
		return fmt.Errorf("writing verification mail: %w", err)
	}
	_, err := io.WriteString(s.w, "\n")
	return err
}
