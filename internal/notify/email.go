package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/jhillyerd/enmime"
)

// EmailConfig holds SMTP relay settings.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Email sends reminders as plain-text mail through an SMTP relay.
type Email struct {
	from   string
	sender enmime.Sender
}

func NewEmail(cfg EmailConfig) (*Email, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	return &Email{from: cfg.From, sender: enmime.NewSMTP(addr, auth)}, nil
}

// NewEmailWithSender is used when mail goes through something other than SMTP.
func NewEmailWithSender(from string, sender enmime.Sender) *Email {
	return &Email{from: from, sender: sender}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(ctx context.Context, contact string, msg Message) error {
	mail := enmime.Builder().
		From("medtrack", e.from).
		To("", contact).
		Subject(msg.Subject).
		Text([]byte(msg.Body))

	return runWithContext(ctx, func() error {
		return mail.Send(e.sender)
	})
}
