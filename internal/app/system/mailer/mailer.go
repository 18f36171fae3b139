// Package mailer sends outbound email. In development it logs the message
// instead of sending, so account verification can be exercised without an
// SMTP server.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Email is a single outbound message. HTMLBody is optional; when present
// the SMTP sender emits both parts.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Email) error
}

// DevSender logs messages instead of delivering them. The verification link
// shows up in the server log so a developer can click through.
type DevSender struct {
	Log *zap.Logger
}

func (d *DevSender) Send(_ context.Context, msg Email) error {
	log := d.Log
	if log == nil {
		log = zap.L()
	}
	log.Info("dev mailer: message not sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.TextBody))
	return nil
}

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	Host string
	Port int
	From string
	User string
	Pass string
}

func (s *SMTPSender) Send(_ context.Context, msg Email) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), s.Host)
	if msg.HTMLBody != "" {
		b.WriteString("MIME-Version: 1.0\r\n")
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.HTMLBody)
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.TextBody)
	}

	if err := smtp.SendMail(addr, auth, s.From, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}
