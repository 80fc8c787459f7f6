//go:generate mockgen -source ./mailer.go -destination=./mocks/mailer.go -package=mock_mailer
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrNoRecipients = errors.New("email has no recipients")

type Email struct {
	To      []string
	Subject string
	Body    string
}

type Service interface {
	Send(ctx context.Context, email Email) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends plain text mail. PLAIN auth is used only when a
// username is configured.
type SMTPMailer struct {
	config   SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	timeNow  func() time.Time
}

func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	return &SMTPMailer{config: config, sendMail: smtp.SendMail, timeNow: time.Now}
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}
	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))
	if err := m.sendMail(addr, auth, m.config.From, email.To, m.message(email)); err != nil {
		return fmt.Errorf("failed to send %q to %d recipients: %w", email.Subject, len(email.To), err)
	}
	return nil
}

func (m *SMTPMailer) message(email Email) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.config.From + "\r\n")
	b.WriteString("To: " + strings.Join(email.To, ", ") + "\r\n")
	b.WriteString("Subject: " + email.Subject + "\r\n")
	b.WriteString("Date: " + m.timeNow().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(email.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, email Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}
	m.logger.Info("email",
		zap.Strings("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.Body))
	return ctx.Err()
}
