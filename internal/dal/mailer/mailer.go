// Package mailer sends plain text e-mail over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/corray333/backend-labs/storefront/internal/config"
	"github.com/spf13/viper"
)

// Mailer delivers messages through one SMTP relay. Without a host it only
// logs what it would have sent.
type Mailer struct {
	addr string
	host string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// MustNewMailer creates a Mailer from smtp.* and the SMTP secrets.
func MustNewMailer() *Mailer {
	host := viper.GetString("smtp.host")
	from := viper.GetString("smtp.from")
	if host != "" && from == "" {
		panic("smtp.from is required when smtp.host is set")
	}

	m := &Mailer{
		host: host,
		from: from,
		send: smtp.SendMail,
	}
	if host == "" {
		slog.Warn("SMTP host is not configured, e-mails will only be logged")

		return m
	}

	m.addr = net.JoinHostPort(host, strconv.Itoa(viper.GetInt("smtp.port")))
	if env := config.Env(); env.SMTPUser != "" {
		m.auth = smtp.PlainAuth("", env.SMTPUser, env.SMTPPassword, host)
	}

	return m
}

// Send delivers a plain text message to one recipient.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if m.host == "" {
		slog.InfoContext(ctx, "E-mail not sent, SMTP disabled", "to", to, "subject", subject)

		return nil
	}

	if err := m.send(m.addr, m.auth, m.from, []string{to}, m.compose(to, subject, body)); err != nil {
		return fmt.Errorf("failed to send e-mail: %w", err)
	}

	return nil
}

func (m *Mailer) compose(to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	return []byte(b.String())
}
