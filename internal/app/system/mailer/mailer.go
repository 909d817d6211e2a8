// internal/app/system/mailer/mailer.go
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string // default from address
	FromName string
}

// Email is one outbound message. From falls back to the configured default
// when empty.
type Email struct {
	To       string
	From     string
	CC       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender sends email. The production implementation is Mailer; tests use a
// capture fake.
type Sender interface {
	Send(e Email) error
}

// Mailer sends mail over SMTP.
type Mailer struct {
	cfg Config
}

func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers one message. Plain and HTML bodies are sent as
// multipart/alternative when both are present.
func (m *Mailer) Send(e Email) error {
	from := e.From
	if from == "" {
		from = m.cfg.From
	}
	if e.To == "" {
		return fmt.Errorf("email has no recipient")
	}

	msg := buildMessage(from, m.cfg.FromName, e)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	recipients := append([]string{e.To}, e.CC...)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, from, recipients, msg); err != nil {
		return fmt.Errorf("send to %s: %w", e.To, err)
	}
	return nil
}

func buildMessage(from, fromName string, e Email) []byte {
	var b strings.Builder

	fromHeader := from
	if fromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}
	fmt.Fprintf(&b, "From: %s\r\n", fromHeader)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	if len(e.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(e.CC, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", e.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case e.HTMLBody != "" && e.TextBody != "":
		boundary := "=_memberhub_alt"
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, e.TextBody)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, e.HTMLBody)
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	case e.HTMLBody != "":
		fmt.Fprintf(&b, "Content-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", e.HTMLBody)
	default:
		fmt.Fprintf(&b, "Content-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", e.TextBody)
	}

	return []byte(b.String())
}
