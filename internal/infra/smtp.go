package infra

import (
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"

	"inventorypro/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends shift reports over SMTP. Sends go through a circuit breaker
// so an unreachable server fails fast instead of tying up workers.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	from     string
	breaker  *CircuitBreaker
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from:     sender(cfg.StoreName, cfg.SMTPUser),
		breaker:  NewCircuitBreaker(DefaultCBConfig()),
	}
}

// Configured reports whether an SMTP host was provided.
func (m *Mailer) Configured() bool { return m.host != "" }

// Send mails body to `to`, attaching the file at attachmentPath when set.
func (m *Mailer) Send(to, subject, body, attachmentPath string) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if attachmentPath != "" {
		if _, err := e.AttachFile(attachmentPath); err != nil {
			return fmt.Errorf("mailer: attach file: %w", err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return m.breaker.Execute(func() error { return e.Send(m.addr, auth) })
}

// sender shows the store name in the From header when the SMTP login is an
// address.
func sender(storeName, user string) string {
	if storeName == "" || !strings.Contains(user, "@") {
		return user
	}
	return (&mail.Address{Name: storeName, Address: user}).String()
}
