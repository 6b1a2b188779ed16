package services

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
)

// Mailer handles sending OTP emails over SMTP.
type Mailer struct {
	host     string
	port     string
	username string
	password string
}

// NewMailer creates a new Mailer.
func NewMailer(host, port, username, password string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

// SendCode emails a verification code to the given address. When SMTP
// credentials are not configured the send is skipped and logged, which keeps
// local development working without a mail account.
func (m *Mailer) SendCode(ctx context.Context, email, code string) error {
	subject := "Your Velo OTP"
	body := fmt.Sprintf("Your OTP is %s", code)
	return m.send(ctx, email, subject, body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if m.username == "" || m.password == "" {
		log.Printf("[Mailer] SMTP not configured, skipping mail to %s", to)
		return nil
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.username, to, subject, body))

	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.username, []string{to}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("[Mailer] Failed to send mail to %s: %v", to, err)
			return err
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
