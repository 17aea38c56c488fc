package main

import (
	"errors"
	"fmt"
	"log"
	"net/mail"
	"net/smtp"
	"strings"
)

var errSMTPNotConfigured = errors.New("SMTP credentials not configured")

type contactMessage struct {
	Name    string
	Email   string
	Message string
}

func (m contactMessage) validate() error {
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Message) == "" {
		return errors.New("name and message are required")
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}
	if strings.ContainsAny(m.Name+m.Email, "\r\n") {
		return errors.New("invalid characters in name or email")
	}
	return nil
}

// smtpMailer sends contact messages through the configured SMTP account.
func smtpMailer(cfg Config) func(contactMessage) error {
	return func(m contactMessage) error {
		if cfg.SMTPUser == "" || cfg.SMTPPass == "" {
			return errSMTPNotConfigured
		}
		to := cfg.ToEmail
		if to == "" {
			to = cfg.SMTPUser
		}

		subject := fmt.Sprintf("Portfolio Contact: %s", m.Name)
		body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, m.Name, m.Email, m.Message)

		msg := []byte("To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"From: " + cfg.SMTPUser + "\r\n" +
			"Reply-To: " + m.Email + "\r\n" +
			"\r\n" +
			body + "\r\n")

		auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
		if err := smtp.SendMail(cfg.SMTPHost+":"+cfg.SMTPPort, auth, cfg.SMTPUser, []string{to}, msg); err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		log.Printf("Contact email sent for %s", m.Email)
		return nil
	}
}
