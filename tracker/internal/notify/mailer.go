package notify

import (
	"fmt"
	"net/smtp"
)

// SMTPConfig configures outbound mail.
type SMTPConfig struct {
	Host      string // e.g. "smtp.gmail.com"
	Port      int    // Default: 587.
	Sender    string
	Password  string
	Recipient string
}

func (c *SMTPConfig) defaults() {
	if c.Port == 0 {
		c.Port = 587
	}
}

// Configured reports whether enough settings are present to send mail.
func (c *SMTPConfig) Configured() bool {
	return c.Host != "" && c.Sender != "" && c.Recipient != ""
}

// SMTPMailer sends messages over SMTP with STARTTLS and plain auth.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	cfg.defaults()
	return &SMTPMailer{cfg: cfg}
}

// Send delivers the message to the configured recipient.
func (m *SMTPMailer) Send(msg *Message) error {
	payload, err := msg.Encode(m.cfg.Sender, m.cfg.Recipient)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Sender, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.Sender, []string{m.cfg.Recipient}, payload); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
