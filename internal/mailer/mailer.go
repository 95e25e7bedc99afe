package mailer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"gopkg.in/gomail.v2"
)

var ErrNoRecipients = errors.New("no recipients specified")

// Email represents an email message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// Mailer sends email over SMTP. Without an SMTP host it only logs what it
// would have sent, which is how development runs.
type Mailer struct {
	config Config
	dialer *gomail.Dialer
	logger *slog.Logger
}

// Config holds SMTP configuration for sending emails.
type Config struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"Fullcourse <no-reply@fullcourse.local>"`
}

// LoadConfig reads the SMTP settings from the environment.
func LoadConfig() (Config, error) {
	return env.ParseAs[Config]()
}

// New creates a Mailer from cfg.
func New(cfg Config, logger *slog.Logger) *Mailer {
	m := &Mailer{config: cfg, logger: logger}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

// Enabled reports whether messages actually leave the process.
func (m *Mailer) Enabled() bool {
	return m.dialer != nil
}

// Send sends a single email.
func (m *Mailer) Send(email Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}

	if m.dialer == nil {
		m.logger.Info("smtp disabled, email not sent", "to", email.To, "subject", email.Subject, "body", email.Body)
		return nil
	}

	msg := gomail.NewMessage()
	m.setEmailMessage(msg, email)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending %q: %w", email.Subject, err)
	}
	return nil
}

func (m *Mailer) setEmailMessage(msg *gomail.Message, email Email) {
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}
}
