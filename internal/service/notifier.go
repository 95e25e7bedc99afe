package service

import (
	"fmt"
	"net/url"

	"github.com/fullcourse/fullcourse-api/internal/mailer"
	"github.com/fullcourse/fullcourse-api/internal/metrics"
)

// Notifier composes the transactional emails and hands them to a Sender.
type Notifier struct {
	sender  Sender
	baseURL string
}

// NewNotifier creates a Notifier. baseURL prefixes every link it mails.
func NewNotifier(sender Sender, baseURL string) *Notifier {
	return &Notifier{sender: sender, baseURL: baseURL}
}

// SendVerificationCode mails a registration code.
func (n *Notifier) SendVerificationCode(to, code string) error {
	return n.send("email_verification", mailer.Email{
		To:      []string{to},
		Subject: "Your Fullcourse verification code",
		Body: fmt.Sprintf("Your verification code is %s.\n\n"+
			"It expires in 10 minutes. If you did not request it, ignore this email.", code),
	})
}

// SendPasswordReset mails a reset link carrying token.
func (n *Notifier) SendPasswordReset(to, token string) error {
	link := n.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	return n.send("password_reset", mailer.Email{
		To:       []string{to},
		Subject:  "Reset your Fullcourse password",
		Body:     "Reset your password here (valid for 24 hours):\n" + link,
		HTMLBody: fmt.Sprintf(`<p>Reset your password <a href="%s">here</a>. The link is valid for 24 hours.</p>`, link),
	})
}

// SendMagicLink mails a sign-in link carrying token.
func (n *Notifier) SendMagicLink(to, token string) error {
	link := n.baseURL + "/auth/magic?token=" + url.QueryEscape(token)
	return n.send("magic_link", mailer.Email{
		To:       []string{to},
		Subject:  "Sign in to Fullcourse",
		Body:     "Sign in with this link (valid for 15 minutes):\n" + link,
		HTMLBody: fmt.Sprintf(`<p><a href="%s">Sign in to Fullcourse</a>. The link is valid for 15 minutes.</p>`, link),
	})
}

func (n *Notifier) send(purpose string, email mailer.Email) error {
	err := n.sender.Send(email)
	metrics.EmailsSent.WithLabelValues(purpose, metrics.Result(err)).Inc()
	return err
}
